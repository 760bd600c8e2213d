package attachment

import (
	"fmt"
	"strings"
)

// Include selects which owner summaries a read joins in.
type Include struct {
	Creator bool
	Task    bool
	Project bool
}

var (
	// IncludeAll loads every summary.
	IncludeAll = Include{Creator: true, Task: true, Project: true}
	// IncludeNone loads the attachment row only.
	IncludeNone = Include{}
)

// ParseInclude reads a comma separated relation list such as "creator,task".
// An empty value means IncludeAll; "none" means IncludeNone.
func ParseInclude(raw string) (Include, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	switch raw {
	case "", "all":
		return IncludeAll, nil
	case "none":
		return IncludeNone, nil
	}

	var inc Include
	for _, part := range strings.Split(raw, ",") {
		switch strings.TrimSpace(part) {
		case "creator":
			inc.Creator = true
		case "task":
			inc.Task = true
		case "project":
			inc.Project = true
		case "":
		default:
			return Include{}, fmt.Errorf("unknown relation %q", strings.TrimSpace(part))
		}
	}
	return inc, nil
}
