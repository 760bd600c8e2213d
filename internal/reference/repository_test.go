package reference

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestExistsRejectsUnknownTable(t *testing.T) {
	r := &Repository{}
	if _, err := r.exists(context.Background(), "roles", uuid.New()); err == nil {
		t.Fatalf("expected error for unknown table")
	}
}

func TestEveryTableHasQuery(t *testing.T) {
	for _, table := range []string{Users, Tasks, Projects} {
		if existsQueries[table] == "" {
			t.Fatalf("missing exists query for %s", table)
		}
	}
}
