package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abduss/taskhub/internal/attachment"
)

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeAttachmentPage(w io.Writer, p attachment.Page) error {
	for _, a := range p.Items {
		if err := writePlain(w, "%s\n", formatAttachmentLine(a)); err != nil {
			return err
		}
	}
	return writePlain(w, "page %d/%d (%d total)\n", p.CurrentPage, p.TotalPages, p.TotalItems)
}

func writeAttachmentDetail(w io.Writer, a attachment.Attachment) error {
	lines := []string{
		fmt.Sprintf("id: %s", a.ID),
		fmt.Sprintf("file_name: %s", a.FileName),
		fmt.Sprintf("storage_path: %s", a.StoragePath),
		fmt.Sprintf("mime_type: %s", a.MimeType),
		fmt.Sprintf("size_bytes: %d", a.SizeBytes),
		fmt.Sprintf("creator: %s", formatCreator(a)),
	}
	if a.Task != nil {
		lines = append(lines, fmt.Sprintf("task: %s (%s)", a.Task.Title, a.Task.ID))
	} else if a.TaskID != nil {
		lines = append(lines, fmt.Sprintf("task: %s", *a.TaskID))
	}
	if a.Project != nil {
		lines = append(lines, fmt.Sprintf("project: %s (%s)", a.Project.Name, a.Project.ID))
	} else if a.ProjectID != nil {
		lines = append(lines, fmt.Sprintf("project: %s", *a.ProjectID))
	}
	lines = append(lines,
		fmt.Sprintf("created_at: %s", formatTime(a.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(a.UpdatedAt)),
	)
	return writePlain(w, "%s\n", strings.Join(lines, "\n"))
}

func formatAttachmentLine(a attachment.Attachment) string {
	return fmt.Sprintf("%s  %-32s  %10d  %s", a.ID, a.FileName, a.SizeBytes, formatTime(a.CreatedAt))
}

func formatCreator(a attachment.Attachment) string {
	if a.Creator == nil {
		return a.CreatorID.String()
	}
	if a.Creator.DisplayName != nil && *a.Creator.DisplayName != "" {
		return fmt.Sprintf("%s <%s>", *a.Creator.DisplayName, a.Creator.Email)
	}
	return a.Creator.Email
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
