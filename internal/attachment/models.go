package attachment

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Attachment is the metadata row describing one stored file.
type Attachment struct {
	ID          uuid.UUID  `json:"id"`
	FileName    string     `json:"file_name"`
	StoragePath string     `json:"storage_path"`
	MimeType    string     `json:"mime_type"`
	SizeBytes   int64      `json:"size_bytes"`
	CreatorID   uuid.UUID  `json:"creator_id"`
	TaskID      *uuid.UUID `json:"task_id"`
	ProjectID   *uuid.UUID `json:"project_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Creator *UserSummary    `json:"creator,omitempty"`
	Task    *TaskSummary    `json:"task,omitempty"`
	Project *ProjectSummary `json:"project,omitempty"`
}

// UserSummary is the uploader as seen from an attachment.
type UserSummary struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name,omitempty"`
}

// TaskSummary is the owning task as seen from an attachment.
type TaskSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// ProjectSummary is the owning project as seen from an attachment.
type ProjectSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CreateInput carries an upload. Content is read exactly once.
type CreateInput struct {
	Content   io.Reader  `json:"-"`
	FileName  string     `json:"file_name" validate:"required,max=255"`
	MimeType  string     `json:"mime_type" validate:"max=255"`
	SizeBytes int64      `json:"size_bytes" validate:"gte=0"`
	CreatorID uuid.UUID  `json:"creator_id" validate:"required"`
	TaskID    *uuid.UUID `json:"task_id"`
	ProjectID *uuid.UUID `json:"project_id"`
}

// UpdateInput re-associates an attachment. Content, path and name are immutable.
type UpdateInput struct {
	TaskID       *uuid.UUID
	ProjectID    *uuid.UUID
	ClearTask    bool
	ClearProject bool
}

func (in UpdateInput) setsTask() bool    { return in.TaskID != nil || in.ClearTask }
func (in UpdateInput) setsProject() bool { return in.ProjectID != nil || in.ClearProject }

// Page is one slice of a listing.
type Page struct {
	Items       []Attachment `json:"items"`
	TotalItems  int64        `json:"total_items"`
	TotalPages  int          `json:"total_pages"`
	CurrentPage int          `json:"current_page"`
	Limit       int          `json:"limit"`
}
