package attachment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const attachmentColumns = `a.id, a.file_name, a.storage_path, a.mime_type, a.size_bytes, a.creator_id, a.task_id, a.project_id, a.created_at, a.updated_at`

// Tx is the write surface available inside WithTx.
type Tx interface {
	Create(ctx context.Context, a Attachment) (Attachment, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Repository provides access to attachment metadata.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new attachment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a transaction. The transaction commits only when fn
// returns nil; any error (including a panic) rolls it back.
func (r *Repository) WithTx(ctx context.Context, fn func(Tx) error) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(&txRepository{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", translateError(err))
	}
	return nil
}

type txRepository struct {
	q querier
}

// Create inserts a metadata row. The row becomes visible when the surrounding transaction commits.
func (t *txRepository) Create(ctx context.Context, a Attachment) (Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO attachments AS a (id, file_name, storage_path, mime_type, size_bytes, creator_id, task_id, project_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + attachmentColumns + `;`

	row := t.q.QueryRow(ctx, query,
		a.ID,
		a.FileName,
		a.StoragePath,
		a.MimeType,
		a.SizeBytes,
		a.CreatorID,
		a.TaskID,
		a.ProjectID,
	)
	stored, err := scanAttachment(row, IncludeNone)
	if err != nil {
		return Attachment{}, fmt.Errorf("create attachment: %w", translateError(err))
	}
	return stored, nil
}

// Get fetches one attachment with the requested summaries.
func (r *Repository) Get(ctx context.Context, id uuid.UUID, inc Include) (Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := selectQuery(inc) + ` WHERE a.id = $1;`
	a, err := scanAttachment(r.pool.QueryRow(ctx, query, id), inc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, ErrAttachmentNotFound
		}
		return Attachment{}, fmt.Errorf("get attachment: %w", err)
	}
	return a, nil
}

// List returns one page of attachments, newest first, and the total row count.
// Both are read from the same snapshot.
func (r *Repository) List(ctx context.Context, limit, offset int, inc Include) ([]Attachment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, fmt.Errorf("begin list: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM attachments;`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attachments: %w", err)
	}

	query := selectQuery(inc) + ` ORDER BY a.created_at DESC, a.id LIMIT $1 OFFSET $2;`
	rows, err := tx.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	items := make([]Attachment, 0, limit)
	for rows.Next() {
		a, err := scanAttachment(rows, inc)
		if err != nil {
			return nil, 0, fmt.Errorf("scan attachment: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate attachments: %w", err)
	}
	return items, total, nil
}

// Update changes task and project association. Fields the input leaves unset keep their value.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE attachments AS a SET
    task_id    = CASE WHEN $2::boolean THEN $3::uuid ELSE a.task_id END,
    project_id = CASE WHEN $4::boolean THEN $5::uuid ELSE a.project_id END,
    updated_at = NOW()
WHERE a.id = $1
RETURNING ` + attachmentColumns + `;`

	var taskID, projectID *uuid.UUID
	if !in.ClearTask {
		taskID = in.TaskID
	}
	if !in.ClearProject {
		projectID = in.ProjectID
	}

	row := r.pool.QueryRow(ctx, query, id, in.setsTask(), taskID, in.setsProject(), projectID)
	a, err := scanAttachment(row, IncludeNone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, ErrAttachmentNotFound
		}
		return Attachment{}, fmt.Errorf("update attachment: %w", translateError(err))
	}
	return a, nil
}

// Delete removes the metadata row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}

func selectQuery(inc Include) string {
	var cols, joins strings.Builder
	cols.WriteString(attachmentColumns)
	if inc.Creator {
		cols.WriteString(", u.id, u.email, u.display_name")
		joins.WriteString(" LEFT JOIN users u ON u.id = a.creator_id")
	}
	if inc.Task {
		cols.WriteString(", t.id, t.title")
		joins.WriteString(" LEFT JOIN tasks t ON t.id = a.task_id")
	}
	if inc.Project {
		cols.WriteString(", p.id, p.name")
		joins.WriteString(" LEFT JOIN projects p ON p.id = a.project_id")
	}
	return "SELECT " + cols.String() + " FROM attachments a" + joins.String()
}

func scanAttachment(row rowScanner, inc Include) (Attachment, error) {
	var a Attachment
	dest := []any{
		&a.ID,
		&a.FileName,
		&a.StoragePath,
		&a.MimeType,
		&a.SizeBytes,
		&a.CreatorID,
		&a.TaskID,
		&a.ProjectID,
		&a.CreatedAt,
		&a.UpdatedAt,
	}

	var (
		userID      *uuid.UUID
		userEmail   *string
		userName    *string
		taskID      *uuid.UUID
		taskTitle   *string
		projectID   *uuid.UUID
		projectName *string
	)
	if inc.Creator {
		dest = append(dest, &userID, &userEmail, &userName)
	}
	if inc.Task {
		dest = append(dest, &taskID, &taskTitle)
	}
	if inc.Project {
		dest = append(dest, &projectID, &projectName)
	}

	if err := row.Scan(dest...); err != nil {
		return Attachment{}, err
	}

	if userID != nil {
		a.Creator = &UserSummary{ID: *userID, Email: deref(userEmail), DisplayName: userName}
	}
	if taskID != nil {
		a.Task = &TaskSummary{ID: *taskID, Title: deref(taskTitle)}
	}
	if projectID != nil {
		a.Project = &ProjectSummary{ID: *projectID, Name: deref(projectName)}
	}
	return a, nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrStoragePathExists, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrReferenceNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
