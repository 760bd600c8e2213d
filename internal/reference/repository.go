// Package reference answers existence questions about entities owned by other
// modules (users, tasks, projects). Attachments only ever need to know whether
// an id they point at is real.
package reference

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

// Table names that may be checked.
const (
	Users    = "users"
	Tasks    = "tasks"
	Projects = "projects"
)

var existsQueries = map[string]string{
	Users:    `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1);`,
	Tasks:    `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1);`,
	Projects: `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1);`,
}

// Repository checks referenced rows in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a reference repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UserExists reports whether a user row with id exists.
func (r *Repository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, Users, id)
}

// TaskExists reports whether a task row with id exists.
func (r *Repository) TaskExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, Tasks, id)
}

// ProjectExists reports whether a project row with id exists.
func (r *Repository) ProjectExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, Projects, id)
}

func (r *Repository) exists(ctx context.Context, table string, id uuid.UUID) (bool, error) {
	query, ok := existsQueries[table]
	if !ok {
		return false, fmt.Errorf("unknown reference table %q", table)
	}

	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s exists: %w", table, err)
	}
	return exists, nil
}
