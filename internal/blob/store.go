// Package blob stores attachment content.
//
// A Store writes bytes under a path it chooses and hands that path back to the
// caller; the path is the only link between content and its metadata row.
// Delete is idempotent: removing a path that no longer exists succeeds.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const keyPrefix = "attachments"

// ErrInvalidPath is returned for paths a store could never have produced.
var ErrInvalidPath = errors.New("invalid blob path")

// Store is implemented by every content backend.
type Store interface {
	Put(ctx context.Context, r io.Reader, size int64, name, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	Ping(ctx context.Context) error
}

// Presigner is implemented by stores that can hand out time-limited download links.
type Presigner interface {
	PresignGet(ctx context.Context, path, fileName string, ttl time.Duration) (string, error)
}

// ObjectKey derives a collision-free path from the original file name.
func ObjectKey(name string, now time.Time) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(name)))
	if len(ext) > 16 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return fmt.Sprintf("%s/%s/%s%s", keyPrefix, now.UTC().Format("2006/01"), uuid.NewString(), ext)
}

func newObjectKey(name string) string {
	return ObjectKey(name, time.Now())
}

// contentDisposition builds an attachment disposition header that keeps the original name.
func contentDisposition(fileName string) string {
	if fileName == "" {
		return "attachment"
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
}

func validateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidPath
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || strings.HasPrefix(clean, "..") || strings.Contains(clean, "/../") {
		return ErrInvalidPath
	}
	return nil
}
