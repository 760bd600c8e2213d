package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromKeepsTypedErrorThroughWrapping(t *testing.T) {
	base := NotFound("attachment not found")
	wrapped := fmt.Errorf("lookup: %w", base)

	got := From(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrPersistence))
}

func TestFromWrapsUnknownAsInternal(t *testing.T) {
	raw := errors.New("pq: connection reset by peer")

	got := From(raw)
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), got.Message)
	assert.ErrorIs(t, got, raw)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindStorageWrite, KindOf(StorageWrite(errors.New("disk full"))))
	assert.Equal(t, KindValidation, KindOf(Validation("bad", FieldError{Field: "file", Error: "is required"})))
}

func TestStatusHints(t *testing.T) {
	cases := map[*Error]int{
		Validation("x"):                   http.StatusBadRequest,
		NotFound("x"):                     http.StatusNotFound,
		Conflict("x", nil):                http.StatusConflict,
		StorageWrite(nil):                 http.StatusInternalServerError,
		StorageDelete(nil):                http.StatusInternalServerError,
		Persistence(errors.New("commit")): http.StatusInternalServerError,
		Unsupported("x"):                  http.StatusNotImplemented,
	}
	for e, status := range cases {
		assert.Equal(t, status, e.Status, string(e.Kind))
		assert.NotEmpty(t, e.Code)
	}
}
