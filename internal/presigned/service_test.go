package presigned

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abduss/taskhub/internal/apperr"
	"github.com/abduss/taskhub/internal/attachment"
	"github.com/abduss/taskhub/internal/blob"
)

type fakeFinder struct {
	items map[uuid.UUID]attachment.Attachment
}

func (f *fakeFinder) FindByID(ctx context.Context, id uuid.UUID, inc attachment.Include) (attachment.Attachment, error) {
	a, ok := f.items[id]
	if !ok {
		return attachment.Attachment{}, apperr.NotFound("attachment not found")
	}
	return a, nil
}

type fakeSigner struct {
	path, name string
	ttl        time.Duration
	err        error
}

func (s *fakeSigner) PresignGet(ctx context.Context, path, fileName string, ttl time.Duration) (string, error) {
	s.path, s.name, s.ttl = path, fileName, ttl
	if s.err != nil {
		return "", s.err
	}
	return "https://blobs.local/" + path + "?sig=abc", nil
}

func newTestService(signer blob.Presigner) (*Service, attachment.Attachment) {
	a := attachment.Attachment{
		ID:          uuid.New(),
		FileName:    "minutes.docx",
		StoragePath: "attachments/2026/10/abc.docx",
	}
	finder := &fakeFinder{items: map[uuid.UUID]attachment.Attachment{a.ID: a}}
	svc := NewService(finder, signer, 15*time.Minute, time.Hour)
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	return svc, a
}

func TestDownloadURLUsesDefaultTTL(t *testing.T) {
	signer := &fakeSigner{}
	svc, a := newTestService(signer)

	link, err := svc.DownloadURL(context.Background(), a.ID, 0)
	if err != nil {
		t.Fatalf("DownloadURL returned error: %v", err)
	}
	if signer.path != a.StoragePath || signer.name != a.FileName {
		t.Fatalf("signed wrong object: %s %s", signer.path, signer.name)
	}
	if signer.ttl != 15*time.Minute {
		t.Fatalf("expected default ttl, got %s", signer.ttl)
	}
	if !link.ExpiresAt.Equal(time.Date(2026, 10, 18, 12, 15, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %s", link.ExpiresAt)
	}
	if link.Method != "GET" {
		t.Fatalf("unexpected method %s", link.Method)
	}
}

func TestDownloadURLRejectsTTLOutOfRange(t *testing.T) {
	svc, a := newTestService(&fakeSigner{})

	for _, ttl := range []time.Duration{time.Millisecond, 2 * time.Hour, -time.Minute} {
		if _, err := svc.DownloadURL(context.Background(), a.ID, ttl); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("ttl %s: expected validation error, got %v", ttl, err)
		}
	}
}

func TestDownloadURLUnsupportedBackend(t *testing.T) {
	svc, a := newTestService(nil)

	if _, err := svc.DownloadURL(context.Background(), a.ID, 0); !errors.Is(err, apperr.ErrUnsupported) {
		t.Fatalf("expected unsupported, got %v", err)
	}
}

func TestDownloadURLMissingAttachment(t *testing.T) {
	svc, _ := newTestService(&fakeSigner{})

	if _, err := svc.DownloadURL(context.Background(), uuid.New(), 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDownloadURLSignerFailure(t *testing.T) {
	svc, a := newTestService(&fakeSigner{err: errors.New("no credentials")})

	if _, err := svc.DownloadURL(context.Background(), a.ID, 0); !errors.Is(err, apperr.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestSignerFor(t *testing.T) {
	local, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if SignerFor(local) != nil {
		t.Fatalf("local store should not presign")
	}
	if SignerFor(blob.NewMinIOStore(nil, "b")) == nil {
		t.Fatalf("minio store should presign")
	}
}

func TestHandlerGenerateDownloadURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, a := newTestService(&fakeSigner{})
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/v1"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/attachments/"+a.ID.String()+"/download-url?ttl=30m", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var link Link
	if err := json.Unmarshal(rr.Body.Bytes(), &link); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if link.URL != "https://blobs.local/attachments/2026/10/abc.docx?sig=abc" {
		t.Fatalf("unexpected url %s", link.URL)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/attachments/"+a.ID.String()+"/download-url?ttl=soon", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad ttl, got %d", rr.Code)
	}
}
