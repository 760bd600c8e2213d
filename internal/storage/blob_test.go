package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abduss/taskhub/internal/blob"
	"github.com/abduss/taskhub/internal/config"
)

func TestNewBlobStoreLocal(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	root := t.TempDir()

	store, err := NewBlobStore(context.Background(), config.BlobConfig{
		Backend: config.BlobBackendLocal,
		Local:   config.LocalConfig{Root: root},
	}, zap.New(core))
	if err != nil {
		t.Fatalf("NewBlobStore returned error: %v", err)
	}
	if _, ok := store.(*blob.LocalStore); !ok {
		t.Fatalf("expected *blob.LocalStore, got %T", store)
	}

	entries := logs.FilterMessage("attachment directory ready").All()
	if len(entries) != 1 {
		t.Fatalf("expected one startup log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["root"]; got != root {
		t.Fatalf("expected root %q in log, got %v", root, got)
	}
}

func TestNewBlobStoreUnknownBackend(t *testing.T) {
	if _, err := NewBlobStore(context.Background(), config.BlobConfig{Backend: "tape"}, nil); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

type fakeBucketAPI struct {
	exists    bool
	existsErr error
	makeErr   error
	made      []string
}

func (f *fakeBucketAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeBucketAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	f.made = append(f.made, bucketName)
	return f.makeErr
}

func TestEnsureAttachmentBucket(t *testing.T) {
	cases := []struct {
		name      string
		api       *fakeBucketAPI
		wantState BucketState
		wantMade  int
		wantErr   bool
	}{
		{name: "existing", api: &fakeBucketAPI{exists: true}, wantState: BucketExisting},
		{name: "created", api: &fakeBucketAPI{}, wantState: BucketCreated, wantMade: 1},
		{name: "created by another replica", api: &fakeBucketAPI{makeErr: minio.ErrorResponse{Code: "BucketAlreadyOwnedByYou"}}, wantState: BucketExisting, wantMade: 1},
		{name: "check fails", api: &fakeBucketAPI{existsErr: errors.New("dial tcp: refused")}, wantErr: true},
		{name: "create fails", api: &fakeBucketAPI{makeErr: minio.ErrorResponse{Code: "AccessDenied"}}, wantMade: 1, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state, err := EnsureAttachmentBucket(context.Background(), tc.api, "taskhub-attachments", "us-east-1")
			if tc.wantErr != (err != nil) {
				t.Fatalf("unexpected error: %v", err)
			}
			if state != tc.wantState {
				t.Fatalf("expected state %q, got %q", tc.wantState, state)
			}
			if len(tc.api.made) != tc.wantMade {
				t.Fatalf("expected %d MakeBucket calls, got %d", tc.wantMade, len(tc.api.made))
			}
		})
	}
}

func TestMinIOEndpointAddsDefaultPort(t *testing.T) {
	cases := map[string]string{
		"minio":          "minio:9000",
		"minio:9100":     "minio:9100",
		"127.0.0.1":      "127.0.0.1:9000",
		"127.0.0.1:9001": "127.0.0.1:9001",
	}
	for in, want := range cases {
		if got := minioEndpoint(in); got != want {
			t.Fatalf("minioEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
