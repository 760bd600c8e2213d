package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abduss/taskhub/internal/blob"
	"github.com/abduss/taskhub/internal/config"
)

// NewBlobStore builds the content backend selected by cfg.Backend.
func NewBlobStore(ctx context.Context, cfg config.BlobConfig, log *zap.Logger) (blob.Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("blob_backend", cfg.Backend))

	switch cfg.Backend {
	case config.BlobBackendMinIO:
		client, err := NewMinIOClient(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		state, err := EnsureAttachmentBucket(ctx, client, cfg.MinIO.Bucket, cfg.MinIO.Region)
		if err != nil {
			return nil, err
		}
		log.Info("attachment bucket ready",
			zap.String("bucket", cfg.MinIO.Bucket),
			zap.String("state", string(state)),
		)
		return blob.NewMinIOStore(client, cfg.MinIO.Bucket), nil
	case config.BlobBackendS3:
		store, err := blob.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		log.Info("attachment bucket configured", zap.String("bucket", cfg.S3.Bucket))
		return store, nil
	case config.BlobBackendLocal:
		store, err := blob.NewLocalStore(cfg.Local.Root)
		if err != nil {
			return nil, err
		}
		log.Info("attachment directory ready", zap.String("root", cfg.Local.Root))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}
