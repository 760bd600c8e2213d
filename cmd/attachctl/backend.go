package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abduss/taskhub/internal/attachment"
	"github.com/abduss/taskhub/internal/config"
	"github.com/abduss/taskhub/internal/logger"
	"github.com/abduss/taskhub/internal/reference"
	"github.com/abduss/taskhub/internal/storage"
)

type attachmentService interface {
	FindByID(ctx context.Context, id uuid.UUID, inc attachment.Include) (attachment.Attachment, error)
	FindAll(ctx context.Context, page, limit int, inc attachment.Include) (attachment.Page, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// backend is what the commands talk to. close releases its connections.
type backend struct {
	attachments attachmentService
	migrate     func(ctx context.Context) ([]string, error)
	close       func()
}

type backendFactory func(ctx context.Context) (*backend, error)

func newBackend(ctx context.Context) (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	blobs, err := storage.NewBlobStore(ctx, cfg.Blob, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	svc := attachment.NewService(
		attachment.NewRepository(pool),
		reference.NewRepository(pool),
		blobs,
		log.With(zap.String("component", "attachctl")),
		attachment.Options{
			MaxUploadBytes:  cfg.Attachments.MaxUploadBytes,
			DefaultPageSize: cfg.Attachments.DefaultPageSize,
			MaxPageSize:     cfg.Attachments.MaxPageSize,
		},
	)

	return &backend{
		attachments: svc,
		migrate: func(ctx context.Context) ([]string, error) {
			return storage.Migrate(ctx, pool)
		},
		close: func() {
			_ = log.Sync()
			pool.Close()
		},
	}, nil
}
