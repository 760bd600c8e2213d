package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/abduss/taskhub/internal/attachment"
	"github.com/abduss/taskhub/internal/config"
	"github.com/abduss/taskhub/internal/logger"
	"github.com/abduss/taskhub/internal/presigned"
	"github.com/abduss/taskhub/internal/reference"
	"github.com/abduss/taskhub/internal/server"
	"github.com/abduss/taskhub/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("taskhub api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbPool.Close()

	if cfg.Postgres.AutoMigrate {
		applied, err := storage.Migrate(ctx, dbPool)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied", zap.Strings("versions", applied))
	}

	blobs, err := storage.NewBlobStore(ctx, cfg.Blob, log)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	attachmentService := attachment.NewService(
		attachment.NewRepository(dbPool),
		reference.NewRepository(dbPool),
		blobs,
		log,
		attachment.Options{
			MaxUploadBytes:  cfg.Attachments.MaxUploadBytes,
			DefaultPageSize: cfg.Attachments.DefaultPageSize,
			MaxPageSize:     cfg.Attachments.MaxPageSize,
		},
	)

	presignedService := presigned.NewService(
		attachmentService,
		presigned.SignerFor(blobs),
		cfg.Attachments.DownloadURLTTL,
		config.MaxDownloadURLTTL,
	)

	router := server.NewRouter(server.Dependencies{
		Config:            cfg,
		DB:                dbPool,
		Blob:              blobs,
		AttachmentService: attachmentService,
		PresignedService:  presignedService,
		Logger:            log,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("taskhub api listening",
			zap.String("addr", cfg.Server.Address()),
			zap.String("blob_backend", cfg.Blob.Backend),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
