package storage

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/abduss/taskhub/internal/config"
)

const (
	bucketCheckTimeout = 5 * time.Second
	defaultMinIOPort   = "9000"
)

// BucketState reports what EnsureAttachmentBucket found at startup.
type BucketState string

const (
	BucketExisting BucketState = "existing"
	BucketCreated  BucketState = "created"
)

// bucketAPI is the part of *minio.Client used to bootstrap the attachment bucket.
type bucketAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// NewMinIOClient builds a client for the attachment content bucket.
func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(minioEndpoint(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

func minioEndpoint(endpoint string) string {
	if _, _, err := net.SplitHostPort(endpoint); err == nil {
		return endpoint
	}
	return net.JoinHostPort(endpoint, defaultMinIOPort)
}

// EnsureAttachmentBucket makes sure attachment content has somewhere to go.
// A bucket created concurrently by another replica counts as existing.
func EnsureAttachmentBucket(ctx context.Context, client bucketAPI, bucket, region string) (BucketState, error) {
	ctx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("check attachment bucket %q: %w", bucket, err)
	}
	if exists {
		return BucketExisting, nil
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return BucketExisting, nil
		}
		return "", fmt.Errorf("create attachment bucket %q: %w", bucket, err)
	}
	return BucketCreated, nil
}
