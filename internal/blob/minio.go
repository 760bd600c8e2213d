package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// minioClient is the subset of *minio.Client the store uses.
type minioClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MinIOStore keeps attachment content in a MinIO bucket.
type MinIOStore struct {
	client minioClient
	bucket string
}

// NewMinIOStore constructs an adapter over client writing into bucket.
func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket}
}

func (s *MinIOStore) Put(ctx context.Context, r io.Reader, size int64, name, contentType string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("put object: reader is required")
	}
	key := newObjectKey(name)
	if size < 0 {
		size = -1
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

func (s *MinIOStore) Delete(ctx context.Context, path string) error {
	if err := validateKey(path); err != nil {
		return err
	}
	err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("remove object %s: %w", path, err)
	}
	return nil
}

func (s *MinIOStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func (s *MinIOStore) PresignGet(ctx context.Context, path, fileName string, ttl time.Duration) (string, error) {
	if err := validateKey(path); err != nil {
		return "", err
	}
	params := make(url.Values)
	params.Set("response-content-disposition", contentDisposition(fileName))

	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", path, err)
	}
	return u.String(), nil
}
