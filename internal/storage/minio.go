package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"plume/internal/domain/repositories"
)

// MinIOConfig holds the S3-compatible endpoint settings.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	URLTTL    time.Duration
}

// Presigned URLs are valid for one second up to seven days.
const (
	defaultURLTTL = time.Hour
	maxURLTTL     = 7 * 24 * time.Hour
)

var _ repositories.BlobStore = (*MinIOStore)(nil)

// MinIOStore keeps recordings in an S3-compatible bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
	urlTTL time.Duration
	logger *slog.Logger
}

// NewMinIOStore connects to the endpoint and creates the bucket if missing.
func NewMinIOStore(ctx context.Context, cfg MinIOConfig, logger *slog.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		logger.Info("object store bucket created", "bucket", cfg.Bucket)
	}

	return newMinIOStore(client, cfg.Bucket, cfg.URLTTL, logger), nil
}

func newMinIOStore(client *minio.Client, bucket string, urlTTL time.Duration, logger *slog.Logger) *MinIOStore {
	if urlTTL <= 0 {
		urlTTL = defaultURLTTL
	}
	if urlTTL > maxURLTTL {
		urlTTL = maxURLTTL
	}
	return &MinIOStore{client: client, bucket: bucket, urlTTL: urlTTL, logger: logger}
}

// Put uploads the recording.
func (s *MinIOStore) Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Debug("object uploaded", "key", key, "size", size)
	return nil
}

// URL presigns a GET for key. The bucket stays private.
func (s *MinIOStore) URL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return u.String(), nil
}

// Remove deletes the object. S3 treats missing keys as success.
func (s *MinIOStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// Prune removes every object under prefix. Used by the seed tool.
func (s *MinIOStore) Prune(ctx context.Context, prefix string) (int, error) {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	removed := 0
	for object := range objects {
		if object.Err != nil {
			return removed, fmt.Errorf("list objects: %w", object.Err)
		}
		if err := s.Remove(ctx, object.Key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
