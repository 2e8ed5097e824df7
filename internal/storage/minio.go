package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const textContentType = "text/plain; charset=utf-8"

// MinioStore is an S3-compatible backend.
type MinioStore struct {
	client   *minio.Client
	endpoint string
	secure   bool
	region   string
}

// NewMinio connects to an S3-compatible endpoint given as host[:port].
func NewMinio(cfg Config) (*MinioStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	endpoint = strings.TrimRight(endpoint, "/")

	if endpoint == "" {
		return nil, ErrNoEndpoint
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: minio client: %w", err)
	}

	return &MinioStore{client: client, endpoint: endpoint, secure: cfg.Secure, region: cfg.Region}, nil
}

// Put implements ObjectStore.
func (m *MinioStore) Put(ctx context.Context, bucket, key, localPath string) (int64, error) {
	info, err := m.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{
		ContentType: textContentType,
	})
	if err != nil {
		return 0, err
	}

	return info.Size, nil
}

// PresignedGet implements ObjectStore.
func (m *MinioStore) PresignedGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		return "", err
	}

	return u.String(), nil
}

// PublicURL implements ObjectStore.
func (m *MinioStore) PublicURL(bucket, key string) string {
	scheme := "http"
	if m.secure {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s/%s/%s", scheme, m.endpoint, bucket, key)
}

// EnsureBucket implements ObjectStore.
func (m *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket %s: %w", bucket, err)
	}

	if exists {
		return nil
	}

	makeErr := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.region})
	if makeErr != nil {
		return fmt.Errorf("storage: create bucket %s: %w", bucket, makeErr)
	}

	return nil
}
