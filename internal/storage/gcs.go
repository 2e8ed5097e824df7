package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSStore is a Google Cloud Storage backend. An endpoint switches the
// client to an unauthenticated emulator.
type GCSStore struct {
	client        *gcs.Client
	projectID     string
	publicBaseURL string
}

// NewGCS creates a GCS client from cfg.
func NewGCS(ctx context.Context, cfg Config) (*GCSStore, error) {
	var opts []option.ClientOption

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")

	switch {
	case endpoint != "":
		opts = append(opts, option.WithEndpoint(endpoint+"/storage/v1/"), option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(gcs.ScopeReadWrite))
	default:
		opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = gcsPublicHost
		if endpoint != "" {
			base = endpoint
		}
	}

	return &GCSStore{client: client, projectID: cfg.ProjectID, publicBaseURL: base}, nil
}

// Put implements ObjectStore.
func (g *GCSStore) Put(ctx context.Context, bucket, key, localPath string) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = textContentType

	written, copyErr := io.Copy(w, f)
	if copyErr != nil {
		_ = w.Close()

		return 0, fmt.Errorf("write gcs object: %w", copyErr)
	}

	closeErr := w.Close()
	if closeErr != nil {
		return 0, fmt.Errorf("close gcs writer: %w", closeErr)
	}

	return written, nil
}

// PresignedGet implements ObjectStore. Signing uses the client's
// credentials, so it fails against an emulator.
func (g *GCSStore) PresignedGet(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return g.client.Bucket(bucket).SignedURL(key, &gcs.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
		Scheme:  gcs.SigningSchemeV4,
	})
}

// PublicURL implements ObjectStore.
func (g *GCSStore) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", g.publicBaseURL, bucket, strings.TrimLeft(key, "/"))
}

// EnsureBucket implements ObjectStore.
func (g *GCSStore) EnsureBucket(ctx context.Context, bucket string) error {
	handle := g.client.Bucket(bucket)

	_, err := handle.Attrs(ctx)
	if err == nil {
		return nil
	}

	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("storage: check bucket %s: %w", bucket, err)
	}

	createErr := handle.Create(ctx, g.projectID, nil)
	if createErr != nil {
		return fmt.Errorf("storage: create bucket %s: %w", bucket, createErr)
	}

	return nil
}

// Close releases the client.
func (g *GCSStore) Close() error {
	return g.client.Close()
}
