// Package storage publishes cleaned filings to an object store and builds
// the links handed back to users.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Backend names.
const (
	BackendMinio  = "minio"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// URL modes.
const (
	URLModeSigned = "signed"
	URLModeStatic = "static"
)

// DefaultSignedURLTTL is the lifetime of presigned links.
const DefaultSignedURLTTL = 7 * 24 * time.Hour

// Configuration errors.
var (
	ErrUnknownBackend = errors.New("storage: unknown backend")
	ErrUnknownURLMode = errors.New("storage: unknown url mode")
	ErrNoBucket       = errors.New("storage: bucket is required")
	ErrNoEndpoint     = errors.New("storage: endpoint is required")
)

// ObjectStore is the narrow surface the publisher needs from a backend.
type ObjectStore interface {
	// Put uploads the file at localPath and returns the stored size.
	Put(ctx context.Context, bucket, key, localPath string) (int64, error)
	// PresignedGet returns a time-limited download link.
	PresignedGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	// PublicURL returns the deterministic, unsigned link for key.
	PublicURL(bucket, key string) string
	// EnsureBucket creates bucket when it does not exist.
	EnsureBucket(ctx context.Context, bucket string) error
}

// Config selects and configures a backend.
type Config struct {
	Backend   string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
	// ProjectID is required by GCS to create buckets.
	ProjectID       string
	CredentialsFile string
	PublicBaseURL   string
}

// Open builds the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (ObjectStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrNoBucket
	}

	switch strings.ToLower(cfg.Backend) {
	case BackendMinio, "s3":
		return NewMinio(cfg)
	case BackendGCS:
		return NewGCS(ctx, cfg)
	case BackendMemory:
		return NewMemory(cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// ValidateURLMode checks a url mode name.
func ValidateURLMode(mode string) error {
	switch mode {
	case URLModeSigned, URLModeStatic:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownURLMode, mode)
	}
}
