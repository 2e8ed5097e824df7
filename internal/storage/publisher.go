package storage

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// DefaultCategory is the top-level key segment for annual reports.
const DefaultCategory = "10-k"

// Ref identifies what a local file is.
type Ref struct {
	Category    string
	CompanyName string
	CIK         string
	Year        int
	// Filename is the last key segment after the cik and year.
	Filename string
}

// Artifact describes a published object.
type Artifact struct {
	Key       string `json:"key"        yaml:"key"`
	URL       string `json:"url"        yaml:"url"`
	Size      int64  `json:"size"       yaml:"size"`
	LocalPath string `json:"local_path" yaml:"local_path"`
}

// Publisher uploads files under composite keys and returns their links.
type Publisher struct {
	store   ObjectStore
	bucket  string
	urlMode string
	ttl     time.Duration
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithURLMode selects signed or static links.
func WithURLMode(mode string) PublisherOption {
	return func(p *Publisher) {
		p.urlMode = mode
	}
}

// WithSignedURLTTL sets the presigned link lifetime.
func WithSignedURLTTL(ttl time.Duration) PublisherOption {
	return func(p *Publisher) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// NewPublisher returns a Publisher writing to bucket.
func NewPublisher(store ObjectStore, bucket string, opts ...PublisherOption) (*Publisher, error) {
	if bucket == "" {
		return nil, ErrNoBucket
	}

	p := &Publisher{store: store, bucket: bucket, urlMode: URLModeSigned, ttl: DefaultSignedURLTTL}
	for _, opt := range opts {
		opt(p)
	}

	modeErr := ValidateURLMode(p.urlMode)
	if modeErr != nil {
		return nil, modeErr
	}

	return p, nil
}

// Bucket returns the destination bucket.
func (p *Publisher) Bucket() string {
	return p.bucket
}

// EnsureBucket creates the destination bucket when missing.
func (p *Publisher) EnsureBucket(ctx context.Context) error {
	return p.store.EnsureBucket(ctx, p.bucket)
}

// Publish copies localPath to the store under Key(ref). The local file is
// left in place.
func (p *Publisher) Publish(ctx context.Context, localPath string, ref Ref) (Artifact, error) {
	if ref.Filename == "" {
		ref.Filename = path.Base(strings.ReplaceAll(localPath, "\\", "/"))
	}

	key := Key(ref)

	size, err := p.store.Put(ctx, p.bucket, key, localPath)
	if err != nil {
		return Artifact{}, err
	}

	link, err := p.link(ctx, key)
	if err != nil {
		return Artifact{}, err
	}

	return Artifact{Key: key, URL: link, Size: size, LocalPath: localPath}, nil
}

func (p *Publisher) link(ctx context.Context, key string) (string, error) {
	if p.urlMode == URLModeStatic {
		return p.store.PublicURL(p.bucket, key), nil
	}

	signed, err := p.store.PresignedGet(ctx, p.bucket, key, p.ttl)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	return signed, nil
}

// Key builds <category>/<Company_Name>/<year>/<cik>_<year>_<filename>.
func Key(ref Ref) string {
	category := ref.Category
	if category == "" {
		category = DefaultCategory
	}

	year := strconv.Itoa(ref.Year)

	return strings.Join([]string{
		category,
		SafeName(ref.CompanyName),
		year,
		ref.CIK + "_" + year + "_" + ref.Filename,
	}, "/")
}

// SafeName turns a company name into a single path segment: spaces and
// slashes become underscores.
func SafeName(name string) string {
	return strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(strings.TrimSpace(name))
}
