package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// maxDatasetBytes bounds a downloaded reference dataset.
const maxDatasetBytes = 256 << 20

// defaultLoadTimeout applies when Source.Timeout is zero.
const defaultLoadTimeout = 60 * time.Second

// ErrNoSource is returned when neither a URL nor a path is configured.
var ErrNoSource = errors.New("dataset source has neither url nor path")

// Source describes where the reference dataset comes from.
type Source struct {
	// URL is fetched over HTTP when Path is empty.
	URL string
	// Path is a local copy of the dataset. It takes precedence over URL.
	Path   string
	Format Format
	// UserAgent is sent on every request; SEC rejects anonymous clients.
	UserAgent string
	// CachePath enables the LZ4 on-disk cache for URL sources.
	CachePath string
	CacheTTL  time.Duration
	Timeout   time.Duration
	Client    *http.Client
	Logger    *slog.Logger
}

// Load reads, parses and indexes the dataset. A failure here is fatal to
// startup; callers should not retry.
func Load(ctx context.Context, src Source) (*Directory, error) {
	raw, err := loadRaw(ctx, src)
	if err != nil {
		return nil, err
	}

	records, parseErr := Parse(src.Format, raw)
	if parseErr != nil {
		return nil, fmt.Errorf("parse %s dataset: %w", src.Format, parseErr)
	}

	dir := New(records)
	if dir.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	logger(src).InfoContext(ctx, "company directory loaded",
		"format", string(src.Format), "records", len(records), "names", dir.Len())

	return dir, nil
}

func loadRaw(ctx context.Context, src Source) ([]byte, error) {
	switch {
	case src.Path != "":
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("read dataset %s: %w", src.Path, err)
		}

		return data, nil
	case src.URL != "":
		return loadRemote(ctx, src)
	default:
		return nil, ErrNoSource
	}
}

func loadRemote(ctx context.Context, src Source) ([]byte, error) {
	var cache *Cache
	if src.CachePath != "" {
		cache = NewCache(src.CachePath, SourceKey(src.URL, src.Format), src.CacheTTL)

		data, err := cache.Read()
		if err == nil {
			logger(src).DebugContext(ctx, "dataset served from cache", "path", cache.Path())

			return data, nil
		}

		if !errors.Is(err, ErrCacheStale) {
			logger(src).WarnContext(ctx, "dataset cache unreadable", "path", cache.Path(), "error", err)
		}
	}

	data, err := download(ctx, src)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		writeErr := cache.Write(data)
		if writeErr != nil {
			logger(src).WarnContext(ctx, "dataset cache not written", "path", cache.Path(), "error", writeErr)
		}
	}

	return data, nil
}

func download(ctx context.Context, src Source) ([]byte, error) {
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}

	if src.UserAgent != "" {
		req.Header.Set("User-Agent", src.UserAgent)
	}

	client := src.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dataset %s: unexpected status %d", src.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDatasetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read dataset body: %w", err)
	}

	if len(data) > maxDatasetBytes {
		return nil, fmt.Errorf("dataset %s exceeds %d bytes", src.URL, maxDatasetBytes)
	}

	return data, nil
}

func logger(src Source) *slog.Logger {
	if src.Logger != nil {
		return src.Logger
	}

	return slog.Default()
}
