// Package edgar downloads annual filings from SEC EDGAR into a local
// staging area, laid out as <staging>/<cik>/<form>/<accession>/full-submission.txt.
package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Sumatoshi-tech/edgarvault/internal/directory"
)

// Default endpoints and limits.
const (
	DefaultDataURL     = "https://data.sec.gov"
	DefaultArchivesURL = "https://www.sec.gov"
	// DefaultRateLimit is the SEC fair-access ceiling in requests per second.
	DefaultRateLimit = 10
	DefaultTimeout   = 30 * time.Second

	// SubmissionFile is the name given to every downloaded filing.
	SubmissionFile = "full-submission.txt"

	// DefaultMaxDocumentBytes caps a single submission download.
	DefaultMaxDocumentBytes = 512 << 20
)

// Downloader fetches filings of one form for a company filed within an
// inclusive date range and reports how many it saved.
type Downloader interface {
	Get(ctx context.Context, form, cik string, after, before time.Time) (int, error)
}

// Config configures a Client.
type Config struct {
	DataURL       string
	ArchivesURL   string
	UserAgent     string
	StagingDir    string
	RateLimit     float64
	Timeout       time.Duration
	IncludeAmends bool
	// Limit caps saved filings per call; zero saves all.
	Limit int
	// MaxDocumentBytes rejects larger submissions; zero means
	// DefaultMaxDocumentBytes.
	MaxDocumentBytes int64
}

// Client talks to the submissions API and the Archives.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.UserAgent) == "" {
		return nil, ErrUserAgent
	}

	if cfg.StagingDir == "" {
		return nil, ErrStagingDir
	}

	if cfg.RateLimit < 0 {
		return nil, ErrRateLimit
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = DefaultMaxDocumentBytes
	}

	if cfg.DataURL == "" {
		cfg.DataURL = DefaultDataURL
	}

	if cfg.ArchivesURL == "" {
		cfg.ArchivesURL = DefaultArchivesURL
	}

	cfg.DataURL = strings.TrimRight(cfg.DataURL, "/")
	cfg.ArchivesURL = strings.TrimRight(cfg.ArchivesURL, "/")

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// CompanyDir returns the staging folder filings for cik are written to.
func (c *Client) CompanyDir(cik string) string {
	return filepath.Join(c.cfg.StagingDir, cik)
}

// Get implements Downloader. No folder is created when nothing matches, and
// a company unknown to EDGAR is reported as zero filings.
func (c *Client) Get(ctx context.Context, form, cik string, after, before time.Time) (int, error) {
	canonical, ok := directory.CanonicalCIK(cik)
	if !ok {
		return 0, fmt.Errorf("edgar: %w: %q", directory.ErrInvalidIdentifier, cik)
	}

	if after.After(before) {
		return 0, ErrDateRange
	}

	filings, err := c.Filings(ctx, canonical, form, after, before)
	if err != nil {
		return 0, err
	}

	saved := 0

	for _, f := range filings {
		if c.cfg.Limit > 0 && saved >= c.cfg.Limit {
			break
		}

		downloadErr := c.download(ctx, canonical, form, f)
		if downloadErr != nil {
			return saved, downloadErr
		}

		saved++
	}

	c.logger.DebugContext(ctx, "edgar filings saved",
		"cik", canonical, "form", form, "matched", len(filings), "saved", saved)

	return saved, nil
}

// Filings lists filings of form filed within [after, before], newest first,
// across the recent block and every older page that overlaps the range.
func (c *Client) Filings(ctx context.Context, cik, form string, after, before time.Time) ([]Filing, error) {
	var doc submissions

	found, err := c.getJSON(ctx, fmt.Sprintf("%s/submissions/CIK%s.json", c.cfg.DataURL, cik), &doc)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	rows := doc.Filings.Recent.rows()

	for _, page := range doc.Filings.Files {
		if !page.overlaps(after, before) {
			continue
		}

		var cols filingColumns

		pageFound, pageErr := c.getJSON(ctx, fmt.Sprintf("%s/submissions/%s", c.cfg.DataURL, page.Name), &cols)
		if pageErr != nil {
			return nil, pageErr
		}

		if pageFound {
			rows = append(rows, cols.rows()...)
		}
	}

	out := make([]Filing, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, f := range rows {
		if !c.formMatches(form, f.Form) || f.FilingDate.Before(after) || f.FilingDate.After(before) {
			continue
		}

		if _, dup := seen[f.AccessionNumber]; dup {
			continue
		}

		seen[f.AccessionNumber] = struct{}{}
		out = append(out, f)
	}

	return out, nil
}

func (c *Client) formMatches(want, got string) bool {
	if got == want {
		return true
	}

	return c.cfg.IncludeAmends && got == want+"/A"
}

// getJSON decodes url into v. A 404 returns found=false with no error.
func (c *Client) getJSON(ctx context.Context, url string, v any) (bool, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return false, nil
		}

		return false, err
	}
	defer resp.Body.Close()

	decodeErr := json.NewDecoder(resp.Body).Decode(v)
	if decodeErr != nil {
		return false, fmt.Errorf("edgar: decode %s: %w", url, decodeErr)
	}

	return true, nil
}

func (c *Client) download(ctx context.Context, cik, form string, f Filing) error {
	accNoDashes := strings.ReplaceAll(f.AccessionNumber, "-", "")
	url := fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s.txt",
		c.cfg.ArchivesURL, strings.TrimLeft(cik, "0"), accNoDashes, f.AccessionNumber)

	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dir := filepath.Join(c.CompanyDir(cik), formDir(form), f.AccessionNumber)

	mkdirErr := os.MkdirAll(dir, 0o750)
	if mkdirErr != nil {
		return fmt.Errorf("edgar: create %s: %w", dir, mkdirErr)
	}

	target := filepath.Join(dir, SubmissionFile)
	tmp := target + ".part"

	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("edgar: create %s: %w", tmp, err)
	}

	written, copyErr := io.Copy(out, io.LimitReader(resp.Body, c.cfg.MaxDocumentBytes+1))
	closeErr := out.Close()

	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("edgar: write %s: %w", target, errors.Join(copyErr, closeErr))
	}

	if written > c.cfg.MaxDocumentBytes {
		_ = os.Remove(tmp)

		return fmt.Errorf("%w: %s exceeds %d bytes", ErrDocumentTooLarge, url, c.cfg.MaxDocumentBytes)
	}

	renameErr := os.Rename(tmp, target)
	if renameErr != nil {
		return fmt.Errorf("edgar: install %s: %w", target, renameErr)
	}

	return nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	waitErr := c.limiter.Wait(ctx)
	if waitErr != nil {
		return nil, fmt.Errorf("edgar: rate limiter: %w", waitErr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("edgar: build request: %w", err)
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edgar: GET %s: %w", url, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// formDir maps a form type to a path segment.
func formDir(form string) string {
	return strings.ReplaceAll(form, "/", "-")
}
