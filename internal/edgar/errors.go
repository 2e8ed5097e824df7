package edgar

import (
	"errors"
	"fmt"
)

// Configuration errors.
var (
	ErrUserAgent  = errors.New("edgar: user agent is required by SEC fair-access rules")
	ErrStagingDir = errors.New("edgar: staging directory is required")
	ErrRateLimit  = errors.New("edgar: rate limit must be positive")
	ErrDateRange  = errors.New("edgar: after is later than before")
)

// ErrDocumentTooLarge reports a submission over the configured size cap.
var ErrDocumentTooLarge = errors.New("edgar: document too large")

// HTTPError is a non-2xx response from EDGAR.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("edgar: GET %s: status %d", e.URL, e.StatusCode)
}
