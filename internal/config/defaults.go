package config

import "time"

// EDGAR defaults.
const (
	DefaultUserAgent    = "edgarvault contact@example.com"
	DefaultDataURL      = "https://data.sec.gov"
	DefaultArchivesURL  = "https://www.sec.gov"
	DefaultStagingDir   = "sec-edgar-filings"
	DefaultRateLimit    = 10.0
	DefaultEDGARTimeout = 30 * time.Second
)

// Dataset defaults.
const (
	DefaultDatasetURL    = "https://www.sec.gov/Archives/edgar/cik-lookup-data.txt"
	DefaultDatasetFormat = "cik-lookup"
	DefaultDatasetTTL    = 24 * time.Hour
)

// Search defaults.
const (
	DefaultSearchLimit     = 5
	DefaultSearchCacheSize = 1000
)

// Storage defaults.
const (
	DefaultStorageBackend = "minio"
	DefaultBucket         = "10-k"
	DefaultCategory       = "10-k"
	DefaultURLMode        = "signed"
	DefaultSignedURLTTL   = 7 * 24 * time.Hour
	maxSignedURLTTL       = 7 * 24 * time.Hour
)

// Pipeline defaults.
const (
	DefaultLookupMode = "auto"
	DefaultRetention  = "keep"
	DefaultMinYear    = 1993
	DefaultMaxYear    = 2022
)

// DefaultRemoveElements are stripped from a submission before its body is
// extracted.
var DefaultRemoveElements = []string{"sec-document", "sec-header"}

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)
