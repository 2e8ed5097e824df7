// Package config loads edgarvault settings from defaults, an optional YAML
// file, a .env file and EDGARVAULT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Sentinel validation errors.
var (
	ErrNoDatasetSource = errors.New("dataset needs a url or a path")
	ErrYearRange       = errors.New("pipeline min_year is after max_year")
	ErrSignedURLTTL    = errors.New("signed url ttl must be between 1s and 7 days")
	ErrFieldValidation = errors.New("invalid field")
)

// Config holds all edgarvault configuration.
type Config struct {
	EDGAR     EDGARConfig     `mapstructure:"edgar"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Search    SearchConfig    `mapstructure:"search"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// EDGARConfig configures the filing download client.
type EDGARConfig struct {
	// UserAgent must identify the operator; SEC blocks anonymous clients.
	UserAgent     string        `mapstructure:"user_agent"     validate:"required"`
	DataURL       string        `mapstructure:"data_url"       validate:"required,url"`
	ArchivesURL   string        `mapstructure:"archives_url"   validate:"required,url"`
	StagingDir    string        `mapstructure:"staging_dir"    validate:"required"`
	RateLimit     float64       `mapstructure:"rate_limit"     validate:"gt=0,lte=10"`
	Timeout       time.Duration `mapstructure:"timeout"        validate:"gt=0"`
	IncludeAmends bool          `mapstructure:"include_amends"`
}

// DatasetConfig locates the company reference dataset.
type DatasetConfig struct {
	URL       string        `mapstructure:"url"        validate:"omitempty,url"`
	Path      string        `mapstructure:"path"`
	Format    string        `mapstructure:"format"     validate:"oneof=cik-lookup tickers"`
	CachePath string        `mapstructure:"cache_path"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"  validate:"gte=0"`
}

// SearchConfig tunes the fuzzy matcher.
type SearchConfig struct {
	Limit     int `mapstructure:"limit"      validate:"min=1,max=50"`
	CacheSize int `mapstructure:"cache_size" validate:"min=1"`
}

// StorageConfig selects the object store. Backend credentials are checked
// when the store is opened, so commands that never upload run without them.
type StorageConfig struct {
	Backend         string        `mapstructure:"backend"          validate:"oneof=minio s3 gcs memory"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKey       string        `mapstructure:"access_key"`
	SecretKey       string        `mapstructure:"secret_key"`
	Bucket          string        `mapstructure:"bucket"           validate:"required"`
	Region          string        `mapstructure:"region"`
	Secure          bool          `mapstructure:"secure"`
	Category        string        `mapstructure:"category"         validate:"required"`
	URLMode         string        `mapstructure:"url_mode"         validate:"oneof=signed static"`
	SignedURLTTL    time.Duration `mapstructure:"signed_url_ttl"`
	CreateBucket    bool          `mapstructure:"create_bucket"`
	ProjectID       string        `mapstructure:"project_id"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	PublicBaseURL   string        `mapstructure:"public_base_url"  validate:"omitempty,url"`
}

// PipelineConfig controls a fetch run.
type PipelineConfig struct {
	LookupMode     string        `mapstructure:"lookup_mode"     validate:"oneof=auto name identifier"`
	Retention      string        `mapstructure:"retention"       validate:"oneof=keep delete"`
	MinYear        int           `mapstructure:"min_year"        validate:"min=1993"`
	MaxYear        int           `mapstructure:"max_year"        validate:"min=1993"`
	Timeout        time.Duration `mapstructure:"timeout"         validate:"gte=0"`
	RemoveElements []string      `mapstructure:"remove_elements"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// TelemetryConfig holds OpenTelemetry and Prometheus configuration.
type TelemetryConfig struct {
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"  validate:"gte=0,lte=1"`
	MetricsAddr  string  `mapstructure:"metrics_addr"  validate:"omitempty,hostname_port"`
}

// Validate checks struct tags, then the cross-field rules.
func (c *Config) Validate() error {
	structErr := validator.New().Struct(c)
	if structErr != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(structErr, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]

			return fmt.Errorf("%w: %s failed %q (value %v)", ErrFieldValidation, fe.Namespace(), fe.Tag(), fe.Value())
		}

		return fmt.Errorf("validate config: %w", structErr)
	}

	if c.Dataset.URL == "" && c.Dataset.Path == "" {
		return ErrNoDatasetSource
	}

	if c.Pipeline.MinYear > c.Pipeline.MaxYear {
		return fmt.Errorf("%w: %d > %d", ErrYearRange, c.Pipeline.MinYear, c.Pipeline.MaxYear)
	}

	if c.Storage.SignedURLTTL < time.Second || c.Storage.SignedURLTTL > maxSignedURLTTL {
		return fmt.Errorf("%w: %s", ErrSignedURLTTL, c.Storage.SignedURLTTL)
	}

	return nil
}
