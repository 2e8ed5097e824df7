package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName      = "edgarvault"
	configType      = "yaml"
	envPrefix       = "EDGARVAULT"
	envKeySeparator = "_"
	homeConfigDir   = ".edgarvault"
)

// LoadConfig loads configuration from defaults, the config file and the
// environment. An explicit configPath must exist; otherwise edgarvault.yaml
// is searched in ".", "./config" and "$HOME/.edgarvault", and a missing file
// is not an error. A .env file in the working directory is loaded first
// without overriding variables already set.
func LoadConfig(configPath string) (*Config, error) {
	envErr := godotenv.Load()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", envErr)
	}

	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		_, statErr := os.Stat(configPath)
		if statErr != nil {
			return nil, fmt.Errorf("read config: %w", statErr)
		}

		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(filepath.Join(home, homeConfigDir))
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	viperCfg := viper.New()
	applyDefaults(viperCfg)

	var cfg Config

	_ = viperCfg.Unmarshal(&cfg)

	return &cfg
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("edgar.user_agent", DefaultUserAgent)
	viperCfg.SetDefault("edgar.data_url", DefaultDataURL)
	viperCfg.SetDefault("edgar.archives_url", DefaultArchivesURL)
	viperCfg.SetDefault("edgar.staging_dir", DefaultStagingDir)
	viperCfg.SetDefault("edgar.rate_limit", DefaultRateLimit)
	viperCfg.SetDefault("edgar.timeout", DefaultEDGARTimeout)
	viperCfg.SetDefault("edgar.include_amends", false)

	viperCfg.SetDefault("dataset.url", DefaultDatasetURL)
	viperCfg.SetDefault("dataset.path", "")
	viperCfg.SetDefault("dataset.format", DefaultDatasetFormat)
	viperCfg.SetDefault("dataset.cache_path", defaultCachePath())
	viperCfg.SetDefault("dataset.cache_ttl", DefaultDatasetTTL)

	viperCfg.SetDefault("search.limit", DefaultSearchLimit)
	viperCfg.SetDefault("search.cache_size", DefaultSearchCacheSize)

	viperCfg.SetDefault("storage.backend", DefaultStorageBackend)
	viperCfg.SetDefault("storage.endpoint", "")
	viperCfg.SetDefault("storage.access_key", "")
	viperCfg.SetDefault("storage.secret_key", "")
	viperCfg.SetDefault("storage.bucket", DefaultBucket)
	viperCfg.SetDefault("storage.region", "")
	viperCfg.SetDefault("storage.secure", true)
	viperCfg.SetDefault("storage.category", DefaultCategory)
	viperCfg.SetDefault("storage.url_mode", DefaultURLMode)
	viperCfg.SetDefault("storage.signed_url_ttl", DefaultSignedURLTTL)
	viperCfg.SetDefault("storage.create_bucket", false)
	viperCfg.SetDefault("storage.project_id", "")
	viperCfg.SetDefault("storage.credentials_file", "")
	viperCfg.SetDefault("storage.public_base_url", "")

	viperCfg.SetDefault("pipeline.lookup_mode", DefaultLookupMode)
	viperCfg.SetDefault("pipeline.retention", DefaultRetention)
	viperCfg.SetDefault("pipeline.min_year", DefaultMinYear)
	viperCfg.SetDefault("pipeline.max_year", DefaultMaxYear)
	viperCfg.SetDefault("pipeline.timeout", time.Duration(0))
	viperCfg.SetDefault("pipeline.remove_elements", DefaultRemoveElements)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.metrics_addr", "")
}

// defaultCachePath places the dataset cache under the user cache directory.
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "edgarvault", "company-dataset.lz4")
}
