// Package config loads and validates enricher configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIKeyEnv is the fallback environment variable holding the model API key.
const APIKeyEnv = "GEMINI_API_KEY"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Run        RunConfig        `mapstructure:"run"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Extractor  ExtractorConfig  `mapstructure:"extractor"`
	Roster     RosterConfig     `mapstructure:"roster"`
	DB         DBConfig         `mapstructure:"db"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// RunConfig governs batching, pacing, and retries.
type RunConfig struct {
	BatchSize  int           `mapstructure:"batch_size"`
	RateWindow time.Duration `mapstructure:"rate_window"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// FetchConfig configures the content fetcher.
type FetchConfig struct {
	Mode            string        `mapstructure:"mode"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RespectRobots   bool          `mapstructure:"respect_robots"`
	HeadlessTimeout time.Duration `mapstructure:"headless_timeout"`
}

// ExtractorConfig configures the model backend and prompt assembly.
type ExtractorConfig struct {
	Backend         string        `mapstructure:"backend"`
	Model           string        `mapstructure:"model"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxContentChars int           `mapstructure:"max_content_chars"`
	StripHTML       bool          `mapstructure:"strip_html"`
	APIKey          string        `mapstructure:"api_key"`
}

// RosterConfig selects where the company list comes from.
type RosterConfig struct {
	Provider  string          `mapstructure:"provider"`
	Table     string          `mapstructure:"table"`
	Companies []CompanyConfig `mapstructure:"companies"`
}

// CompanyConfig is one inline roster entry.
type CompanyConfig struct {
	ID      int64  `mapstructure:"id"`
	Website string `mapstructure:"website"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	SummaryTable string `mapstructure:"summary_table"`
	MaxConns     int32  `mapstructure:"max_conns"`
}

// CheckpointConfig selects the checkpoint backend.
type CheckpointConfig struct {
	Provider  string `mapstructure:"provider"`
	Path      string `mapstructure:"path"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSObject string `mapstructure:"gcs_object"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the optional status server. Port 0 disables it.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENRICHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Extractor.APIKey == "" {
		cfg.Extractor.APIKey = os.Getenv(APIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("run.batch_size", 13)
	v.SetDefault("run.rate_window", "60s")
	v.SetDefault("run.max_retries", 0)
	v.SetDefault("run.retry_delay", "2s")
	v.SetDefault("fetch.mode", "colly")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0")
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("fetch.headless_timeout", "45s")
	v.SetDefault("extractor.backend", "rest")
	v.SetDefault("extractor.model", "gemini-2.5-flash")
	v.SetDefault("extractor.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("extractor.timeout", "100s")
	v.SetDefault("extractor.max_content_chars", 5000)
	v.SetDefault("extractor.strip_html", false)
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("roster.provider", "postgres")
	v.SetDefault("roster.table", "companies")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.summary_table", "summary")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("checkpoint.provider", "file")
	v.SetDefault("checkpoint.path", "last_processed_batch.txt")
	v.SetDefault("checkpoint.gcs_bucket", "")
	v.SetDefault("checkpoint.gcs_object", "enricher/last_processed_batch.txt")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("server.port", 0)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Run.BatchSize <= 0 {
		return fmt.Errorf("run.batch_size must be > 0")
	}
	if c.Run.RateWindow < 0 {
		return fmt.Errorf("run.rate_window must be >= 0")
	}
	if c.Run.MaxRetries < 0 {
		return fmt.Errorf("run.max_retries must be >= 0")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	switch c.Fetch.Mode {
	case "colly":
	case "headless":
		if c.Fetch.HeadlessTimeout <= 0 {
			return fmt.Errorf("fetch.headless_timeout must be > 0 when fetch.mode is headless")
		}
	default:
		return fmt.Errorf("fetch.mode %q is not supported", c.Fetch.Mode)
	}
	if c.Extractor.APIKey == "" {
		return fmt.Errorf("extractor.api_key or %s must be set", APIKeyEnv)
	}
	switch c.Extractor.Backend {
	case "rest", "genai":
	default:
		return fmt.Errorf("extractor.backend %q is not supported", c.Extractor.Backend)
	}
	if c.Extractor.MaxContentChars <= 0 {
		return fmt.Errorf("extractor.max_content_chars must be > 0")
	}
	switch c.Roster.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when roster.provider is postgres")
		}
	case "static", "memory":
	default:
		return fmt.Errorf("roster.provider %q is not supported", c.Roster.Provider)
	}
	switch c.Checkpoint.Provider {
	case "file":
		if c.Checkpoint.Path == "" {
			return fmt.Errorf("checkpoint.path must be set when checkpoint.provider is file")
		}
	case "gcs":
		if c.Checkpoint.GCSBucket == "" || c.Checkpoint.GCSObject == "" {
			return fmt.Errorf("checkpoint.gcs_bucket and checkpoint.gcs_object must be set when checkpoint.provider is gcs")
		}
	default:
		return fmt.Errorf("checkpoint.provider %q is not supported", c.Checkpoint.Provider)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	if c.Server.Port < 0 {
		return fmt.Errorf("server.port must be >= 0")
	}
	return nil
}

// UsesDatabase reports whether any component needs a Postgres pool.
func (c Config) UsesDatabase() bool {
	return c.DB.DSN != ""
}
