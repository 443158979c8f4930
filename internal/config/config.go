package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Columns  ColumnsConfig  `yaml:"columns" mapstructure:"columns"`
	Coverage CoverageConfig `yaml:"coverage" mapstructure:"coverage"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	S3       S3Config       `yaml:"s3" mapstructure:"s3"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the two input datasets. URIs may be local paths or
// http(s), ftp and s3 URLs.
type DataConfig struct {
	Workshops       string `yaml:"workshops" mapstructure:"workshops"`
	Demand          string `yaml:"demand" mapstructure:"demand"`
	WorkshopsSheet  string `yaml:"workshops_sheet" mapstructure:"workshops_sheet"`
	DemandSheet     string `yaml:"demand_sheet" mapstructure:"demand_sheet"`
	Delimiter       string `yaml:"delimiter" mapstructure:"delimiter"`
	TempDir         string `yaml:"temp_dir" mapstructure:"temp_dir"`
	Watch           bool   `yaml:"watch" mapstructure:"watch"`
	WatchDebounceMS int    `yaml:"watch_debounce_ms" mapstructure:"watch_debounce_ms"`
}

// ColumnsConfig configures header resolution.
type ColumnsConfig struct {
	AliasesFile string `yaml:"aliases_file" mapstructure:"aliases_file"`
}

// CoverageConfig configures radius limits, indexing and result caching.
type CoverageConfig struct {
	DefaultRadiusKM float64 `yaml:"default_radius_km" mapstructure:"default_radius_km"`
	MaxRadiusKM     float64 `yaml:"max_radius_km" mapstructure:"max_radius_km"`
	Index           string  `yaml:"index" mapstructure:"index"`
	BubbleMinM      float64 `yaml:"bubble_min_m" mapstructure:"bubble_min_m"`
	BubbleExtraM    float64 `yaml:"bubble_extra_m" mapstructure:"bubble_extra_m"`
	CacheEntries    int     `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLSecs    int     `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
}

// CacheTTL returns the result cache TTL as a duration.
func (c CoverageConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}

// FetchConfig configures remote downloads.
type FetchConfig struct {
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	UserAgent        string  `yaml:"user_agent" mapstructure:"user_agent"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// S3Config holds S3-compatible object storage credentials.
type S3Config struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
	Region    string `yaml:"region" mapstructure:"region"`
}

// Enabled reports whether enough is configured to build a client.
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RatePerSec         float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst              int      `yaml:"burst" mapstructure:"burst"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COVERAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.workshops", "")
	v.SetDefault("data.demand", "")
	v.SetDefault("data.workshops_sheet", "")
	v.SetDefault("data.demand_sheet", "")
	v.SetDefault("data.delimiter", "")
	v.SetDefault("data.temp_dir", "/tmp/coverage")
	v.SetDefault("data.watch", false)
	v.SetDefault("data.watch_debounce_ms", 500)
	v.SetDefault("columns.aliases_file", "")
	v.SetDefault("coverage.default_radius_km", 5.0)
	v.SetDefault("coverage.max_radius_km", 20.0)
	v.SetDefault("coverage.index", "rtree")
	v.SetDefault("coverage.bubble_min_m", 200.0)
	v.SetDefault("coverage.bubble_extra_m", 8000.0)
	v.SetDefault("coverage.cache_entries", 256)
	v.SetDefault("coverage.cache_ttl_secs", 600)
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 5.0)
	v.SetDefault("fetch.user_agent", "coverage-cli/1.0")
	v.SetDefault("fetch.breaker_threshold", 5)
	v.SetDefault("fetch.breaker_reset_secs", 60)
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.region", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_per_sec", 20.0)
	v.SetDefault("server.burst", 40)
	v.SetDefault("server.request_timeout_secs", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "analyze"
// (any command that computes coverage), "serve" and "export".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "analyze", "serve", "export":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Data.Workshops == "" {
		errs = append(errs, "data.workshops is required")
	}
	if c.Data.Demand == "" {
		errs = append(errs, "data.demand is required")
	}
	if c.Coverage.MaxRadiusKM <= 0 {
		errs = append(errs, "coverage.max_radius_km must be > 0")
	}
	if c.Coverage.DefaultRadiusKM < 0 || c.Coverage.DefaultRadiusKM > c.Coverage.MaxRadiusKM {
		errs = append(errs, fmt.Sprintf("coverage.default_radius_km must be between 0 and %g", c.Coverage.MaxRadiusKM))
	}
	switch c.Coverage.Index {
	case "rtree", "linear":
	default:
		errs = append(errs, fmt.Sprintf("coverage.index must be rtree or linear, got %q", c.Coverage.Index))
	}
	if c.Coverage.BubbleMinM < 0 || c.Coverage.BubbleExtraM < 0 {
		errs = append(errs, "coverage bubble sizes must be >= 0")
	}
	if d := c.Data.Delimiter; d != `\t` && len([]rune(d)) > 1 {
		errs = append(errs, "data.delimiter must be a single character")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RatePerSec <= 0 || c.Server.Burst <= 0 {
			errs = append(errs, "server.rate_per_sec and server.burst must be > 0")
		}
		if c.Coverage.CacheEntries < 1 {
			errs = append(errs, "coverage.cache_entries must be >= 1")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DelimiterRune returns the configured CSV delimiter, or 0 for the default.
func (d DataConfig) DelimiterRune() rune {
	if d.Delimiter == "" {
		return 0
	}
	if d.Delimiter == `\t` {
		return '\t'
	}
	return []rune(d.Delimiter)[0]
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
