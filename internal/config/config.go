package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Solar   SolarConfig   `yaml:"solar" mapstructure:"solar"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Sizing  SizingConfig  `yaml:"sizing" mapstructure:"sizing"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Circuit CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SolarConfig holds Google Solar API settings.
type SolarConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	RequiredQuality string  `yaml:"required_quality" mapstructure:"required_quality"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// GeocodeConfig holds Google Geocoding API settings.
type GeocodeConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// APIKey returns the geocoding key, falling back to the Solar key since both
// are usually the same Google Maps Platform key.
func (g GeocodeConfig) APIKey(solar SolarConfig) string {
	if g.Key != "" {
		return g.Key
	}
	return solar.Key
}

// SizingConfig configures panel configuration recalculation.
type SizingConfig struct {
	DedupeCounts bool `yaml:"dedupe_counts" mapstructure:"dedupe_counts"`
}

// CatalogConfig locates the panel catalog. An empty path uses the built-in one.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CircuitConfig configures the upstream circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ReadTimeoutSecs  int      `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int      `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
	MaxBodyBytes     int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// BatchConfig configures batch sizing runs.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SOLARCRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("solar.key", "SOLARCRM_SOLAR_KEY", "GOOGLE_SOLAR_API_KEY")
	_ = v.BindEnv("geocode.key", "SOLARCRM_GEOCODE_KEY", "GOOGLE_MAPS_API_KEY")

	// Defaults
	v.SetDefault("solar.base_url", "https://solar.googleapis.com/v1")
	v.SetDefault("solar.required_quality", "HIGH")
	v.SetDefault("solar.timeout_secs", 30)
	v.SetDefault("solar.rate_limit", 10)
	v.SetDefault("geocode.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocode.timeout_secs", 15)
	v.SetDefault("geocode.rate_limit", 25)
	v.SetDefault("sizing.dedupe_counts", false)
	v.SetDefault("catalog.path", "")
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout_secs", 15)
	v.SetDefault("server.write_timeout_secs", 60)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("batch.concurrency", 4)
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
