package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/prospect-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Instagram InstagramConfig `yaml:"instagram" mapstructure:"instagram"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Resolve   ResolveConfig   `yaml:"resolve" mapstructure:"resolve"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Fusion    FusionConfig    `yaml:"fusion" mapstructure:"fusion"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// InstagramConfig configures the seed profile fetch.
type InstagramConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SearchConfig holds Google Custom Search credentials for the
// professional-network lookup fallback.
type SearchConfig struct {
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	EngineID string `yaml:"engine_id" mapstructure:"engine_id"`
}

// ResolveConfig configures link-aggregator resolution.
type ResolveConfig struct {
	MaxLinks int `yaml:"max_links" mapstructure:"max_links"`
}

// CrawlConfig configures the parallel website crawl.
type CrawlConfig struct {
	Workers     int     `yaml:"workers" mapstructure:"workers"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
}

// CacheConfig configures the persisted source cache.
type CacheConfig struct {
	TTLHours int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// FusionConfig points at an optional field-precedence override file.
type FusionConfig struct {
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentHandles int `yaml:"max_concurrent_handles" mapstructure:"max_concurrent_handles"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "prospect.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_handles", 5)
	v.SetDefault("resolve.max_links", 20)
	v.SetDefault("crawl.workers", 4)
	v.SetDefault("crawl.timeout_secs", 10)
	v.SetDefault("crawl.rps", 0)
	v.SetDefault("cache.ttl_hours", 168)

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
