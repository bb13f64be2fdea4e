// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DefaultUserAgent identifies the crawler to catalog sites.
const DefaultUserAgent = "catalog-crawler/0.1 (+https://github.com/JakeFAU/catalog-crawler)"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// ScrapeTimeout bounds one POST /v1/scrape request.
	ScrapeTimeout  time.Duration `mapstructure:"scrape_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// CrawlerConfig governs one crawl session.
type CrawlerConfig struct {
	RootURL        string        `mapstructure:"root_url"`
	StartPath      string        `mapstructure:"start_path"`
	UserAgent      string        `mapstructure:"user_agent"`
	MinInterval    time.Duration `mapstructure:"min_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RespectRobots  bool          `mapstructure:"respect_robots"`
	MaxItems       int           `mapstructure:"max_items"`
	MaxPages       int           `mapstructure:"max_pages"`
}

// StoreConfig selects and configures the item store.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	Table       string `mapstructure:"table"`
	MaxConns    int32  `mapstructure:"max_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment. Environment variables use the
// CATALOG_ prefix with dots replaced by underscores (CATALOG_STORE_DSN).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CATALOG")
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

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.scrape_timeout", 5*time.Minute)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("crawler.root_url", catalog.DefaultRootURL)
	v.SetDefault("crawler.start_path", catalog.DefaultStartPath)
	v.SetDefault("crawler.user_agent", DefaultUserAgent)
	v.SetDefault("crawler.min_interval", crawler.DefaultMinInterval)
	v.SetDefault("crawler.request_timeout", 10*time.Second)
	v.SetDefault("crawler.respect_robots", true)
	v.SetDefault("crawler.max_items", 10)
	v.SetDefault("crawler.max_pages", 0)
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", "catalog.db")
	v.SetDefault("store.table", "scraped_items")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.auto_migrate", true)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.ScrapeTimeout < 0 {
		return fmt.Errorf("server.scrape_timeout must be >= 0")
	}
	root, err := url.Parse(c.Crawler.RootURL)
	if err != nil || (root.Scheme != "http" && root.Scheme != "https") || root.Host == "" {
		return fmt.Errorf("crawler.root_url must be an absolute http(s) url")
	}
	if strings.TrimSpace(c.Crawler.UserAgent) == "" {
		return fmt.Errorf("crawler.user_agent is required")
	}
	if c.Crawler.MinInterval < 0 {
		return fmt.Errorf("crawler.min_interval must be >= 0")
	}
	if c.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	if c.Crawler.MaxItems < 0 || c.Crawler.MaxPages < 0 {
		return fmt.Errorf("crawler.max_items and crawler.max_pages must be >= 0")
	}
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s driver", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("store.driver must be one of %s, %s, %s", DriverPostgres, DriverSQLite, DriverMemory)
	}
	return nil
}
