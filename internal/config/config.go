package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultCollection is the content-addressed collection document shipped next to the binary.
const DefaultCollection = "collections/BUjZjAS2vbbb65g7Z1Ca9ZRVYoJscURG5L3AkVvHP9ac.json"

// DefaultExportLabel precedes every exported mint list.
const DefaultExportLabel = "Here's the set of mint addresses to be hosted on arweave:"

// Config holds application configuration.
type Config struct {
	Collection CollectionConfig `mapstructure:"collection"`
	Export     ExportConfig     `mapstructure:"export"`
	UI         UIConfig         `mapstructure:"ui"`
	Server     ServerConfig     `mapstructure:"server"`
	Scrape     ScrapeConfig     `mapstructure:"scrape"`
	Log        LogConfig        `mapstructure:"log"`
}

// CollectionConfig says where the token dataset comes from.
type CollectionConfig struct {
	Source  string        `mapstructure:"source"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ExportConfig holds export action settings.
type ExportConfig struct {
	Label     string `mapstructure:"label"`
	Clipboard bool   `mapstructure:"clipboard"`
}

// UIConfig holds presentation settings shared by both front ends.
type UIConfig struct {
	PageSize       int `mapstructure:"page_size"`
	MaxColumnWidth int `mapstructure:"max_column_width"`
	FuzzyDistance  int `mapstructure:"fuzzy_distance"`
}

// ServerConfig holds settings for the HTML front end.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// AllowedOrigins may read the JSON API cross-origin. Empty means only the
	// server's own address.
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	OpenBrowser     bool          `mapstructure:"open_browser"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ScrapeConfig holds settings for building a collection document from chain data.
type ScrapeConfig struct {
	RPCURL      string        `mapstructure:"rpc_url"`
	OutDir      string        `mapstructure:"out_dir"`
	Concurrency int           `mapstructure:"concurrency"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LogConfig holds log file settings.
type LogConfig struct {
	Path       string `mapstructure:"path"`
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from file and env. Env var overrides use prefix MINTPICK_.
// A path passed explicitly wins over MINTPICK_CONFIG.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("collection.source", DefaultCollection)
	v.SetDefault("collection.timeout", "30s")
	v.SetDefault("export.label", DefaultExportLabel)
	v.SetDefault("export.clipboard", false)
	v.SetDefault("ui.page_size", 50)
	v.SetDefault("ui.max_column_width", 28)
	v.SetDefault("ui.fuzzy_distance", 1)
	v.SetDefault("server.addr", "127.0.0.1:8421")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.open_browser", false)
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("scrape.rpc_url", "")
	v.SetDefault("scrape.out_dir", "collections")
	v.SetDefault("scrape.concurrency", 64)
	v.SetDefault("scrape.max_retries", 8)
	v.SetDefault("scrape.retry_delay", "500ms")
	v.SetDefault("scrape.timeout", "30s")
	v.SetDefault("log.path", filepath.Join(os.Getenv("HOME"), ".local", "state", "mintpick", "mintpick.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetConfigType("toml")

	cfgPath := path
	if cfgPath == "" {
		cfgPath = os.Getenv("MINTPICK_CONFIG")
	}
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "mintpick"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MINTPICK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// an explicitly named file must exist; the default location is optional
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.UI.PageSize <= 0 {
		c.UI.PageSize = 50
	}
	if c.UI.FuzzyDistance < 0 {
		c.UI.FuzzyDistance = 0
	}
	if c.Scrape.Concurrency <= 0 {
		c.Scrape.Concurrency = 1
	}
	return c, nil
}
