package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all user-facing configuration for overo.
type Config struct {
	Data   DataConfig   `toml:"data"`
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Admin  AdminConfig  `toml:"admin"`
	Media  MediaConfig  `toml:"media"`
	Scrape ScrapeConfig `toml:"scrape"`
}

type DataConfig struct {
	Dir string `toml:"dir"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StoreConfig selects the database. With the duckdb driver an empty DSN
// means a file inside the data directory.
type StoreConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// AdminConfig holds the single admin account. PasswordHash is a bcrypt hash
// as printed by `overo hash-password`.
type AdminConfig struct {
	Email        string        `toml:"email"`
	PasswordHash string        `toml:"password_hash"`
	SessionTTL   time.Duration `toml:"session_ttl"`
	LoginRate    float64       `toml:"login_rate"`
}

type MediaConfig struct {
	UploadDir     string `toml:"upload_dir"`
	MaxUploadMB   int    `toml:"max_upload_mb"`
	VariantWidths []int  `toml:"variant_widths"`
	Quality       int    `toml:"quality"`
}

type ScrapeConfig struct {
	RateLimit float64       `toml:"rate_limit"`
	UserAgent string        `toml:"user_agent"`
	Timeout   time.Duration `toml:"timeout"`
}

// Defaults returns a Config populated with built-in default values.
func Defaults() *Config {
	return &Config{
		Data:   DataConfig{Dir: "data"},
		Server: ServerConfig{Host: "localhost", Port: 8080},
		Store:  StoreConfig{Driver: "duckdb"},
		Admin:  AdminConfig{Email: "admin@example.com", SessionTTL: 12 * time.Hour, LoginRate: 0.5},
		Media:  MediaConfig{MaxUploadMB: 20, VariantWidths: []int{480, 960, 1600}, Quality: 85},
		Scrape: ScrapeConfig{RateLimit: 1.0, UserAgent: "overo/1.0", Timeout: 15 * time.Second},
	}
}

// Load reads a TOML config file. If the file does not exist, built-in
// defaults are returned without error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "duckdb":
	case "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not duckdb or postgres", c.Store.Driver))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if len(c.Media.VariantWidths) == 0 {
		errs = append(errs, errors.New("media.variant_widths is empty"))
	}
	for _, w := range c.Media.VariantWidths {
		if w <= 0 {
			errs = append(errs, fmt.Errorf("media.variant_widths has non-positive width %d", w))
		}
	}
	if c.Media.Quality < 1 || c.Media.Quality > 100 {
		errs = append(errs, fmt.Errorf("media.quality %d is not in 1..100", c.Media.Quality))
	}
	if c.Admin.SessionTTL <= 0 {
		errs = append(errs, errors.New("admin.session_ttl must be positive"))
	}
	return errors.Join(errs...)
}

// UploadDir returns where uploaded look images live.
func (c *Config) UploadDir() string {
	if c.Media.UploadDir != "" {
		return c.Media.UploadDir
	}
	return filepath.Join(c.Data.Dir, "uploads")
}

// StoreDSN returns the DSN for the configured driver.
func (c *Config) StoreDSN() string {
	if c.Store.Driver == "duckdb" && c.Store.DSN == "" {
		return filepath.Join(c.Data.Dir, "overo.duckdb")
	}
	return c.Store.DSN
}

// Addr is the listen address of the web server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
