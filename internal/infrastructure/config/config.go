package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable pointing at an optional config file.
const FileEnv = "HENNI_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Repository RepositoryConfig `yaml:"repository" toml:"repository"`
	Logging    LogConfig        `yaml:"logging" toml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" yaml:"port" toml:"port" validate:"required,numeric"`
	Host            string        `envconfig:"HOST" yaml:"host" toml:"host"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" toml:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `envconfig:"CORS_ORIGINS" yaml:"allowed_origins" toml:"allowed_origins"`
}

// RepositoryConfig locates the repository root.
type RepositoryConfig struct {
	// BaseDir is the root directory; "~/" expands to the home directory
	BaseDir string `envconfig:"HENNI_REPO_BASEDIR" yaml:"basedir" toml:"basedir" validate:"required"`

	// URI is the public base address of the repository, reported by /health
	URI string `envconfig:"HENNI_REPO_URI" yaml:"uri" toml:"uri"`

	// FollowLinks makes recursive copies dereference symbolic links
	FollowLinks bool `envconfig:"HENNI_REPO_FOLLOW_LINKS" yaml:"follow_links" toml:"follow_links"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second" toml:"requests_per_second" validate:"gte=0"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst" validate:"gte=0"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`

	// Global shares one limiter across all clients instead of one per IP
	Global bool `envconfig:"RATE_LIMIT_GLOBAL" yaml:"global" toml:"global"`
}

var validate = validator.New()

// Load builds the configuration: defaults, then the file named by
// HENNI_CONFIG (if set), then environment variables. The result is
// normalized and validated.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is Load with an explicit config file. An empty name skips the file.
func LoadFile(name string) (*Config, error) {
	cfg := Default()

	if name != "" {
		if err := readFile(name, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, formatValidationError(err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = Default()
		_ = cfg.normalize()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

func readFile(name string, cfg *Config) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file format: %s", name)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", name, err)
	}
	return nil
}

func (c *Config) normalize() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	basedir, err := normalizeBaseDir(c.Repository.BaseDir, home)
	if err != nil {
		return err
	}
	c.Repository.BaseDir = basedir
	c.Repository.URI = normalizeURI(c.Repository.URI, home)
	return nil
}

// normalizeBaseDir defaults an empty base dir to ~/henni-repo, cleans it and
// expands a leading "~/".
func normalizeBaseDir(dir, home string) (string, error) {
	if dir == "" {
		if home == "" {
			return "", fmt.Errorf("repository.basedir: not set and no home directory available")
		}
		return filepath.Join(home, "henni-repo"), nil
	}

	dir = path.Clean(filepath.ToSlash(dir))
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home == "" {
			return "", fmt.Errorf("repository.basedir: cannot expand %q without a home directory", dir)
		}
		dir = home + dir[1:]
	}
	return filepath.FromSlash(dir), nil
}

// normalizeURI trims trailing slashes, expands "file://~" and adds a root
// context path when the URI has none.
func normalizeURI(uri, home string) string {
	if uri == "" {
		return ""
	}

	uri = strings.TrimRight(uri, "/")
	uri = strings.ReplaceAll(uri, "file://~", "file://"+home)
	if idx := strings.Index(uri, "://"); idx > 0 && !strings.Contains(uri[idx+len("://"):], "/") {
		uri += "/"
	}
	return uri
}

func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
