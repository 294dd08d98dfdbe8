package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML (or YAML) file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials" yaml:"credentials"`
	Auth        AuthConfig        `toml:"auth" yaml:"auth"`
	Store       StoreConfig       `toml:"store" yaml:"store"`
	Database    DatabaseConfig    `toml:"database" yaml:"database"`
	Server      ServerConfig      `toml:"server" yaml:"server"`
	Log         LogConfig         `toml:"log" yaml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Google GoogleConfig `toml:"google" yaml:"google"`
	TMDB   TMDBConfig   `toml:"tmdb" yaml:"tmdb"`
}

// GoogleConfig contains the OAuth client used for Google sign-in.
type GoogleConfig struct {
	ClientID     string `toml:"client_id" yaml:"client_id"`
	ClientSecret string `toml:"client_secret" yaml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri" yaml:"redirect_uri"`
	IssuerURL    string `toml:"issuer_url" yaml:"issuer_url"`
	RevokeURL    string `toml:"revoke_url" yaml:"revoke_url"`
}

// TMDBConfig contains the movie catalog API settings.
type TMDBConfig struct {
	AccessToken  string  `toml:"access_token" yaml:"access_token"`
	BaseURL      string  `toml:"base_url" yaml:"base_url"`
	ImageBaseURL string  `toml:"image_base_url" yaml:"image_base_url"`
	RateLimit    float64 `toml:"rate_limit" yaml:"rate_limit"`
	Burst        int     `toml:"burst" yaml:"burst"`
}

// AuthConfig selects the identity provider.
type AuthConfig struct {
	Provider string `toml:"provider" yaml:"provider"`
	DevUID   string `toml:"dev_uid" yaml:"dev_uid"`
	DevName  string `toml:"dev_name" yaml:"dev_name"`
	Timeout  string `toml:"timeout" yaml:"timeout"`
}

// StoreConfig selects the preference store backend.
type StoreConfig struct {
	Driver        string `toml:"driver" yaml:"driver"`
	PostgresURL   string `toml:"postgres_url" yaml:"postgres_url"`
	MongoURI      string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database" yaml:"mongo_database"`
}

// DatabaseConfig contains SQLite connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" yaml:"path"`
	MaxOpenConns int    `toml:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns" yaml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback listener settings.
type ServerConfig struct {
	Host string `toml:"host" yaml:"host"`
	Port int    `toml:"port" yaml:"port"`
}

// Addr returns host:port for the callback listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// AuthTimeout parses [AuthConfig.Timeout], defaulting to two minutes.
func (c *Config) AuthTimeout() time.Duration {
	d, err := time.ParseDuration(c.Auth.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// Validate checks the settings the application cannot run without.
func (c *Config) Validate() error {
	switch c.Auth.Provider {
	case "google", "dev":
	default:
		return fmt.Errorf("%w: auth provider %q", ErrInvalidConfig, c.Auth.Provider)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres", "mongo", "memory":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Store.Driver)
	}

	if c.Credentials.TMDB.BaseURL == "" {
		return fmt.Errorf("%w: tmdb base_url is empty", ErrInvalidConfig)
	}

	if c.Auth.Provider == "google" {
		return c.validateRedirectURI()
	}
	return nil
}

// validateRedirectURI checks that redirect_uri points at the port the callback listener binds.
func (c *Config) validateRedirectURI() error {
	raw := c.Credentials.Google.RedirectURI
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: redirect_uri %q is not an absolute URL", ErrInvalidConfig, raw)
	}

	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	if port != strconv.Itoa(c.Server.Port) {
		return fmt.Errorf("%w: redirect_uri port %q does not match server port %d", ErrInvalidConfig, port, c.Server.Port)
	}
	return nil
}

// LoadConfig reads a configuration file from the specified path on top of [DefaultConfig].
//
// Files ending in .yaml or .yml are decoded as YAML, anything else as TOML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
