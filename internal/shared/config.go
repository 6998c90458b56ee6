package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Session  SessionConfig  `toml:"session"`
	Store    StoreConfig    `toml:"store"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig describes the backend the session is held against.
type APIConfig struct {
	BaseURL        string   `toml:"base_url"`
	LoginPath      string   `toml:"login_path"`
	RegisterPath   string   `toml:"register_path"`
	RefreshPath    string   `toml:"refresh_path"`
	LogoutPath     string   `toml:"logout_path"`
	ProtectedPath  string   `toml:"protected_path"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// SessionConfig tunes refresh coordination and teardown.
type SessionConfig struct {
	RefreshTimeout  Duration `toml:"refresh_timeout"`
	MonitorInterval Duration `toml:"monitor_interval"`
	RedirectDelay   Duration `toml:"redirect_delay"`
	LoginPage       string   `toml:"login_page"`
	OpenBrowser     bool     `toml:"open_browser"`
}

// StoreConfig selects where expiry records are persisted.
type StoreConfig struct {
	Driver    string `toml:"driver"`
	KeyPrefix string `toml:"key_prefix"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ServerConfig contains development backend settings.
type ServerConfig struct {
	Host       string   `toml:"host"`
	Port       int      `toml:"port"`
	AccessTTL  Duration `toml:"access_ttl"`
	RefreshTTL Duration `toml:"refresh_ttl"`
	SigningKey string   `toml:"signing_key"`
	RateLimit  float64  `toml:"rate_limit"`
	RateBurst  int      `toml:"rate_burst"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Store drivers accepted by [StoreConfig.Driver].
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Duration is a [time.Duration] decoded from strings such as "90s" or "1h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidConfig, string(text))
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Addr returns the host:port the development backend listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
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

// Validate reports the first unusable setting wrapped in [ErrInvalidConfig].
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q must be an absolute URL", ErrInvalidConfig, c.API.BaseURL)
	}

	for name, p := range map[string]string{
		"api.login_path":    c.API.LoginPath,
		"api.register_path": c.API.RegisterPath,
		"api.refresh_path":  c.API.RefreshPath,
		"api.logout_path":   c.API.LogoutPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%w: %s %q must start with /", ErrInvalidConfig, name, p)
		}
	}

	if c.Session.RefreshTimeout.Duration <= 0 {
		return fmt.Errorf("%w: session.refresh_timeout must be positive", ErrInvalidConfig)
	}
	if c.Session.MonitorInterval.Duration <= 0 {
		return fmt.Errorf("%w: session.monitor_interval must be positive", ErrInvalidConfig)
	}
	if c.Session.RedirectDelay.Duration <= 0 {
		return fmt.Errorf("%w: session.redirect_delay must be positive", ErrInvalidConfig)
	}

	switch c.Store.Driver {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("%w: store.driver %q", ErrInvalidConfig, c.Store.Driver)
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}
