package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// CITAS_NOTIFY_API_BASE_URL.
const EnvPrefix = "CITAS_NOTIFY"

// APIConfig holds the backend endpoints.
type APIConfig struct {
	// BaseURL is the root of the REST API (e.g., https://api.example.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// WSURL overrides the websocket base derived from BaseURL.
	WSURL string `mapstructure:"ws_url" yaml:"ws_url"`

	// TimeoutSec bounds each REST request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries is how many times a 429 response is retried. Zero disables retry.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// SessionConfig identifies the signed-in user. The token itself lives in
// the system keyring, never in the config file.
type SessionConfig struct {
	UserID int64 `mapstructure:"user_id" yaml:"user_id"`
}

// ChannelConfig tunes the live notification channel.
type ChannelConfig struct {
	HeartbeatSec  int `mapstructure:"heartbeat_sec" yaml:"heartbeat_sec"`
	BaseBackoffMs int `mapstructure:"base_backoff_ms" yaml:"base_backoff_ms"`
	MaxBackoffMs  int `mapstructure:"max_backoff_ms" yaml:"max_backoff_ms"`

	// MaxAttempts stops reconnecting after this many consecutive failures.
	// Zero retries forever.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// SyncConfig controls snapshot refreshes.
type SyncConfig struct {
	// RefreshIntervalSec re-fetches the full list periodically. Zero only
	// fetches on start and on manual refresh.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// CacheConfig locates the local snapshot cache.
type CacheConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// ProxyConfig configures the forwarding proxy.
type ProxyConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Channel ChannelConfig `mapstructure:"channel" yaml:"channel"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Proxy   ProxyConfig   `mapstructure:"proxy" yaml:"proxy"`
}

// Timeout returns the per-request REST timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Heartbeat returns the keep-alive ping interval.
func (c ChannelConfig) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatSec) * time.Second
}

// BaseBackoff returns the first reconnect delay unit.
func (c ChannelConfig) BaseBackoff() time.Duration {
	return time.Duration(c.BaseBackoffMs) * time.Millisecond
}

// MaxBackoff returns the reconnect delay cap.
func (c ChannelConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffMs) * time.Millisecond
}

// RefreshInterval returns the periodic refresh interval, zero when disabled.
func (c SyncConfig) RefreshInterval() time.Duration {
	if c.RefreshIntervalSec <= 0 {
		return 0
	}
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

// configDir returns ~/.config/citas-notify, or the working directory when
// the home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "citas-notify")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := configDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			TimeoutSec: 30,
		},
		Channel: ChannelConfig{
			HeartbeatSec:  25,
			BaseBackoffMs: 1000,
			MaxBackoffMs:  30000,
		},
		Cache:   CacheConfig{Path: filepath.Join(dir, "cache.db")},
		Log:     LogConfig{File: filepath.Join(dir, "citas-notify.log"), Level: "info"},
		Display: DisplayConfig{Theme: "default"},
		Proxy:   ProxyConfig{Listen: ":3000"},
	}
}

// setDefaults registers every default on v so that env overrides apply
// to keys missing from the file.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.ws_url", "")
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("api.max_retries", 0)
	v.SetDefault("session.user_id", 0)
	v.SetDefault("channel.heartbeat_sec", d.Channel.HeartbeatSec)
	v.SetDefault("channel.base_backoff_ms", d.Channel.BaseBackoffMs)
	v.SetDefault("channel.max_backoff_ms", d.Channel.MaxBackoffMs)
	v.SetDefault("channel.max_attempts", 0)
	v.SetDefault("sync.refresh_interval_sec", 0)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("proxy.listen", d.Proxy.Listen)
}

// NewViper returns a viper instance with defaults and env overrides
// configured for the given file path. Callers may bind flags to it before
// passing it to LoadConfigFrom.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus env overrides) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	return LoadConfigFrom(NewViper(path))
}

// LoadConfigFrom reads the file configured on v and unmarshals the result.
func LoadConfigFrom(v *viper.Viper) (*AppConfig, error) {
	// A missing file is fine: defaults and env overrides still apply.
	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", v.ConfigFileUsed(), err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = 30
	}
	if cfg.Channel.HeartbeatSec <= 0 {
		cfg.Channel.HeartbeatSec = 25
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("session", cfg.Session)
	v.Set("channel", cfg.Channel)
	v.Set("sync", cfg.Sync)
	v.Set("cache", cfg.Cache)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)
	v.Set("proxy", cfg.Proxy)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
