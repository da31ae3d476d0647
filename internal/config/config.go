// Package config loads client configuration from file and environment.
// The result is an explicit value handed to constructors; nothing here is
// consulted ambiently, so differently configured clients can coexist.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the full client configuration.
type Config struct {
	ServerURL string        `mapstructure:"server_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`

	PollInterval  time.Duration `mapstructure:"poll_interval"`
	MaxReconnects int           `mapstructure:"max_reconnects"`

	History HistoryConfig `mapstructure:"history"`
	Discord DiscordConfig `mapstructure:"discord"`
}

// HistoryConfig enables the optional local scan-history database.
type HistoryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// DSN builds the postgres connection string.
func (h HistoryConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		h.Host, h.Port, h.User, h.Password, h.Name)
}

// DiscordConfig enables finding/completion notifications.
type DiscordConfig struct {
	Token     string `mapstructure:"token"`
	ChannelID string `mapstructure:"channel_id"`
}

// Enabled reports whether notifications are configured.
func (d DiscordConfig) Enabled() bool {
	return d.Token != "" && d.ChannelID != ""
}

// Loader reads and watches one configuration source.
type Loader struct {
	v  *viper.Viper
	mu sync.Mutex
}

// NewLoader prepares a loader for the given config file. An empty path
// falls back to $HOME/.aiptx.yaml. Every key can be overridden through an
// AIPTX_-prefixed environment variable (AIPTX_SERVER_URL, AIPTX_API_KEY...).
func NewLoader(path string) *Loader {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".aiptx")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AIPTX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so environment overrides reach Unmarshal.
	v.SetDefault("server_url", "http://localhost:8000")
	v.SetDefault("api_key", "")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("poll_interval", 2*time.Second)
	v.SetDefault("max_reconnects", 3)
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.host", "localhost")
	v.SetDefault("history.port", 5432)
	v.SetDefault("history.user", "aiptx")
	v.SetDefault("history.password", "aiptx")
	v.SetDefault("history.name", "aiptx")
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.channel_id", "")

	return &Loader{v: v}
}

// Load reads the configuration. A missing file is not an error; defaults
// and environment variables still apply.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Watch reloads the file on change and hands the fresh config to onChange.
// A config that fails to parse is ignored; the callback only sees valid
// configs.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		l.mu.Lock()
		var cfg Config
		err := l.v.Unmarshal(&cfg)
		l.mu.Unlock()

		if err == nil {
			onChange(&cfg)
		}
	})
	l.v.WatchConfig()
}
