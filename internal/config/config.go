// Package config loads server configuration from a YAML file with
// environment variable overrides under the CARDROOM_ prefix.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Decks    DecksConfig    `mapstructure:"decks"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig configures the HTTP listener that carries the observer
// websocket endpoint.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CatalogConfig configures the upstream card catalog.
type CatalogConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DecksConfig points at the prebuilt deck library file. An empty path
// disables the library.
type DecksConfig struct {
	Path string `mapstructure:"path"`
}

// SessionsConfig sets the idle timers for live state.
type SessionsConfig struct {
	GameTTL       time.Duration `mapstructure:"game_ttl"`
	DeckTTL       time.Duration `mapstructure:"deck_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file, applying defaults first and
// CARDROOM_* environment variables last.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("catalog.base_url", "https://api.tcgdex.net/v2/en")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("decks.path", "")
	v.SetDefault("sessions.game_ttl", 3*time.Hour)
	v.SetDefault("sessions.deck_ttl", 5*time.Minute)
	v.SetDefault("sessions.sweep_interval", time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("CARDROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
