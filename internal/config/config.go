// Package config loads the server configuration from a yaml file with
// environment-variable overrides (prefix CARDNET_, dots become underscores).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the transport settings.
type ServerConfig struct {
	TCPAddress        string        `mapstructure:"tcp_address"`
	WebSocketAddress  string        `mapstructure:"websocket_address"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	OutboundQueueSize int           `mapstructure:"outbound_queue_size"`
}

// GameConfig holds the engine tuning knobs.
type GameConfig struct {
	TickRate         int           `mapstructure:"tick_rate"`
	ResetDelay       time.Duration `mapstructure:"reset_delay"`
	StartingHealth   int           `mapstructure:"starting_health"`
	StartingHandSize int           `mapstructure:"starting_hand_size"`
}

// LoggingConfig holds the logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// Load reads the config file at path. A missing file is not an error; the
// defaults (plus environment overrides) apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.tcp_address", ":8888")
	v.SetDefault("server.websocket_address", ":8889")
	v.SetDefault("server.write_timeout", 5*time.Second)
	v.SetDefault("server.outbound_queue_size", 64)
	v.SetDefault("game.tick_rate", 30)
	v.SetDefault("game.reset_delay", 5*time.Second)
	v.SetDefault("game.starting_health", 30)
	v.SetDefault("game.starting_hand_size", 7)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("CARDNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Game.TickRate <= 0 {
		return fmt.Errorf("game.tick_rate must be positive, got %d", c.Game.TickRate)
	}
	if c.Game.StartingHealth <= 0 {
		return fmt.Errorf("game.starting_health must be positive, got %d", c.Game.StartingHealth)
	}
	if c.Game.StartingHandSize <= 0 {
		return fmt.Errorf("game.starting_hand_size must be positive, got %d", c.Game.StartingHandSize)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %s", c.Server.WriteTimeout)
	}
	return nil
}
