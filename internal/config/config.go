// Package config loads server settings from a YAML file with ARENA_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kaspaclash/arena-server/internal/repository"
)

// Config is the full server configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    repository.Config `mapstructure:"database"`
	Matchmaking MatchmakingConfig `mapstructure:"matchmaking"`
	Match       MatchConfig       `mapstructure:"match"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr renders the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MatchmakingConfig tunes the pairing engine.
type MatchmakingConfig struct {
	BaseWindow     int           `mapstructure:"base_window"`
	ExpansionRate  int           `mapstructure:"expansion_rate"`
	MinWait        time.Duration `mapstructure:"min_wait"`
	MaxWindow      int           `mapstructure:"max_window"`
	CandidateLimit int           `mapstructure:"candidate_limit"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
}

// MatchConfig tunes the match lifecycle deadlines.
type MatchConfig struct {
	SelectionTimeout time.Duration `mapstructure:"selection_timeout"`
	MoveTimeout      time.Duration `mapstructure:"move_timeout"`
	StakeTimeout     time.Duration `mapstructure:"stake_timeout"`
	DisconnectGrace  time.Duration `mapstructure:"disconnect_grace"`
	RoomTTL          time.Duration `mapstructure:"room_ttl"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	DefaultFormat    string        `mapstructure:"default_format"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// Load reads the configuration at path; with an empty path it searches the
// working directory and ./config for config.yaml. A missing file is not an
// error; defaults plus environment cover a full local setup.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arena")
	v.SetDefault("database.password", "arena")
	v.SetDefault("database.database", "arena")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("matchmaking.base_window", 100)
	v.SetDefault("matchmaking.expansion_rate", 5)
	v.SetDefault("matchmaking.min_wait", "10s")
	v.SetDefault("matchmaking.max_window", 500)
	v.SetDefault("matchmaking.candidate_limit", 8)
	v.SetDefault("matchmaking.stale_after", "30m")

	v.SetDefault("match.selection_timeout", "60s")
	v.SetDefault("match.move_timeout", "30s")
	v.SetDefault("match.stake_timeout", "2m")
	v.SetDefault("match.disconnect_grace", "45s")
	v.SetDefault("match.room_ttl", "30m")
	v.SetDefault("match.sweep_interval", "5s")
	v.SetDefault("match.default_format", "best_of_3")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
