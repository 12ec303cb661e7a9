// Package config loads server configuration from a yaml file with
// environment-variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SweepConfig struct {
	// Schedule is a cron expression; defaults to 08:00 every day.
	Schedule string `mapstructure:"schedule"`
	Enabled  bool   `mapstructure:"enabled"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
}

// Load reads configuration from the given file path (e.g. "config.yaml").
// If path is empty, it looks for "config.yaml" in the working directory.
// Environment variables prefixed MEUBOLSO override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "./data/meubolso.db")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("sweep.schedule", "0 8 * * *")
	v.SetDefault("sweep.enabled", true)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("MEUBOLSO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults plus env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required (set MEUBOLSO_JWT_SECRET or config file)")
	}
	return &cfg, nil
}
