// Package config decodes the Viper configuration tree into typed settings
// and builds the process logger from it.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Storage drivers accepted by storage.driver.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config is the full fleetdeck configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Themes   ThemesConfig   `mapstructure:"themes"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host" validate:"omitempty,ip|hostname"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
	DevMode  bool   `mapstructure:"dev_mode"`
	ReadOnly bool   `mapstructure:"read_only"`
}

// Addr returns the listen address as host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	// Driver mirrors storage.driver so the rule above can see it.
	Driver string `mapstructure:"-"`
}

type StorageConfig struct {
	Driver string      `mapstructure:"driver" validate:"oneof=sqlite redis memory"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0,max=15"`
	Enabled  bool   `mapstructure:"-"`
}

type ThemesConfig struct {
	// File is an optional YAML file with extra themes.
	File string `mapstructure:"file" validate:"omitempty,filepath"`
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	cfg.Database.Driver = cfg.Storage.Driver
	cfg.Storage.Redis.Enabled = cfg.Storage.Driver == DriverRedis

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", configKey(fe.Namespace()), fe.Tag(), fe.Value()))
			}
			return nil, fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// configKey turns "Config.Storage.Redis.Addr" into "storage.redis.addr".
func configKey(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, ".")
}
