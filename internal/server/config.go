package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// configDefaults apply when neither the file nor the environment sets a key.
var configDefaults = map[string]any{
	"server.host":            "0.0.0.0",
	"server.port":            8080,
	"server.dev_mode":        false,
	"server.read_only":       false,
	"logging.level":          "info",
	"logging.format":         "json",
	"database.path":          "./data/fleetdeck.db",
	"storage.driver":         "sqlite",
	"storage.redis.addr":     "localhost:6379",
	"storage.redis.password": "",
	"storage.redis.db":       0,
	"themes.file":            "",
}

// configSearchPaths are tried in order for fleetdeck.yaml when no explicit
// path is given.
var configSearchPaths = []string{".", "./configs", "/etc/fleetdeck"}

// LoadConfig layers defaults, an optional YAML file and FD_-prefixed
// environment variables (FD_SERVER_PORT=9090 sets server.port). A missing
// file is not an error unless configPath names it explicitly.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()
	for key, val := range configDefaults {
		v.SetDefault(key, val)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("fleetdeck")
		v.SetConfigType("yaml")
		for _, p := range configSearchPaths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix("FD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}
