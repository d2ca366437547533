// Package config loads the server's YAML configuration, mirroring the
// teacher's defaults-then-unmarshal pattern: start from hardcoded
// defaults, then overlay whatever the file on disk actually sets, so a
// missing or partial file is never an error.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the chess server.
type Server struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// UserStorePath is where registered usernames are persisted (§7).
	UserStorePath string `yaml:"user_store_path"`

	// LogLevel is one of debug, info, warn, error (default: info).
	LogLevel string `yaml:"log_level"`
}

// Default returns Server config with the values prescribed by §6's CLI
// defaults (127.0.0.1:11111) plus a conservative log level.
func Default() Server {
	return Server{
		BindAddress:   "127.0.0.1",
		Port:          11111,
		UserStorePath: "database/usernames.txt",
		LogLevel:      "info",
	}
}

// Load reads Server config from a YAML file at path, overlaying it onto
// Default(). A missing file is not an error — it just means the defaults
// apply.
func Load(path string) (Server, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
