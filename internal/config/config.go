// Package config loads and persists the service's config.toml, filling in
// defaults for anything missing and rewriting the file on every start.
package config

import (
	"fmt"
	"net"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file loaded from and saved to the working
// directory.
const FileName = "config.toml"

// Config holds the service's startup configuration.
type Config struct {
	PostgresURL string   `toml:"postgres_url"`
	BindAddress net.IP   `toml:"bind_address"`
	Port        uint16   `toml:"port"`
	BotNames    []string `toml:"bot_names"`
}

// defaultConfig matches the zero-value defaults of the system this service
// replaces: no DSN, loopback bind address, port 3030, no bot exclusions
// until the operator fills in the rewritten config.toml.
func defaultConfig() Config {
	return Config{
		PostgresURL: "",
		BindAddress: net.IPv4(127, 0, 0, 1),
		Port:        3030,
		BotNames:    []string{},
	}
}

// Load reads config.toml from the current directory, falling back to
// defaults (and for any field TOML couldn't decode) if the file is missing
// or malformed. It then rewrites the file, so a first run materializes a
// config.toml a human can edit for the next run.
func Load() (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(FileName)
	if err == nil {
		if decodeErr := toml.Unmarshal(data, &cfg); decodeErr != nil {
			cfg = defaultConfig()
		}
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("config: save: %w", err)
	}
	return &cfg, nil
}

// Save writes the config back to config.toml.
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(FileName, data, 0o644); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

// Addr returns the "host:port" listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress.String(), c.Port)
}
