// Package config loads the YAML (or JSON) file that configures arbiter runs,
// session servers and clients.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/arbiter/pkg/contract"
	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/aretw0/arbiter/pkg/invoke"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the whole configuration file.
type Config struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	// Game holds run settings passed to the game as-is.
	Game map[string]any `yaml:"game" mapstructure:"game"`

	// Timeouts overrides operation timeouts: a duration, milliseconds, or null
	// for fire-and-forget.
	Timeouts map[string]any `yaml:"timeouts" mapstructure:"timeouts"`

	Server  ServerConfig          `yaml:"server" mapstructure:"server"`
	Client  ClientConfig          `yaml:"client" mapstructure:"client"`
	Admin   AdminConfig           `yaml:"admin" mapstructure:"admin"`
	Redis   RedisConfig           `yaml:"redis" mapstructure:"redis"`
	Breaker *invoke.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`

	// Credentials maps logins to bcrypt hashes. Ignored when Redis is enabled.
	Credentials map[string]string `yaml:"credentials" mapstructure:"credentials"`
}

// ServerConfig configures the session server.
type ServerConfig struct {
	Listen          string        `yaml:"listen" mapstructure:"listen"`
	Players         int           `yaml:"players" mapstructure:"players"`
	ConnectDeadline time.Duration `yaml:"connect_deadline" mapstructure:"connect_deadline"`
	AuthTimeout     time.Duration `yaml:"auth_timeout" mapstructure:"auth_timeout"`
	// AcceptRate limits connections per second; zero disables the limit.
	AcceptRate  float64 `yaml:"accept_rate" mapstructure:"accept_rate"`
	AcceptBurst int     `yaml:"accept_burst" mapstructure:"accept_burst"`
}

// ClientConfig configures a participant joining a server.
type ClientConfig struct {
	Address     string        `yaml:"address" mapstructure:"address"`
	Login       string        `yaml:"login" mapstructure:"login"`
	Password    string        `yaml:"password" mapstructure:"password"`
	AuthTimeout time.Duration `yaml:"auth_timeout" mapstructure:"auth_timeout"`
}

// AdminConfig configures the admin HTTP endpoint. An empty Listen disables it.
type AdminConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// RedisConfig enables the Redis result store, credentials and identity locks.
type RedisConfig struct {
	Address   string        `yaml:"address" mapstructure:"address"`
	Password  string        `yaml:"password" mapstructure:"password"`
	DB        int           `yaml:"db" mapstructure:"db"`
	Prefix    string        `yaml:"prefix" mapstructure:"prefix"`
	ResultTTL time.Duration `yaml:"result_ttl" mapstructure:"result_ttl"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Listen:          ":7070",
			Players:         2,
			ConnectDeadline: 30 * time.Second,
			AuthTimeout:     5 * time.Second,
		},
		Client: ClientConfig{
			Address:     "localhost:7070",
			AuthTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			Prefix: "arbiter:",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Unknown keys and malformed values are configuration errors.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

// Parse decodes a YAML document, or JSON when isJSON is set, over the defaults.
func Parse(data []byte, isJSON bool) (Config, error) {
	cfg := Default()

	raw := map[string]any{}
	if isJSON {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, domain.Configurationf("parse config: %v", err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, domain.Configurationf("parse config: %v", err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       contract.DurationHook(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(raw); err != nil {
		return cfg, domain.Configurationf("%v", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values that cannot be checked while decoding.
func (c Config) Validate() error {
	switch {
	case c.Server.Players < 1:
		return domain.Configurationf("server.players must be at least 1, got %d", c.Server.Players)
	case c.Server.ConnectDeadline <= 0:
		return domain.Configurationf("server.connect_deadline must be positive")
	case c.Server.AuthTimeout <= 0:
		return domain.Configurationf("server.auth_timeout must be positive")
	case c.Server.AcceptRate < 0:
		return domain.Configurationf("server.accept_rate must not be negative")
	case c.Client.AuthTimeout <= 0:
		return domain.Configurationf("client.auth_timeout must be positive")
	}
	for op, v := range c.Timeouts {
		if v == nil {
			continue
		}
		if _, err := contract.ParseDuration(v); err != nil {
			return domain.Configurationf("timeouts.%s: %v", op, err)
		}
	}
	return nil
}
