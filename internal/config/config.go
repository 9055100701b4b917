package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"` // file, sqlite, s3, memory
	Path    string `yaml:"path" env:"PATH"`       // flat file or SQLite database path
	Bucket  string `yaml:"bucket" env:"BUCKET"`   // s3 only
	Key     string `yaml:"key" env:"KEY"`         // s3 object key
	Region  string `yaml:"region" env:"REGION"`   // s3 region, empty for the SDK default chain
}

// ServerConfig holds configuration for the timetable server.
type ServerConfig struct {
	Addr         string      `yaml:"addr" env:"ADDR"`             // Lecture protocol listen address (default ":1234")
	AdminAddr    string      `yaml:"admin_addr" env:"ADMIN_ADDR"` // Operator HTTP API, empty to disable
	LogLevel     string      `yaml:"log_level" env:"LOG_LEVEL"`   // debug, info, warn, error
	LogFormat    string      `yaml:"log_format" env:"LOG_FORMAT"` // text, json
	EventsBuffer int         `yaml:"events_buffer" env:"EVENTS_BUFFER"`
	Store        StoreConfig `yaml:"store" envPrefix:"STORE_"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":1234",
		LogLevel:     "info",
		LogFormat:    "text",
		EventsBuffer: 500,
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    "SCHEDULE.csv",
			Key:     "SCHEDULE.csv",
		},
	}
}

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TIMETABLE_"

// Load builds a ServerConfig from defaults, the optional YAML file at path,
// and TIMETABLE_* environment variables, in that order of precedence.
func Load(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	return cfg, cfg.Validate()
}

// Validate checks that the configuration is usable.
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store backend %q requires a path", c.Store.Backend)
		}
	case BackendS3:
		if c.Store.Bucket == "" {
			return errors.New("store backend \"s3\" requires a bucket")
		}
		if c.Store.Key == "" {
			return errors.New("store backend \"s3\" requires a key")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// ClientConfig holds configuration for the reference client.
type ClientConfig struct {
	Server  string        // host:port of the timetable server
	Timeout time.Duration // dial and I/O deadline, 0 for none
}

// DefaultClientConfig returns sensible defaults, honouring TIMETABLE_SERVER.
func DefaultClientConfig() ClientConfig {
	cfg := ClientConfig{
		Server:  "localhost:1234",
		Timeout: 30 * time.Second,
	}
	if s := os.Getenv(EnvPrefix + "SERVER"); s != "" {
		cfg.Server = s
	}
	return cfg
}
