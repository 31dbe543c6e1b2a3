// Package config loads service configuration: defaults, then an optional
// YAML file, then environment overrides. Command-line flags are applied by
// the caller on top.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dshills/contentaudit/internal/schema"
)

// DefaultFile is read when no config path is given and the file exists in
// the working directory.
const DefaultFile = "contentaudit.yaml"

// MaxHistoryLimit caps GET /audit/history page size.
const MaxHistoryLimit = 500

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Audit   AuditConfig   `yaml:"audit"`
	Journal JournalConfig `yaml:"journal"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	HistoryLimit int    `yaml:"historyLimit"` // default page size for history
}

type AuditConfig struct {
	Workers         int    `yaml:"workers"` // batch worker pool size; 0 means GOMAXPROCS
	RulesPath       string `yaml:"rulesPath"`
	WatchRules      bool   `yaml:"watchRules"`
	DefaultPlatform string `yaml:"defaultPlatform"`
}

type JournalConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"inMemory"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type TracingConfig struct {
	Stdout bool `yaml:"stdout"`
}

// Default returns the built-in configuration: embedded rules, no journal,
// info-level console logs.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080", HistoryLimit: 20},
		Audit:   AuditConfig{DefaultPlatform: string(schema.PlatformInstagram)},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// DefaultFile when path is empty and it exists) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadFromEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("CONTENTAUDIT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CONTENTAUDIT_RULES"); v != "" {
		cfg.Audit.RulesPath = v
	}
	if v := os.Getenv("CONTENTAUDIT_JOURNAL"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("CONTENTAUDIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CONTENTAUDIT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONTENTAUDIT_WORKERS: %w", err)
		}
		cfg.Audit.Workers = n
	}
	return nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.HistoryLimit <= 0 || c.Server.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("server.historyLimit must be between 1 and %d, got %d", MaxHistoryLimit, c.Server.HistoryLimit)
	}
	if c.Audit.Workers < 0 {
		return fmt.Errorf("audit.workers must be >= 0, got %d", c.Audit.Workers)
	}
	if c.Audit.WatchRules && c.Audit.RulesPath == "" {
		return errors.New("audit.watchRules requires audit.rulesPath")
	}
	if _, err := schema.ParsePlatform(c.Audit.DefaultPlatform); err != nil {
		return fmt.Errorf("audit.defaultPlatform: %w", err)
	}
	if c.Journal.Path != "" && c.Journal.InMemory {
		return errors.New("journal.path and journal.inMemory are mutually exclusive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// JournalEnabled reports whether audit outcomes are persisted.
func (c Config) JournalEnabled() bool {
	return c.Journal.Path != "" || c.Journal.InMemory
}
