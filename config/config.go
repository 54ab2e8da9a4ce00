// Package config loads the postgraph server configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvDatabaseURL overrides database.url when set.
const EnvDatabaseURL = "POSTGRAPH_DATABASE_URL"

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	// Catalog is the path of the catalog snapshot.
	Catalog string       `yaml:"catalog"`
	Schema  SchemaConfig `yaml:"schema"`
	Server  ServerConfig `yaml:"server"`
	Log     LogConfig    `yaml:"log"`
}

// DatabaseConfig configures the PostgreSQL connection pool.
type DatabaseConfig struct {
	URL                string        `yaml:"url"`
	MaxOpenConns       int           `yaml:"maxOpenConns"`
	SlowQueryThreshold time.Duration `yaml:"slowQueryThreshold"`
	StatementTimeout   time.Duration `yaml:"statementTimeout"`
	// Debug logs every statement.
	Debug bool `yaml:"debug"`
}

// SchemaConfig configures the GraphQL schema build.
type SchemaConfig struct {
	NodeIDFieldName  string   `yaml:"nodeIdFieldName"`
	DisableMutations bool     `yaml:"disableMutations"`
	Procedures       bool     `yaml:"procedures"`
	Namespaces       []string `yaml:"namespaces"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// WatchCatalog rebuilds the schema when the catalog file changes.
	WatchCatalog bool          `yaml:"watchCatalog"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration, applies the environment overrides
// and the defaults, and validates the result. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.Database.URL = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.SlowQueryThreshold == 0 {
		cfg.Database.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.Schema.NodeIDFieldName == "" {
		cfg.Schema.NodeIDFieldName = "nodeId"
	}
	if len(cfg.Schema.Namespaces) == 0 {
		cfg.Schema.Namespaces = []string{"public"}
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Catalog == "" {
		return errors.New("catalog is required")
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.maxOpenConns must not be negative, got %d", c.Database.MaxOpenConns)
	}
	if c.Database.StatementTimeout < 0 {
		return fmt.Errorf("database.statementTimeout must not be negative, got %s", c.Database.StatementTimeout)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json', got %q", c.Log.Format)
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger returns a logger writing to w as configured.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
