// Package config loads the sitebuilder configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sitebuilder/internal/storage"
)

// Config holds all sitebuilder configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Templates TemplatesConfig `yaml:"templates"`
	Export    ExportConfig    `yaml:"export"`
	MCP       MCPConfig       `yaml:"mcp"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	Tokens          []string `yaml:"tokens"`     // static tokens, accepted as well as JWTs
	JWTSecret       string   `yaml:"jwt_secret"` // HS256 key; empty with no tokens disables auth
	DefaultStore    string   `yaml:"default_store"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	SanitizeHTML    bool     `yaml:"sanitize_html"`
}

// StorageConfig selects the document backend. History always lives in SQL:
// the main database for the sql backend, HistoryPath for mongo.
type StorageConfig struct {
	Backend     string              `yaml:"backend"` // sql, mongo
	SQL         storage.SQLConfig   `yaml:"sql"`
	Mongo       storage.MongoConfig `yaml:"mongo"`
	HistoryPath string              `yaml:"history_path"`
	MaxHistory  int                 `yaml:"max_history"`
}

type TemplatesConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

type ExportConfig struct {
	Dir      string `yaml:"dir"`
	Schedule string `yaml:"schedule"` // cron expression; empty disables
	Store    string `yaml:"store"`
}

type MCPConfig struct {
	Name            string `yaml:"name"`
	RequireApproval bool   `yaml:"require_approval"`
	ApprovalTimeout string `yaml:"approval_timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

const (
	BackendSQL   = "sql"
	BackendMongo = "mongo"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			DefaultStore:    "default-store",
			ShutdownTimeout: "10s",
			SanitizeHTML:    true,
		},
		Storage: StorageConfig{
			Backend: BackendSQL,
			SQL: storage.SQLConfig{
				Driver: string(storage.SQLite),
			},
			Mongo: storage.MongoConfig{
				Collection: storage.DefaultCollection,
			},
			HistoryPath: "data/history.db",
			MaxHistory:  storage.DefaultMaxHistory,
		},
		Templates: TemplatesConfig{
			Watch: true,
		},
		Export: ExportConfig{
			Dir: "export",
		},
		MCP: MCPConfig{
			Name:            "sitebuilder",
			ApprovalTimeout: "120s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads .env (when present), then the YAML file at path, then
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SITEBUILDER_DB_DRIVER"); v != "" {
		c.Storage.SQL.Driver = v
	}
	if v := os.Getenv("SITEBUILDER_DB_DSN"); v != "" {
		c.Storage.SQL.DSN = v
	}
	if v := os.Getenv("SITEBUILDER_MONGO_URI"); v != "" {
		c.Storage.Mongo.URI = v
		c.Storage.Backend = BackendMongo
	}
	if v := os.Getenv("SITEBUILDER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SITEBUILDER_TOKENS"); v != "" {
		c.Server.Tokens = nil
		for _, tok := range strings.Split(v, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				c.Server.Tokens = append(c.Server.Tokens, tok)
			}
		}
	}
	if v := os.Getenv("SITEBUILDER_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("SITEBUILDER_TEMPLATES_DIR"); v != "" {
		c.Templates.Dir = v
	}
	if v := os.Getenv("SITEBUILDER_EXPORT_SCHEDULE"); v != "" {
		c.Export.Schedule = v
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendSQL:
		if _, _, err := c.Storage.SQL.DataSource(); err != nil {
			errs = append(errs, fmt.Errorf("storage.sql: %w", err))
		}
	case BackendMongo:
		if c.Storage.HistoryPath == "" {
			errs = append(errs, errors.New("storage.history_path is required with the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.DefaultStore == "" {
		errs = append(errs, errors.New("server.default_store is required"))
	}
	for name, d := range map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"mcp.approval_timeout":    c.MCP.ApprovalTimeout,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	return errors.Join(errs...)
}

// ExportStore is the store the scheduled export writes.
func (c *Config) ExportStore() string {
	if c.Export.Store != "" {
		return c.Export.Store
	}
	return c.Server.DefaultStore
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetApprovalTimeout returns how long a destructive MCP call waits for a
// human decision.
func (c *Config) GetApprovalTimeout() time.Duration {
	d, err := time.ParseDuration(c.MCP.ApprovalTimeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}
