package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the config file read when no --config flag is given.
const DefaultPath = "config.yaml"

// Transports accepted by MCPConfig.Transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

var schemaNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Config holds all configuration for ekaya-catalog.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL). Holds both the catalog tables and
	// the physical tables they describe.
	Database DatabaseConfig `yaml:"database"`

	Catalog CatalogConfig `yaml:"catalog"`
	MCP     MCPConfig     `yaml:"mcp"`
	Retry   RetryConfig   `yaml:"retry"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ekaya_catalog"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// CatalogConfig controls how catalog changes reach the physical schema.
type CatalogConfig struct {
	// PhysicalSchema qualifies every physical table created or altered.
	PhysicalSchema string `yaml:"physical_schema" env:"CATALOG_PHYSICAL_SCHEMA" env-default:"public"`

	// ExecuteForeignKeys runs the add-constraint statement for foreign-key and
	// lookup columns. When false the statement is only logged.
	ExecuteForeignKeys bool `yaml:"execute_foreign_keys" env:"CATALOG_EXECUTE_FOREIGN_KEYS" env-default:"true"`

	// BackfillNotNull fills existing rows with the initial value before a
	// NOT NULL column is constrained.
	BackfillNotNull bool `yaml:"backfill_not_null" env:"CATALOG_BACKFILL_NOT_NULL" env-default:"false"`
}

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	Transport string `yaml:"transport" env:"MCP_TRANSPORT" env-default:"stdio"`
	BindAddr  string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port      string `yaml:"port" env:"PORT" env-default:"3443"`

	// TLS configuration (optional - if both provided, the HTTP transport uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`
}

// RetryConfig bounds the retries of a whole tool call.
type RetryConfig struct {
	MaxRetries int `yaml:"max_retries" env:"RETRY_MAX_RETRIES" env-default:"3"`
}

// Load reads configuration from path with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// A missing file is not an error; defaults and environment variables apply.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks values that cleanenv cannot.
func (c *Config) Validate() error {
	if !schemaNamePattern.MatchString(c.Catalog.PhysicalSchema) {
		return fmt.Errorf("catalog.physical_schema %q is not a valid schema name", c.Catalog.PhysicalSchema)
	}
	switch c.MCP.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("mcp.transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.MCP.Transport)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries cannot be negative")
	}
	return c.MCP.validateTLS()
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *MCPConfig) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// Readability is checked when the listener loads the key pair.
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// UseTLS reports whether the HTTP transport should serve HTTPS.
func (c *MCPConfig) UseTLS() bool {
	return c.TLSCertPath != "" && c.TLSKeyPath != ""
}

// Addr returns the listen address of the HTTP transport.
func (c *MCPConfig) Addr() string {
	return c.BindAddr + ":" + c.Port
}

// BaseURL returns the externally visible URL of the HTTP transport.
func (c *MCPConfig) BaseURL() string {
	scheme := "http"
	if c.UseTLS() {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: c.Addr()}).String()
}

// ConnectionString returns a PostgreSQL connection string. A loopback host
// is rewritten when running inside Docker.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
