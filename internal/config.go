package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	MCP    MCPConfig         `yaml:"mcp"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds session token configuration. Secret signs the HS256
// session tokens and must be non-empty; set it via the environment in the
// config file (secret: ${LAGUZ_AUTH_SECRET}).
type AuthConfig struct {
	Secret          string `yaml:"secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.TokenTTLMinutes == 0 {
		c.TokenTTLMinutes = 12 * 60
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.TokenTTLMinutes, validation.Min(1)),
	); err != nil {
		return err
	}
	if c.Secret == "" {
		return fmt.Errorf("auth: secret is empty")
	}
	return nil
}

// TokenTTL returns the session token lifetime.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// MCPConfig names the user the stdio MCP server acts as. Only required for
// the mcp subcommand.
type MCPConfig struct {
	User string `yaml:"user"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./laguz.db",
		},
		Auth: AuthConfig{
			TokenTTLMinutes: 12 * 60,
		},
	}
}
