// Package config defines the typed configuration for the laterr ingestion
// service. The Config is constructed once at process start and passed by
// parameter into each component; there is no ambient global state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	AI       AIConfig       `yaml:"ai,omitempty"`
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Pipeline PipelineConfig `yaml:"pipeline,omitempty"`
	Fetch    FetchConfig    `yaml:"fetch,omitempty"`
	Logger   LoggerConfig   `yaml:"logger,omitempty"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// AuthToken, when set, requires "Authorization: Bearer <token>" on
	// analysis endpoints. Supports ${VAR} expansion.
	AuthToken string `yaml:"auth_token,omitempty"`
}

// LoggerConfig configures logging.
type LoggerConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// SetDefaults applies default values.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// Validate checks the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Port)
	}
	return nil
}

// Address returns the host:port listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

// SetDefaults applies defaults to all sections.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.AI.SetDefaults()
	c.Embedder.SetDefaults()
	c.Pipeline.SetDefaults()
	c.Fetch.SetDefaults()
	c.Logger.SetDefaults()
}

// Validate checks all sections.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.AI.Validate(); err != nil {
		return err
	}
	if err := c.Embedder.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	return c.Fetch.Validate()
}

// Load reads a YAML config file, expands ${VAR} references, applies
// defaults, and validates. An empty path yields a default config built
// from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
