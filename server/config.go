// CLAUDE:SUMMARY Server configuration — YAML file, environment overrides, defaults.
package server

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/aitools/pdfpage"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all server configuration.
type Config struct {
	// Workspace is the directory tools may read. Default: current directory.
	Workspace string `yaml:"workspace"`

	// Transport is "stdio" (default) or "http".
	Transport string `yaml:"transport"`

	HTTP HTTPConfig `yaml:"http"`

	// MaxFileSize caps file reads in bytes. Default: 50 MiB.
	MaxFileSize int64 `yaml:"max_file_size"`

	// AuditDB is the SQLite path of the extraction history. Empty disables
	// the history and the extraction_history tool.
	AuditDB string `yaml:"audit_db"`

	// MaxFormDepth bounds nested Form XObjects during PDF decoding.
	MaxFormDepth int `yaml:"max_form_depth"`

	Thresholds pdfpage.Thresholds `yaml:"thresholds"`

	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Logger *slog.Logger `yaml:"-"`
}

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	// Addr to listen on. Default "127.0.0.1:0" picks a free local port.
	Addr       string `yaml:"addr"`
	MCPPath    string `yaml:"mcp_path"`    // default "/mcp"
	HealthPath string `yaml:"health_path"` // default "/mcp-health"

	// BasicAuthUser and BasicAuthHash (bcrypt) protect the MCP endpoint when
	// both are set. The health endpoint stays open.
	BasicAuthUser string `yaml:"basic_auth_user"`
	BasicAuthHash string `yaml:"basic_auth_hash"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func (c *Config) defaults() {
	if c.Workspace == "" {
		c.Workspace = "."
	}
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "127.0.0.1:0"
	}
	if c.HTTP.MCPPath == "" {
		c.HTTP.MCPPath = "/mcp"
	}
	if c.HTTP.HealthPath == "" {
		c.HTTP.HealthPath = "/mcp-health"
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if c.Name == "" {
		c.Name = "aitools"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

func (c *Config) validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("server: unknown transport %q (want stdio or http)", c.Transport)
	}
	if (c.HTTP.BasicAuthUser == "") != (c.HTTP.BasicAuthHash == "") {
		return fmt.Errorf("server: basic auth needs both user and bcrypt hash")
	}
	return nil
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from AI_TOOLS_* variables. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("AI_TOOLS_WORKSPACE"); v != "" {
		c.Workspace = v
	}
	if v := getenv("AI_TOOLS_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := getenv("AI_TOOLS_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := getenv("AI_TOOLS_AUDIT_DB"); v != "" {
		c.AuditDB = v
	}
	if v := getenv("AI_TOOLS_MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("server: AI_TOOLS_MAX_FILE_SIZE: %w", err)
		}
		c.MaxFileSize = n
	}
	return nil
}
