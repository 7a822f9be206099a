package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines runtime settings for vsh.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Shell    ShellConfig    `yaml:"shell"`
	Sandbox  SandboxConfig  `yaml:"sandbox"`
	Packages PackagesConfig `yaml:"packages"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	HTTPAddr     string        `yaml:"httpAddr"`
	GRPCAddr     string        `yaml:"grpcAddr"`
	AllowedAddrs []string      `yaml:"allowedAddrs"`
	MaxSessions  int           `yaml:"maxSessions"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

type ShellConfig struct {
	User     string `yaml:"user"`
	Hostname string `yaml:"hostname"`
}

type SandboxConfig struct {
	Kind         string        `yaml:"kind"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxOutput    int           `yaml:"maxOutput"`
	MaxCallStack int           `yaml:"maxCallStack"`
}

type PackagesConfig struct {
	// Catalog is a YAML package catalog; empty means the built-in records.
	Catalog string `yaml:"catalog"`
	Watch   bool   `yaml:"watch"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:    "127.0.0.1:8080",
			GRPCAddr:    "127.0.0.1:9090",
			MaxSessions: 100,
			IdleTimeout: 30 * time.Minute,
		},
		Shell: ShellConfig{
			User:     "current-user",
			Hostname: "vsh.local",
		},
		Sandbox: SandboxConfig{
			Kind:         "js",
			Timeout:      3 * time.Second,
			MaxOutput:    64 * 1024,
			MaxCallStack: 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from a YAML file and environment overrides.
// An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("VSH_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("VSH_GRPC_ADDR"); v != "" {
		cfg.Server.GRPCAddr = v
	}
	if v := os.Getenv("VSH_ALLOWED_ADDRS"); v != "" {
		cfg.Server.AllowedAddrs = splitList(v)
	}
	if v := os.Getenv("VSH_MAX_SESSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VSH_MAX_SESSIONS: %w", err)
		}
		cfg.Server.MaxSessions = n
	}
	if v := os.Getenv("VSH_USER"); v != "" {
		cfg.Shell.User = v
	}
	if v := os.Getenv("VSH_SANDBOX_KIND"); v != "" {
		cfg.Sandbox.Kind = v
	}
	if v := os.Getenv("VSH_SANDBOX_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VSH_SANDBOX_TIMEOUT: %w", err)
		}
		cfg.Sandbox.Timeout = d
	}
	if v := os.Getenv("VSH_CATALOG"); v != "" {
		cfg.Packages.Catalog = v
	}
	if v := os.Getenv("VSH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("VSH_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Sandbox.Kind {
	case "js", "process":
	default:
		return fmt.Errorf("sandbox kind must be js or process, got %q", c.Sandbox.Kind)
	}
	if c.Sandbox.Timeout <= 0 {
		return errors.New("sandbox timeout must be positive")
	}
	if c.Server.MaxSessions < 0 {
		return errors.New("server maxSessions must not be negative")
	}
	if c.Packages.Watch && c.Packages.Catalog == "" {
		return errors.New("packages watch requires a catalog path")
	}
	if c.Packages.Catalog != "" {
		if _, err := os.Stat(c.Packages.Catalog); os.IsNotExist(err) {
			return fmt.Errorf("package catalog does not exist: %s", c.Packages.Catalog)
		}
	}
	return nil
}

// DefaultConfigPath returns the default location for the config file.
func DefaultConfigPath() string {
	if path := os.Getenv("VSH_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vsh", "config.yaml")
}

// ResolvePath picks the file LoadConfig should read: an explicit path wins,
// then the default path if it exists, else none.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
