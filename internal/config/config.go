// Package config loads runtime settings from defaults, an optional YAML file
// and TOOLGUIDE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override (TOOLGUIDE_STORE_BACKEND, ...).
const EnvPrefix = "TOOLGUIDE"

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "toolguide.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the full runtime configuration.
type Config struct {
	LogLevel     string           `mapstructure:"log_level" yaml:"log_level"`
	MaxInputSize int              `mapstructure:"max_input_size" yaml:"max_input_size"`
	Store        StoreConfig      `mapstructure:"store" yaml:"store"`
	Redis        RedisConfig      `mapstructure:"redis" yaml:"redis"`
	Encryption   EncryptionConfig `mapstructure:"encryption" yaml:"encryption"`
	PII          PIIConfig        `mapstructure:"pii" yaml:"pii"`
	MCP          MCPConfig        `mapstructure:"mcp" yaml:"mcp"`
	HTTP         HTTPConfig       `mapstructure:"http" yaml:"http"`
	Agent        AgentConfig      `mapstructure:"agent" yaml:"agent"`
}

// StoreConfig selects the session backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path is the directory (file) or database file (sqlite).
	Path string `mapstructure:"path" yaml:"path"`
	// TTL expires idle sessions (redis only). Zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// RedisConfig configures the redis store and locker.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// EncryptionConfig enables at-rest encryption of session data.
type EncryptionConfig struct {
	// Key is a base64 AES-256 key. Empty disables encryption.
	Key          string   `mapstructure:"key" yaml:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
}

// PIIConfig masks matching values before they reach the store.
type PIIConfig struct {
	Patterns []string `mapstructure:"patterns" yaml:"patterns"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	Port      int    `mapstructure:"port" yaml:"port"`
}

// HTTPConfig configures the REST server.
type HTTPConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// AgentConfig configures the LLM triage agent.
type AgentConfig struct {
	Model    string `mapstructure:"model" yaml:"model"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	MaxSteps int    `mapstructure:"max_steps" yaml:"max_steps"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:     "info",
		MaxInputSize: 4096,
		Store: StoreConfig{
			Backend: BackendMemory,
			Path:    ".toolguide/sessions",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "toolguide:session:",
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Port:      8080,
		},
		HTTP: HTTPConfig{
			Port: 8081,
		},
		Agent: AgentConfig{
			Model:    "gpt-4o-mini",
			MaxSteps: 20,
		},
	}
}

// New returns a viper instance primed with defaults and env bindings.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("max_input_size", d.MaxInputSize)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.ttl", d.Store.TTL)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("encryption.key", d.Encryption.Key)
	v.SetDefault("encryption.fallback_keys", []string{})
	v.SetDefault("pii.patterns", []string{})
	v.SetDefault("mcp.transport", d.MCP.Transport)
	v.SetDefault("mcp.port", d.MCP.Port)
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("agent.model", d.Agent.Model)
	v.SetDefault("agent.api_key", d.Agent.APIKey)
	v.SetDefault("agent.base_url", d.Agent.BaseURL)
	v.SetDefault("agent.max_steps", d.Agent.MaxSteps)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads cfgFile (or DefaultFile when present) into v and decodes it.
// A missing default file is not an error; a missing explicit file is.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, filepath.Ext(DefaultFile)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q (want memory, file, redis or sqlite)", c.Store.Backend)
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		return fmt.Errorf("unknown mcp transport %q (want stdio or sse)", c.MCP.Transport)
	}
	if c.MaxInputSize <= 0 {
		return fmt.Errorf("max_input_size must be positive, got %d", c.MaxInputSize)
	}
	return nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	d := Default()
	raw, err := yaml.Marshal(&fileConfig{
		LogLevel:     d.LogLevel,
		MaxInputSize: d.MaxInputSize,
		Store: fileStore{
			Backend: d.Store.Backend,
			Path:    d.Store.Path,
			TTL:     d.Store.TTL.String(),
		},
		Redis:      d.Redis,
		Encryption: d.Encryption,
		PII:        d.PII,
		MCP:        d.MCP,
		HTTP:       d.HTTP,
		Agent:      d.Agent,
	})
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, raw, 0600)
}

// fileConfig mirrors Config with durations spelled as strings ("24h").
type fileConfig struct {
	LogLevel     string           `yaml:"log_level"`
	MaxInputSize int              `yaml:"max_input_size"`
	Store        fileStore        `yaml:"store"`
	Redis        RedisConfig      `yaml:"redis"`
	Encryption   EncryptionConfig `yaml:"encryption"`
	PII          PIIConfig        `yaml:"pii"`
	MCP          MCPConfig        `yaml:"mcp"`
	HTTP         HTTPConfig       `yaml:"http"`
	Agent        AgentConfig      `yaml:"agent"`
}

type fileStore struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	TTL     string `yaml:"ttl"`
}
