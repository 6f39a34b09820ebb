package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aleksaelezovic/rdfpreview/pkg/rdf"
)

// Config holds all configuration settings
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Render RenderConfig `yaml:"render" mapstructure:"render"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Accept    string        `yaml:"accept" mapstructure:"accept"`
	MaxBytes  int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"` // empty keeps the cache in memory
	// TTL applies when a response carries no caching headers
	TTL    time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxTTL time.Duration `yaml:"max_ttl" mapstructure:"max_ttl"`
}

type RenderConfig struct {
	Indent string `yaml:"indent" mapstructure:"indent"` // "space" or "nbsp"
	Color  bool   `yaml:"color" mapstructure:"color"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "text" or "json"
}

// DefaultAccept lists every supported media type, preferring the formats
// that decode incrementally
func DefaultAccept() string {
	weights := map[string]string{
		"text/turtle":           "",
		"application/n-triples": "",
		"application/n-quads":   ";q=0.9",
		"application/trig":      ";q=0.9",
		"text/n3":               ";q=0.8",
		"application/rdf+xml":   ";q=0.8",
		"application/ld+json":   ";q=0.7",
	}
	var parts []string
	for _, mt := range rdf.SupportedMediaTypes() {
		parts = append(parts, mt+weights[mt])
	}
	return strings.Join(parts, ", ")
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "localhost:8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:   30 * time.Second,
			Accept:    DefaultAccept(),
			MaxBytes:  64 * 1024 * 1024,
			UserAgent: "rdfpreview/1.0",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
			MaxTTL:  24 * time.Hour,
		},
		Render: RenderConfig{
			Indent: "space",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from path, or from .rdfpreview/config.yaml or
// ./config.yaml when path is empty. Environment variables prefixed with
// RDFPREVIEW_ override file values, e.g. RDFPREVIEW_SERVER_ADDR.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix("RDFPREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".rdfpreview")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Cache.Dir = expandPath(cfg.Cache.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override it
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("fetch.timeout", cfg.Fetch.Timeout)
	v.SetDefault("fetch.accept", cfg.Fetch.Accept)
	v.SetDefault("fetch.max_bytes", cfg.Fetch.MaxBytes)
	v.SetDefault("fetch.user_agent", cfg.Fetch.UserAgent)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.max_ttl", cfg.Cache.MaxTTL)
	v.SetDefault("render.indent", cfg.Render.Indent)
	v.SetDefault("render.color", cfg.Render.Color)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// loadEnvFiles loads .env files in order of precedence. godotenv never
// overrides variables that are already set.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Render.Indent {
	case "space", "nbsp":
	default:
		return fmt.Errorf("invalid render.indent %q: must be space or nbsp", c.Render.Indent)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("invalid fetch.max_bytes %d: must be positive", c.Fetch.MaxBytes)
	}
	return nil
}

// YAML returns the configuration as a YAML document
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
