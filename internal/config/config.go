// Package config handles vidsub configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order used when no
// explicit path is given: ./vidsub.yaml, then ~/.config/vidsub/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"vidsub.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "vidsub", "config.yaml"))
	}
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise the first existing entry of DefaultSearchPaths is returned, or ""
// when none exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// Config holds all vidsub configuration.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Cache     CacheConfig     `yaml:"cache"`
	Languages LanguagesConfig `yaml:"languages"`
	Translate TranslateConfig `yaml:"translate"`
	Server    ServerConfig    `yaml:"server"`
	LogLevel  string          `yaml:"log_level"`
}

// BackendConfig points at the video library backend.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig controls the local SQLite track cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LanguagesConfig sets the default language codes for the two tracks.
type LanguagesConfig struct {
	Primary     string `yaml:"primary"`
	Translation string `yaml:"translation"`
}

// TranslateConfig defines LLM translation settings. API keys are never
// read from the file; they come from flags or the provider env vars.
type TranslateConfig struct {
	Provider    string `yaml:"provider"` // gemini, openai, anthropic
	Model       string `yaml:"model"`
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
	ContextSize int    `yaml:"context_size"` // neighbouring lines sent as context
}

// ServerConfig defines the local HTTP adapter.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cachePath := "vidsub-tracks.db"
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		cachePath = filepath.Join(dir, "vidsub", "tracks.db")
	}

	return &Config{
		Backend: BackendConfig{
			URL:     "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    cachePath,
		},
		Languages: LanguagesConfig{
			Primary:     "zh",
			Translation: "en",
		},
		Translate: TranslateConfig{
			Provider:    "gemini",
			BatchSize:   50,
			Concurrency: 3,
			ContextSize: 2,
		},
		Server: ServerConfig{
			Address: "127.0.0.1",
			Port:    8089,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from a YAML file. Environment variables in the
// file are expanded and unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault finds and loads a config file, falling back to Default
// when no file exists. It returns the path used ("" for defaults).
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Validate checks field values that would otherwise fail later at use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.URL) == "" {
		return fmt.Errorf("backend.url is required")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required when the cache is enabled")
	}
	switch c.Translate.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf(
			"unsupported translate.provider %q (valid: gemini, openai, anthropic)",
			c.Translate.Provider,
		)
	}
	if c.Translate.BatchSize <= 0 {
		return fmt.Errorf("translate.batch_size must be positive, got %d", c.Translate.BatchSize)
	}
	if c.Translate.Concurrency <= 0 {
		return fmt.Errorf("translate.concurrency must be positive, got %d", c.Translate.Concurrency)
	}
	if c.Translate.ContextSize < 0 {
		return fmt.Errorf("translate.context_size must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
