package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/critic-dev/critic/internal/analysis"
)

// Config is the effective critic configuration.
type Config struct {
	Provider       string   `json:"provider"`
	Model          string   `json:"model"`
	Temperature    float64  `json:"temperature"`
	MaxTokens      int      `json:"maxTokens"`
	TimeoutSeconds int      `json:"timeoutSeconds"`
	Concurrency    int      `json:"concurrency"`
	RetryAttempts  int      `json:"retryAttempts"`
	RetryBaseMs    int      `json:"retryBaseMs"`
	Categories     []string `json:"categories"`
	Format         string   `json:"format"`
	FailOn         string   `json:"failOn"`
	Extensions     []string `json:"extensions"`
	MaxFileBytes   int64    `json:"maxFileBytes"`

	Cache   CacheConfig   `json:"cache"`
	Privacy PrivacyConfig `json:"privacy"`
}

// CacheConfig controls reply caching.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// PrivacyConfig controls secret redaction.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	cats := make([]string, 0, len(analysis.Categories()))
	for _, c := range analysis.Categories() {
		cats = append(cats, string(c))
	}
	return Config{
		Provider:       "openai",
		Model:          "gpt-4o-mini",
		Temperature:    0.7,
		MaxTokens:      4096,
		TimeoutSeconds: 60,
		Concurrency:    4,
		RetryAttempts:  3,
		RetryBaseMs:    1000,
		Categories:     cats,
		Format:         "text",
		FailOn:         "none",
		Extensions:     []string{".cs"},
		MaxFileBytes:   500000,
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// ConfigDir returns the platform-appropriate config directory.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "critic"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "critic"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "critic"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "critic"), nil
	default:
		return filepath.Join(home, ".config", "critic"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile reads the config file. A missing file yields a zero Config
// and nil error.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env
// <- overrides. The overrides map comes from CLI flags; only non-empty
// values take effect.
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

// Validate rejects values the rest of the pipeline cannot work with.
func Validate(cfg Config) error {
	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		return fmt.Errorf("temperature must be within [0, 1], got %g", cfg.Temperature)
	}
	if cfg.MaxTokens < 1 {
		return fmt.Errorf("maxTokens must be positive, got %d", cfg.MaxTokens)
	}
	if cfg.TimeoutSeconds < 1 {
		return fmt.Errorf("timeoutSeconds must be positive, got %d", cfg.TimeoutSeconds)
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.RetryAttempts < 1 {
		return fmt.Errorf("retryAttempts must be at least 1, got %d", cfg.RetryAttempts)
	}
	for _, name := range cfg.Categories {
		if _, err := analysis.ParseCategory(name); err != nil {
			return err
		}
	}
	switch cfg.FailOn {
	case "none", "low", "medium", "high":
	default:
		return fmt.Errorf("failOn must be none, low, medium, or high, got %q", cfg.FailOn)
	}
	return nil
}

func mergeFile(dst *Config, src Config) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Temperature > 0 {
		dst.Temperature = src.Temperature
	}
	if src.MaxTokens > 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if src.TimeoutSeconds > 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.Concurrency > 0 {
		dst.Concurrency = src.Concurrency
	}
	if src.RetryAttempts > 0 {
		dst.RetryAttempts = src.RetryAttempts
	}
	if src.RetryBaseMs > 0 {
		dst.RetryBaseMs = src.RetryBaseMs
	}
	if len(src.Categories) > 0 {
		dst.Categories = src.Categories
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.FailOn != "" {
		dst.FailOn = src.FailOn
	}
	if len(src.Extensions) > 0 {
		dst.Extensions = src.Extensions
	}
	if src.MaxFileBytes > 0 {
		dst.MaxFileBytes = src.MaxFileBytes
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	// JSON cannot distinguish unset bools from false, so a file can
	// only turn these on, not off.
	dst.Cache.Enabled = src.Cache.Enabled || dst.Cache.Enabled
	dst.Privacy.RedactSecrets = src.Privacy.RedactSecrets || dst.Privacy.RedactSecrets
	if len(src.Privacy.RedactPaths) > 0 {
		dst.Privacy.RedactPaths = src.Privacy.RedactPaths
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("CRITIC_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("CRITIC_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CRITIC_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("CRITIC_FAIL_ON"); v != "" {
		cfg.FailOn = v
	}
	if v := os.Getenv("CRITIC_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = f
		}
	}
	if v := os.Getenv("CRITIC_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokens = n
		}
	}
	if v := os.Getenv("CRITIC_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("CRITIC_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("CRITIC_CATEGORIES"); v != "" {
		cfg.Categories = splitList(v)
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	set := func(key string, apply func(string)) {
		if v, ok := overrides[key]; ok && v != "" {
			apply(v)
		}
	}
	set("provider", func(v string) { cfg.Provider = v })
	set("model", func(v string) { cfg.Model = v })
	set("format", func(v string) { cfg.Format = v })
	set("failOn", func(v string) { cfg.FailOn = v })
	set("categories", func(v string) { cfg.Categories = splitList(v) })
	set("extensions", func(v string) { cfg.Extensions = splitList(v) })
	set("temperature", func(v string) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = f
		}
	})
	set("maxTokens", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokens = n
		}
	})
	set("timeoutSeconds", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	})
	set("concurrency", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	})
}

// SetField sets a single config field by key name.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "categories":
		cfg.Categories = splitList(value)
	case "extensions":
		cfg.Extensions = splitList(value)
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("temperature must be a number: %w", err)
		}
		cfg.Temperature = f
	case "maxTokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxTokens must be an integer: %w", err)
		}
		cfg.MaxTokens = n
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeoutSeconds must be an integer: %w", err)
		}
		cfg.TimeoutSeconds = n
	case "concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("concurrency must be an integer: %w", err)
		}
		cfg.Concurrency = n
	case "retryAttempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("retryAttempts must be an integer: %w", err)
		}
		cfg.RetryAttempts = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// ParsedCategories converts the configured category names.
func (c Config) ParsedCategories() ([]analysis.Category, error) {
	out := make([]analysis.Category, 0, len(c.Categories))
	for _, name := range c.Categories {
		cat, err := analysis.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
