// Package config loads dashgen configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (DASHGEN_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .dashgen.yaml in current directory
//  2. ~/.config/dashgen/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/timvw/dashgen/internal/protocol"
)

// Supported providers.
const (
	ProviderThesys    = "thesys"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all dashgen configuration.
type Config struct {
	// Generation settings
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`    // empty means the provider default
	BaseURL     string   `yaml:"base_url"` // empty means the provider default
	APIKey      string   `yaml:"api_key"`
	MaxTokens   int64    `yaml:"max_tokens"` // 0 lets the prompt registry choose
	Temperature *float64 `yaml:"temperature"`

	// Endpoint is a remote panel endpoint (a `dashgen serve` instance).
	// When set, the dashboard posts there instead of calling the model.
	Endpoint string `yaml:"endpoint"`

	// Server settings
	Addr     string `yaml:"addr"`
	CacheTTL string `yaml:"cache_ttl"` // Go duration string, e.g. "5m"; "0" disables

	// Fetch settings
	RequestTimeout string `yaml:"request_timeout"` // Go duration string
	Parallel       int    `yaml:"parallel"`        // max concurrent fetches outside the dashboard

	// Dashboard settings
	Theme  string        `yaml:"theme"`  // "dark" or "light"
	Socket string        `yaml:"socket"` // command inbox path; empty means the default
	Panels []PanelConfig `yaml:"panels"` // initial layout; empty means the named panels

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs, e.g. "Authorization=Basic abc123"

	// Parsed durations (not from YAML, set after loading)
	CacheTTLDuration       time.Duration `yaml:"-"`
	RequestTimeoutDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// PanelConfig describes one panel of the initial layout.
type PanelConfig struct {
	// Key selects a named instruction set. Also used as the panel id.
	Key      string `yaml:"key"`
	Title    string `yaml:"title"`
	Kind     string `yaml:"kind"` // "rich" (default) or "chat"
	Prompt   string `yaml:"prompt"`
	HasInput *bool  `yaml:"has_input"`
}

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature = 0.7

// Defaults returns a Config with all default values.
func Defaults() *Config {
	temp := DefaultTemperature
	return &Config{
		Provider:       ProviderThesys,
		Temperature:    &temp,
		Addr:           ":3000",
		CacheTTL:       "0",
		RequestTimeout: "60s",
		Parallel:       6,
		Theme:          "dark",
		LogLevel:       "info",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path
// searches the default locations; an explicit path must exist.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		path, data, err = findConfigFile()
	}
	if err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	// Environment variables override everything
	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	cfg.CacheTTLDuration, err = parseDurationOrDisable(cfg.CacheTTL, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL %q: %w", cfg.CacheTTL, err)
	}
	cfg.RequestTimeoutDuration, err = parseDurationOrDisable(cfg.RequestTimeout, 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid request timeout %q: %w", cfg.RequestTimeout, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderThesys, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider %q (supported: thesys, openai, anthropic)", c.Provider)
	}
	switch c.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("unknown theme %q (supported: dark, light)", c.Theme)
	}
	seen := make(map[string]bool, len(c.Panels))
	for i, p := range c.Panels {
		if p.Kind != "" {
			if _, ok := protocol.ParseKind(p.Kind); !ok {
				return fmt.Errorf("panels[%d]: unknown kind %q", i, p.Kind)
			}
		}
		if p.Key != "" {
			if seen[p.Key] {
				return fmt.Errorf("panels[%d]: duplicate key %q", i, p.Key)
			}
			seen[p.Key] = true
		}
	}
	return nil
}

// TemperatureValue returns the configured temperature or the default.
func (c *Config) TemperatureValue() float64 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	if data, err := os.ReadFile(".dashgen.yaml"); err == nil {
		return ".dashgen.yaml", data, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "dashgen", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	setString(&cfg.Provider, file.Provider)
	setString(&cfg.Model, file.Model)
	setString(&cfg.BaseURL, file.BaseURL)
	setString(&cfg.APIKey, file.APIKey)
	if file.MaxTokens > 0 {
		cfg.MaxTokens = file.MaxTokens
	}
	if file.Temperature != nil {
		cfg.Temperature = file.Temperature
	}
	setString(&cfg.Endpoint, file.Endpoint)
	setString(&cfg.Addr, file.Addr)
	setString(&cfg.CacheTTL, file.CacheTTL)
	setString(&cfg.RequestTimeout, file.RequestTimeout)
	if file.Parallel > 0 {
		cfg.Parallel = file.Parallel
	}
	setString(&cfg.Theme, file.Theme)
	setString(&cfg.Socket, file.Socket)
	if len(file.Panels) > 0 {
		cfg.Panels = file.Panels
	}
	setString(&cfg.LogLevel, file.LogLevel)
	setString(&cfg.LogFile, file.LogFile)
	setString(&cfg.OTELEndpoint, file.OTELEndpoint)
	setString(&cfg.OTELHeaders, file.OTELHeaders)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) error {
	for key, dst := range map[string]*string{
		"DASHGEN_PROVIDER":            &cfg.Provider,
		"DASHGEN_MODEL":               &cfg.Model,
		"DASHGEN_BASE_URL":            &cfg.BaseURL,
		"DASHGEN_API_KEY":             &cfg.APIKey,
		"DASHGEN_ENDPOINT":            &cfg.Endpoint,
		"DASHGEN_ADDR":                &cfg.Addr,
		"DASHGEN_CACHE_TTL":           &cfg.CacheTTL,
		"DASHGEN_REQUEST_TIMEOUT":     &cfg.RequestTimeout,
		"DASHGEN_THEME":               &cfg.Theme,
		"DASHGEN_SOCKET":              &cfg.Socket,
		"DASHGEN_LOG_LEVEL":           &cfg.LogLevel,
		"DASHGEN_LOG_FILE":            &cfg.LogFile,
		"OTEL_EXPORTER_OTLP_ENDPOINT": &cfg.OTELEndpoint,
		"OTEL_EXPORTER_OTLP_HEADERS":  &cfg.OTELHeaders,
	} {
		setString(dst, os.Getenv(key))
	}

	if v := os.Getenv("DASHGEN_MAX_TOKENS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid DASHGEN_MAX_TOKENS %q: %w", v, err)
		}
		cfg.MaxTokens = n
	}
	if v := os.Getenv("DASHGEN_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid DASHGEN_TEMPERATURE %q: %w", v, err)
		}
		cfg.Temperature = &f
	}
	if v := os.Getenv("DASHGEN_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DASHGEN_PARALLEL %q: %w", v, err)
		}
		cfg.Parallel = n
	}

	// API key fallbacks
	if cfg.APIKey == "" {
		for _, key := range apiKeyEnv(cfg.Provider) {
			if v := os.Getenv(key); v != "" {
				cfg.APIKey = v
				break
			}
		}
	}

	// Azure base URL fallback
	if cfg.BaseURL == "" {
		if rn := os.Getenv("AZURE_RESOURCE_NAME"); rn != "" {
			switch cfg.Provider {
			case ProviderAnthropic:
				cfg.BaseURL = fmt.Sprintf("https://%s.services.ai.azure.com/anthropic/", rn)
			case ProviderOpenAI:
				cfg.BaseURL = fmt.Sprintf("https://%s.openai.azure.com/openai/v1", rn)
			}
		}
	}
	return nil
}

// apiKeyEnv lists the provider-specific API key variables in lookup order.
func apiKeyEnv(provider string) []string {
	switch provider {
	case ProviderOpenAI:
		return []string{"OPENAI_API_KEY", "AZURE_OPENAI_API_KEY"}
	case ProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY", "AZURE_OPENAI_API_KEY"}
	default:
		return []string{"THESYS_API_KEY"}
	}
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable" return 0.
// Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// IsAzureEndpoint returns true if the URL is an Azure endpoint.
func IsAzureEndpoint(url string) bool {
	return strings.Contains(url, ".azure.com") || strings.Contains(url, ".azure.us")
}
