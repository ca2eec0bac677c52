// Package config handles configuration and credentials for qsemantic.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/diogo/qsemantic/internal/errors"
	"github.com/diogo/qsemantic/internal/models"
)

// Backends for the analysis client
const (
	BackendSDK  = "sdk"
	BackendREST = "rest"
)

// Environment variables holding the API credential, in lookup order
var apiKeyEnvVars = []string{"GEMINI_API_KEY", "API_KEY"}

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	DefaultModel string `json:"default_model"`
	// Backend selects the transport: "sdk" (genai client) or "rest".
	Backend string `json:"backend"`
	// TimeoutSeconds bounds a single analysis request.
	TimeoutSeconds int `json:"timeout_seconds"`
	// APIKey is used only when no credential is found in the environment.
	APIKey string `json:"api_key,omitempty"`
	// Verbose enables debug logging and [verbose] lines in one-shot mode.
	Verbose         bool `json:"verbose"`
	CopyToClipboard bool `json:"copy_to_clipboard"`
	SaveHistory     bool `json:"save_history"`
	// Reveal delay bounds, in milliseconds. Each step waits [min, max).
	RevealMinDelayMS int            `json:"reveal_min_delay_ms"`
	RevealMaxDelayMS int            `json:"reveal_max_delay_ms"`
	TUITheme         string         `json:"tui_theme,omitempty"` // TUI color theme
	Markdown         MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		DefaultModel:     models.DefaultModel,
		Backend:          BackendSDK,
		TimeoutSeconds:   60,
		Verbose:          false,
		CopyToClipboard:  false,
		SaveHistory:      false,
		RevealMinDelayMS: 15,
		RevealMaxDelayMS: 40,
		TUITheme:         "quantum",
		Markdown:         DefaultMarkdownConfig(),
	}
}

// Timeout returns the request timeout as a duration
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RevealDelays returns the reveal step delay bounds
func (c Config) RevealDelays() (time.Duration, time.Duration) {
	lo, hi := c.RevealMinDelayMS, c.RevealMaxDelayMS
	if lo <= 0 {
		lo = 15
	}
	if hi <= lo {
		hi = lo + 1
	}
	return time.Duration(lo) * time.Millisecond, time.Duration(hi) * time.Millisecond
}

// Validate checks values that would otherwise fail late
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSDK, BackendREST:
	default:
		return fmt.Errorf("invalid backend %q (want %s or %s)", c.Backend, BackendSDK, BackendREST)
	}
	if c.DefaultModel == "" {
		return fmt.Errorf("default_model cannot be empty")
	}
	if c.RevealMinDelayMS < 0 || c.RevealMaxDelayMS < 0 {
		return fmt.Errorf("reveal delays cannot be negative")
	}
	return nil
}

// ResolveAPIKey returns the credential from the environment, falling back
// to the config file.
func ResolveAPIKey(cfg Config) (string, error) {
	for _, name := range apiKeyEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
	}
	if k := strings.TrimSpace(cfg.APIKey); k != "" {
		return k, nil
	}
	return "", fmt.Errorf("%w: set %s or run 'qsemantic config set api_key <key>'",
		apierrors.ErrNoAPIKey, apiKeyEnvVars[0])
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv("QSEMANTIC_HOME"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".qsemantic"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the config file may hold an API key
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path to the log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "qsemantic.log"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setters maps config keys accepted by SetValue to their parsers
var setters = map[string]func(*Config, string) error{
	"default_model": func(c *Config, v string) error { c.DefaultModel = v; return nil },
	"backend":       func(c *Config, v string) error { c.Backend = strings.ToLower(v); return nil },
	"api_key":       func(c *Config, v string) error { c.APIKey = v; return nil },
	"tui_theme":     func(c *Config, v string) error { c.TUITheme = strings.ToLower(v); return nil },
	"markdown.style": func(c *Config, v string) error {
		c.Markdown.Style = v
		return nil
	},
	"timeout_seconds":     intSetter(func(c *Config) *int { return &c.TimeoutSeconds }),
	"reveal_min_delay_ms": intSetter(func(c *Config) *int { return &c.RevealMinDelayMS }),
	"reveal_max_delay_ms": intSetter(func(c *Config) *int { return &c.RevealMaxDelayMS }),
	"verbose":             boolSetter(func(c *Config) *bool { return &c.Verbose }),
	"copy_to_clipboard":   boolSetter(func(c *Config) *bool { return &c.CopyToClipboard }),
	"save_history":        boolSetter(func(c *Config) *bool { return &c.SaveHistory }),
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", v, err)
		}
		*field(c) = n
		return nil
	}
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", v, err)
		}
		*field(c) = b
		return nil
	}
}

// SetValue updates a single key and validates the result
func (c *Config) SetValue(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}

	next := *c
	if err := set(&next, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}

	*c = next
	return nil
}

// Keys returns the settable config keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
