// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/chatmon-tui/internal/model"
	"github.com/jeranaias/chatmon-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHATMON_"

// Config represents the complete chatmon configuration.
type Config struct {
	API     APIConfig     `toml:"api" envPrefix:"API_"`
	Models  ModelsConfig  `toml:"models" envPrefix:"MODELS_"`
	Auth    AuthConfig    `toml:"auth" envPrefix:"AUTH_"`
	UI      UIConfig      `toml:"ui" envPrefix:"UI_"`
	Logging LoggingConfig `toml:"logging" envPrefix:"LOG_"`
	Tracing TracingConfig `toml:"tracing" envPrefix:"TRACING_"`
}

// APIConfig locates the chat backend.
type APIConfig struct {
	// Host is the backend base URL
	Host string `toml:"host" env:"HOST"`
	// Path is the streaming endpoint path
	Path string `toml:"path" env:"PATH"`
	// IdleTimeoutSecs ends a silent stream with an error; 0 disables it
	IdleTimeoutSecs int `toml:"idle_timeout_secs" env:"IDLE_TIMEOUT_SECS"`
	// MaxEventKB bounds a single SSE event
	MaxEventKB int `toml:"max_event_kb" env:"MAX_EVENT_KB"`
}

// ModelsConfig selects the models of both panels.
type ModelsConfig struct {
	Left    string `toml:"left" env:"LEFT"`
	Right   string `toml:"right" env:"RIGHT"`
	Compare bool   `toml:"compare" env:"COMPARE"`
	// Catalog replaces the built-in model list when non-empty
	Catalog []model.ModelInfo `toml:"catalog,omitempty"`
}

// AuthConfig configures the login check and where login state is kept.
type AuthConfig struct {
	Password string `toml:"password" env:"PASSWORD"`
	// StatePath is the SQLite file holding the token; empty means the default
	StatePath string `toml:"state_path" env:"STATE_PATH"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" env:"THEME"`
	// MaxFPS caps panel redraws while streaming
	MaxFPS int `toml:"max_fps" env:"MAX_FPS"`
	// ShowStats shows time-to-first-chunk under AI messages
	ShowStats bool `toml:"show_stats" env:"SHOW_STATS"`
	// Markdown renders AI answers as markdown
	Markdown bool `toml:"markdown" env:"MARKDOWN"`
	// WatchConfig reloads UI settings when the config file changes
	WatchConfig bool `toml:"watch_config" env:"WATCH_CONFIG"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	Level string `toml:"level" env:"LEVEL"`
	Path  string `toml:"path" env:"PATH"`
}

// TracingConfig controls span export.
type TracingConfig struct {
	Enabled    bool    `toml:"enabled" env:"ENABLED"`
	Exporter   string  `toml:"exporter" env:"EXPORTER"`
	FilePath   string  `toml:"file_path" env:"FILE_PATH"`
	SampleRate float64 `toml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Host:            "http://localhost:8080",
			Path:            "/agent/test",
			IdleTimeoutSecs: 0,
			MaxEventKB:      1024,
		},
		Models: ModelsConfig{
			Left:    model.DefaultLeftModel,
			Right:   model.DefaultRightModel,
			Compare: false,
		},
		Auth: AuthConfig{
			Password: "1234",
		},
		UI: UIConfig{
			Theme:       "dark",
			MaxFPS:      30,
			ShowStats:   false,
			Markdown:    true,
			WatchConfig: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "file",
			SampleRate: 1.0,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatmon directory, ~/.chatmon unless CHATMON_HOME
// is set.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatmon"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// ensureSecurePermissions tightens the config file to 0600; it may hold the
// shared password.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// dataPath returns configured, or name inside ConfigDir when empty.
func dataPath(configured, name string) string {
	if configured != "" {
		return configured
	}
	dir, err := ConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

// StatePath returns the login state database path.
func (c *Config) StatePath() string { return dataPath(c.Auth.StatePath, "state.db") }

// LogPath returns the log file path.
func (c *Config) LogPath() string { return dataPath(c.Logging.Path, "chatmon.log") }

// TracePath returns the span export file path.
func (c *Config) TracePath() string { return dataPath(c.Tracing.FilePath, "traces.jsonl") }

// IdleTimeout returns api.idle_timeout_secs as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.API.IdleTimeoutSecs) * time.Second
}

// Catalog returns the configured model list, or the built-in one.
func (c *Config) Catalog() model.Catalog {
	if len(c.Models.Catalog) > 0 {
		return model.Catalog(c.Models.Catalog)
	}
	return model.DefaultCatalog
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.chatmon/config.toml when present, otherwise starts from
// defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return LoadFromPath(path)
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys missing from the file keep their
// current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Not fatal; some filesystems cannot change modes.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// finish applies env overrides, fills blanks and validates.
func (c *Config) finish() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides sets fields from CHATMON_* variables, e.g.
// CHATMON_API_HOST or CHATMON_MODELS_COMPARE.
func (c *Config) ApplyEnvOverrides() error {
	return env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix})
}

// SetDefaults fills empty fields with defaults.
func (c *Config) SetDefaults() {
	d := Default()

	if c.API.Host == "" {
		c.API.Host = d.API.Host
	}
	if c.API.Path == "" {
		c.API.Path = d.API.Path
	}
	if c.API.MaxEventKB == 0 {
		c.API.MaxEventKB = d.API.MaxEventKB
	}
	if c.Models.Left == "" {
		c.Models.Left = d.Models.Left
	}
	if c.Models.Right == "" {
		c.Models.Right = d.Models.Right
	}
	if c.Auth.Password == "" {
		c.Auth.Password = d.Auth.Password
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.MaxFPS == 0 {
		c.UI.MaxFPS = d.UI.MaxFPS
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = d.Tracing.Exporter
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = d.Tracing.SampleRate
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode renders cfg as commented TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# chatmon configuration file")
	fmt.Fprintln(&buf, "# Environment variables (CHATMON_API_HOST, CHATMON_MODELS_LEFT, ...) override these values.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// String returns the TOML form with the password masked.
func (c *Config) String() string {
	masked := *c
	if masked.Auth.Password != "" {
		masked.Auth.Password = "****"
	}
	data, err := masked.Encode()
	if err != nil {
		return err.Error()
	}
	return string(data)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// API
	if u, err := url.Parse(c.API.Host); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.host", "invalid URL '%s', must be http(s)://host[:port]", c.API.Host)
	}
	if !strings.HasPrefix(c.API.Path, "/") {
		add("api.path", "must start with '/'")
	}
	if c.API.IdleTimeoutSecs < 0 {
		add("api.idle_timeout_secs", "cannot be negative")
	}
	if c.API.MaxEventKB < 1 || c.API.MaxEventKB > 65536 {
		add("api.max_event_kb", "must be between 1 and 65536, got %d", c.API.MaxEventKB)
	}

	// Models
	catalog := c.Catalog()
	if err := catalog.Validate(); err != nil {
		add("models.catalog", "%v", err)
	}
	if _, ok := catalog.Lookup(c.Models.Left); !ok {
		add("models.left", "unknown model '%s', must be one of: %s", c.Models.Left, strings.Join(catalog.IDs(), ", "))
	}
	if _, ok := catalog.Lookup(c.Models.Right); !ok {
		add("models.right", "unknown model '%s', must be one of: %s", c.Models.Right, strings.Join(catalog.IDs(), ", "))
	}

	// UI
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)
	}
	if c.UI.MaxFPS < 1 || c.UI.MaxFPS > 120 {
		add("ui.max_fps", "must be between 1 and 120, got %d", c.UI.MaxFPS)
	}

	// Logging
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", "invalid level '%s'", c.Logging.Level)
	}

	// Tracing
	switch c.Tracing.Exporter {
	case "file", "none":
	default:
		add("tracing.exporter", "invalid exporter '%s', must be one of: file, none", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		add("tracing.sample_rate", "must be between 0 and 1")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig   *Config
	globalConfigMu sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
// Load failures fall back to defaults.
func Global() *Config {
	globalConfigMu.RLock()
	cfg := globalConfig
	globalConfigMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	if globalConfig == nil {
		loaded, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			loaded = Default()
		}
		globalConfig = loaded
	}
	return globalConfig
}

// SetGlobal replaces the process-wide configuration. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the process-wide configuration.
func ResetGlobalForTesting() {
	SetGlobal(nil)
}

// IsValidation reports whether err carries validation errors.
func IsValidation(err error) bool {
	var v ValidateErrors
	return errors.As(err, &v)
}
