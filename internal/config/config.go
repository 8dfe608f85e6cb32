// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for mira.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.mira/config.toml
//   - ~/.mira/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/cosmoscoderrs/mira-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete mira configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// Inference configuration (model + sampling)
	Inference InferenceConfig `toml:"inference" json:"inference"`

	// Server configuration (relay endpoint selection)
	Server ServerConfig `toml:"server" json:"server"`

	// Relay configuration (mira-relay proxy binary)
	Relay RelayConfig `toml:"relay" json:"relay"`

	// Call configuration (live voice calls and check-ins)
	Call CallConfig `toml:"call" json:"call"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// InferenceConfig contains the model name and sampling parameters sent with
// every chat completion request.
type InferenceConfig struct {
	// Model is the Ollama model tag used for companion replies
	Model string `toml:"model" json:"model"`
	// Temperature controls sampling randomness (0.0-2.0)
	Temperature float64 `toml:"temperature" json:"temperature"`
	// TopP is the nucleus sampling cutoff (0.0-1.0)
	TopP float64 `toml:"top_p" json:"top_p"`
	// TopK limits sampling to the K most likely tokens
	TopK int `toml:"top_k" json:"top_k"`
	// NumPredict caps the number of generated tokens per reply
	NumPredict int `toml:"num_predict" json:"num_predict"`
	// NumCtx is the context window size in tokens
	NumCtx int `toml:"num_ctx" json:"num_ctx"`
	// RepeatPenalty discourages verbatim repetition
	RepeatPenalty float64 `toml:"repeat_penalty" json:"repeat_penalty"`
	// HistoryWindow is how many recent messages are replayed per request
	HistoryWindow int `toml:"history_window" json:"history_window"`
	// ReflectionEvery inserts a reflection hint every N user messages (0 = off)
	ReflectionEvery int `toml:"reflection_every" json:"reflection_every"`
	// RequestTimeoutSecs is the HTTP timeout for non-streaming requests
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
}

// ServerConfig controls which relay endpoint the client talks to.
//
// The client normally targets a relay on the same machine. Deployments that
// publish a hosted relay set RemoteURL and PublicHost; when the machine's
// hostname matches PublicHost (or MIRA_REMOTE is set) the remote endpoint
// is used instead.
type ServerConfig struct {
	// LocalURL is the relay chat endpoint on this machine
	LocalURL string `toml:"local_url" json:"local_url"`
	// RemoteURL is the hosted relay chat endpoint
	RemoteURL string `toml:"remote_url" json:"remote_url"`
	// PublicHost selects RemoteURL when it matches the machine hostname
	PublicHost string `toml:"public_host" json:"public_host"`
	// ForceRemote always selects RemoteURL regardless of hostname
	ForceRemote bool `toml:"force_remote" json:"force_remote"`
}

// RelayConfig contains settings for the mira-relay proxy binary.
type RelayConfig struct {
	// ListenAddr is the address the relay listens on
	ListenAddr string `toml:"listen_addr" json:"listen_addr"`
	// OllamaURL is the upstream Ollama server the relay forwards to
	OllamaURL string `toml:"ollama_url" json:"ollama_url"`
}

// CallConfig contains live-call and check-in behavior settings.
type CallConfig struct {
	// InactivityCheckinHours triggers a gentle check-in when the last
	// message is the user's and this many hours have passed (0 = off)
	InactivityCheckinHours int `toml:"inactivity_checkin_hours" json:"inactivity_checkin_hours"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// DarkStartHour is the hour (0-23) when "auto" switches to dark
	DarkStartHour int `toml:"dark_start_hour" json:"dark_start_hour"`
	// DarkEndHour is the hour (0-23) when "auto" switches back to light
	DarkEndHour int `toml:"dark_end_hour" json:"dark_end_hour"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Inference: InferenceConfig{
			Model:              "gemma3:4b",
			Temperature:        0.8,
			TopP:               0.9,
			TopK:               50,
			NumPredict:         600,
			NumCtx:             2048,
			RepeatPenalty:      1.2,
			HistoryWindow:      6,
			ReflectionEvery:    15,
			RequestTimeoutSecs: 120,
		},

		Server: ServerConfig{
			LocalURL:    "http://localhost:3000/api/chat",
			RemoteURL:   "",
			PublicHost:  "",
			ForceRemote: false,
		},

		Relay: RelayConfig{
			ListenAddr: ":3000",
			OllamaURL:  "http://localhost:11434",
		},

		Call: CallConfig{
			InactivityCheckinHours: 4,
		},

		UI: UIConfig{
			Theme:         "auto",
			DarkStartHour: 20, // 8pm
			DarkEndHour:   6,  // 6am
			CompactMode:   false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the mira configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mira"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err // File doesn't exist or not accessible
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
// CONFIG: Comprehensive validation ensures safe configuration
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Defaults only
	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// finishLoad applies env overrides, migration, defaults, and validation.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Log warning but don't fail - permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// Determine file type and load accordingly
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	// Write header comment
	fmt.Fprintln(file, "# mira configuration file")
	fmt.Fprintln(file, "# Generated by mira - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
// CONFIG: Comprehensive validation ensures safe configuration
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Inference Settings Validation
	// ==========================================================================

	if c.Inference.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "inference.model",
			Message: "model must not be empty",
		})
	}
	if c.Inference.Temperature < 0 || c.Inference.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "inference.temperature",
			Message: fmt.Sprintf("must be between 0.0 and 2.0, got %g", c.Inference.Temperature),
		})
	}
	if c.Inference.TopP < 0 || c.Inference.TopP > 1 {
		errs = append(errs, ValidationError{
			Field:   "inference.top_p",
			Message: fmt.Sprintf("must be between 0.0 and 1.0, got %g", c.Inference.TopP),
		})
	}
	if c.Inference.TopK < 0 {
		errs = append(errs, ValidationError{
			Field:   "inference.top_k",
			Message: "must be non-negative",
		})
	}
	if c.Inference.NumPredict < 1 {
		errs = append(errs, ValidationError{
			Field:   "inference.num_predict",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Inference.NumPredict),
		})
	}
	if c.Inference.NumCtx < 1 {
		errs = append(errs, ValidationError{
			Field:   "inference.num_ctx",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Inference.NumCtx),
		})
	}
	if c.Inference.RepeatPenalty < 0 {
		errs = append(errs, ValidationError{
			Field:   "inference.repeat_penalty",
			Message: "must be non-negative",
		})
	}
	if c.Inference.HistoryWindow < 1 {
		errs = append(errs, ValidationError{
			Field:   "inference.history_window",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Inference.HistoryWindow),
		})
	}
	if c.Inference.ReflectionEvery < 0 {
		errs = append(errs, ValidationError{
			Field:   "inference.reflection_every",
			Message: "must be non-negative (0 disables reflection hints)",
		})
	}
	if c.Inference.RequestTimeoutSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "inference.request_timeout_secs",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Inference.RequestTimeoutSecs),
		})
	}

	// ==========================================================================
	// Server Settings Validation
	// ==========================================================================

	if c.Server.LocalURL != "" {
		if _, err := url.Parse(c.Server.LocalURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "server.local_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}
	if c.Server.RemoteURL != "" {
		if _, err := url.Parse(c.Server.RemoteURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "server.remote_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}
	if c.Server.ForceRemote && c.Server.RemoteURL == "" {
		errs = append(errs, ValidationError{
			Field:   "server.force_remote",
			Message: "force_remote requires server.remote_url to be set",
		})
	}

	// ==========================================================================
	// Relay Settings Validation
	// ==========================================================================

	if c.Relay.ListenAddr == "" {
		errs = append(errs, ValidationError{
			Field:   "relay.listen_addr",
			Message: "listen_addr must not be empty",
		})
	}
	if c.Relay.OllamaURL != "" {
		if _, err := url.Parse(c.Relay.OllamaURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "relay.ollama_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	// ==========================================================================
	// Call Settings Validation
	// ==========================================================================

	if c.Call.InactivityCheckinHours < 0 {
		errs = append(errs, ValidationError{
			Field:   "call.inactivity_checkin_hours",
			Message: "must be non-negative (0 disables check-ins)",
		})
	}

	// ==========================================================================
	// UI Settings Validation
	// ==========================================================================

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.DarkStartHour < 0 || c.UI.DarkStartHour > 23 {
		errs = append(errs, ValidationError{
			Field:   "ui.dark_start_hour",
			Message: fmt.Sprintf("must be 0-23, got %d", c.UI.DarkStartHour),
		})
	}
	if c.UI.DarkEndHour < 0 || c.UI.DarkEndHour > 23 {
		errs = append(errs, ValidationError{
			Field:   "ui.dark_end_hour",
			Message: fmt.Sprintf("must be 0-23, got %d", c.UI.DarkEndHour),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	// Inference defaults
	if c.Inference.Model == "" {
		c.Inference.Model = defaults.Inference.Model
	}
	if c.Inference.Temperature == 0 {
		c.Inference.Temperature = defaults.Inference.Temperature
	}
	if c.Inference.TopP == 0 {
		c.Inference.TopP = defaults.Inference.TopP
	}
	if c.Inference.TopK == 0 {
		c.Inference.TopK = defaults.Inference.TopK
	}
	if c.Inference.NumPredict == 0 {
		c.Inference.NumPredict = defaults.Inference.NumPredict
	}
	if c.Inference.NumCtx == 0 {
		c.Inference.NumCtx = defaults.Inference.NumCtx
	}
	if c.Inference.RepeatPenalty == 0 {
		c.Inference.RepeatPenalty = defaults.Inference.RepeatPenalty
	}
	if c.Inference.HistoryWindow == 0 {
		c.Inference.HistoryWindow = defaults.Inference.HistoryWindow
	}
	if c.Inference.RequestTimeoutSecs == 0 {
		c.Inference.RequestTimeoutSecs = defaults.Inference.RequestTimeoutSecs
	}

	// Server defaults
	if c.Server.LocalURL == "" {
		c.Server.LocalURL = defaults.Server.LocalURL
	}

	// Relay defaults
	if c.Relay.ListenAddr == "" {
		c.Relay.ListenAddr = defaults.Relay.ListenAddr
	}
	if c.Relay.OllamaURL == "" {
		c.Relay.OllamaURL = defaults.Relay.OllamaURL
	}

	// UI defaults
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.DarkStartHour == 0 && c.UI.DarkEndHour == 0 {
		c.UI.DarkStartHour = defaults.UI.DarkStartHour
		c.UI.DarkEndHour = defaults.UI.DarkEndHour
	}
}

// Migrate handles migration from old configuration formats to new ones.
func (c *Config) Migrate() error {
	// Normalize theme casing
	c.UI.Theme = strings.ToLower(c.UI.Theme)

	// Older configs used "night" for the dark theme
	if c.UI.Theme == "night" {
		c.UI.Theme = "dark"
	}

	// Endpoint URLs are compared and joined without trailing slashes
	c.Server.LocalURL = strings.TrimSuffix(c.Server.LocalURL, "/")
	c.Server.RemoteURL = strings.TrimSuffix(c.Server.RemoteURL, "/")
	c.Relay.OllamaURL = strings.TrimSuffix(c.Relay.OllamaURL, "/")

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MIRA_MODEL: overrides inference.model
//   - MIRA_ENDPOINT: overrides server.local_url
//   - MIRA_REMOTE: set to "1" or "true" to force the remote endpoint
//   - MIRA_OLLAMA_URL: overrides relay.ollama_url
//   - MIRA_LISTEN_ADDR: overrides relay.listen_addr
//   - MIRA_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	// MIRA_MODEL
	if model := os.Getenv("MIRA_MODEL"); model != "" {
		c.Inference.Model = model
	}

	// MIRA_ENDPOINT
	if endpoint := os.Getenv("MIRA_ENDPOINT"); endpoint != "" {
		c.Server.LocalURL = endpoint
	}

	// MIRA_REMOTE
	if remote := os.Getenv("MIRA_REMOTE"); remote != "" {
		c.Server.ForceRemote = remote == "1" || strings.ToLower(remote) == "true"
	}

	// MIRA_OLLAMA_URL
	if url := os.Getenv("MIRA_OLLAMA_URL"); url != "" {
		c.Relay.OllamaURL = url
	}

	// MIRA_LISTEN_ADDR
	if addr := os.Getenv("MIRA_LISTEN_ADDR"); addr != "" {
		c.Relay.ListenAddr = addr
	}

	// MIRA_THEME
	if theme := os.Getenv("MIRA_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// ENDPOINT SELECTION
// =============================================================================

// Endpoint returns the chat endpoint the client should talk to.
//
// The remote endpoint is selected when ForceRemote is set, or when PublicHost
// is configured and matches the machine hostname. Everything else uses the
// local relay.
func (c *Config) Endpoint() string {
	if c.Server.RemoteURL != "" {
		if c.Server.ForceRemote {
			return c.Server.RemoteURL
		}
		if c.Server.PublicHost != "" {
			if host, err := os.Hostname(); err == nil && strings.EqualFold(host, c.Server.PublicHost) {
				return c.Server.RemoteURL
			}
		}
	}
	return c.Server.LocalURL
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
