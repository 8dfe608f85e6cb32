// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Inference.Model != "gemma3:4b" {
		t.Errorf("default model = %q, want gemma3:4b", cfg.Inference.Model)
	}
	if cfg.Inference.Temperature != 0.8 {
		t.Errorf("default temperature = %g, want 0.8", cfg.Inference.Temperature)
	}
	if cfg.Inference.TopP != 0.9 {
		t.Errorf("default top_p = %g, want 0.9", cfg.Inference.TopP)
	}
	if cfg.Inference.TopK != 50 {
		t.Errorf("default top_k = %d, want 50", cfg.Inference.TopK)
	}
	if cfg.Inference.NumPredict != 600 {
		t.Errorf("default num_predict = %d, want 600", cfg.Inference.NumPredict)
	}
	if cfg.Inference.NumCtx != 2048 {
		t.Errorf("default num_ctx = %d, want 2048", cfg.Inference.NumCtx)
	}
	if cfg.Inference.RepeatPenalty != 1.2 {
		t.Errorf("default repeat_penalty = %g, want 1.2", cfg.Inference.RepeatPenalty)
	}
	if cfg.Inference.HistoryWindow != 6 {
		t.Errorf("default history_window = %d, want 6", cfg.Inference.HistoryWindow)
	}
	if cfg.Inference.ReflectionEvery != 15 {
		t.Errorf("default reflection_every = %d, want 15", cfg.Inference.ReflectionEvery)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty model", func(c *Config) { c.Inference.Model = "" }, "inference.model"},
		{"temperature too high", func(c *Config) { c.Inference.Temperature = 2.5 }, "inference.temperature"},
		{"top_p too high", func(c *Config) { c.Inference.TopP = 1.5 }, "inference.top_p"},
		{"negative top_k", func(c *Config) { c.Inference.TopK = -1 }, "inference.top_k"},
		{"zero num_predict", func(c *Config) { c.Inference.NumPredict = 0 }, "inference.num_predict"},
		{"zero history window", func(c *Config) { c.Inference.HistoryWindow = 0 }, "inference.history_window"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"bad dark hour", func(c *Config) { c.UI.DarkStartHour = 25 }, "ui.dark_start_hour"},
		{"force remote without url", func(c *Config) { c.Server.ForceRemote = true }, "server.force_remote"},
		{"empty listen addr", func(c *Config) { c.Relay.ListenAddr = "" }, "relay.listen_addr"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error for %s", tc.field)
			}

			errs, ok := err.(ValidateErrors)
			if !ok {
				t.Fatalf("expected ValidateErrors, got %T", err)
			}
			found := false
			for _, e := range errs {
				if e.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %s, got %v", tc.field, errs)
			}
		})
	}
}

func TestSetDefaults_FillsMissing(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Inference.Model != "gemma3:4b" {
		t.Errorf("model not defaulted: %q", cfg.Inference.Model)
	}
	if cfg.Server.LocalURL == "" {
		t.Error("local_url not defaulted")
	}
	if cfg.Relay.OllamaURL != "http://localhost:11434" {
		t.Errorf("ollama_url not defaulted: %q", cfg.Relay.OllamaURL)
	}
	if cfg.UI.DarkStartHour != 20 || cfg.UI.DarkEndHour != 6 {
		t.Errorf("dark hours not defaulted: %d-%d", cfg.UI.DarkStartHour, cfg.UI.DarkEndHour)
	}
}

func TestSetDefaults_PreservesExplicit(t *testing.T) {
	cfg := &Config{}
	cfg.Inference.Model = "llama3:8b"
	cfg.UI.Theme = "light"
	cfg.SetDefaults()

	if cfg.Inference.Model != "llama3:8b" {
		t.Errorf("explicit model overwritten: %q", cfg.Inference.Model)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("explicit theme overwritten: %q", cfg.UI.Theme)
	}
}

func TestMigrate_NormalizesTheme(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "Night"

	if err := cfg.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("theme = %q, want dark", cfg.UI.Theme)
	}
}

func TestMigrate_TrimsTrailingSlashes(t *testing.T) {
	cfg := Default()
	cfg.Server.LocalURL = "http://localhost:3000/api/chat/"
	cfg.Relay.OllamaURL = "http://localhost:11434/"

	if err := cfg.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if cfg.Server.LocalURL != "http://localhost:3000/api/chat" {
		t.Errorf("local_url = %q", cfg.Server.LocalURL)
	}
	if cfg.Relay.OllamaURL != "http://localhost:11434" {
		t.Errorf("ollama_url = %q", cfg.Relay.OllamaURL)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MIRA_MODEL", "qwen2.5:7b")
	t.Setenv("MIRA_ENDPOINT", "http://localhost:9999/api/chat")
	t.Setenv("MIRA_THEME", "dark")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Inference.Model != "qwen2.5:7b" {
		t.Errorf("MIRA_MODEL not applied: %q", cfg.Inference.Model)
	}
	if cfg.Server.LocalURL != "http://localhost:9999/api/chat" {
		t.Errorf("MIRA_ENDPOINT not applied: %q", cfg.Server.LocalURL)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("MIRA_THEME not applied: %q", cfg.UI.Theme)
	}
}

func TestEndpoint_LocalByDefault(t *testing.T) {
	cfg := Default()
	if got := cfg.Endpoint(); got != cfg.Server.LocalURL {
		t.Errorf("Endpoint() = %q, want local %q", got, cfg.Server.LocalURL)
	}
}

func TestEndpoint_ForceRemote(t *testing.T) {
	cfg := Default()
	cfg.Server.RemoteURL = "https://relay.example.com/api/chat"
	cfg.Server.ForceRemote = true

	if got := cfg.Endpoint(); got != cfg.Server.RemoteURL {
		t.Errorf("Endpoint() = %q, want remote %q", got, cfg.Server.RemoteURL)
	}
}

func TestEndpoint_PublicHostMatch(t *testing.T) {
	host, err := os.Hostname()
	if err != nil {
		t.Skipf("cannot determine hostname: %v", err)
	}

	cfg := Default()
	cfg.Server.RemoteURL = "https://relay.example.com/api/chat"
	cfg.Server.PublicHost = host

	if got := cfg.Endpoint(); got != cfg.Server.RemoteURL {
		t.Errorf("Endpoint() = %q, want remote when hostname matches", got)
	}

	cfg.Server.PublicHost = "some-other-host.invalid"
	if got := cfg.Endpoint(); got != cfg.Server.LocalURL {
		t.Errorf("Endpoint() = %q, want local when hostname differs", got)
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
version = "1.0.0"

[inference]
model = "llama3:8b"
temperature = 0.5

[ui]
theme = "dark"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Inference.Model != "llama3:8b" {
		t.Errorf("model = %q, want llama3:8b", cfg.Inference.Model)
	}
	if cfg.Inference.Temperature != 0.5 {
		t.Errorf("temperature = %g, want 0.5", cfg.Inference.Temperature)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("theme = %q, want dark", cfg.UI.Theme)
	}
	// Unset fields get defaults
	if cfg.Inference.TopK != 50 {
		t.Errorf("top_k = %d, want default 50", cfg.Inference.TopK)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"inference": {"model": "phi3:mini"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Inference.Model != "phi3:mini" {
		t.Errorf("model = %q, want phi3:mini", cfg.Inference.Model)
	}
}

func TestLoadFromPath_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[ui]
theme = "neon"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected validation error for bad theme")
	}
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.Inference.Model = "mistral:7b"
	if err := SaveJSON(cfg, path); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}

	loaded := Default()
	if err := LoadJSON(loaded, path); err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if loaded.Inference.Model != "mistral:7b" {
		t.Errorf("round-trip model = %q, want mistral:7b", loaded.Inference.Model)
	}
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()

		go func() {
			defer wg.Done()
			cfg := Global()
			if cfg == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_GlobalInitialization tests that Global() properly initializes
// the config on first access.
func TestConfig_GlobalInitialization(t *testing.T) {
	ResetGlobalForTesting()

	cfg := Global()
	if cfg == nil {
		t.Fatal("Global() returned nil")
	}
	if cfg.Version == "" {
		t.Error("Config version should not be empty")
	}
	if cfg.Inference.Model == "" {
		t.Error("Inference model should not be empty")
	}
}
