// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for mira.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - InferenceConfig: Model and sampling parameters for the companion
//   - ServerConfig: Relay endpoint selection (local vs remote)
//   - RelayConfig: Settings for the mira-relay proxy binary
//   - UIConfig: Theme and appearance settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MIRA_*)
//   - ~/.mira/config.toml
//   - ~/.mira/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.Inference.Model
//	endpoint := cfg.Endpoint()
package config
