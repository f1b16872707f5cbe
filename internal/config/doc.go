// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatmon.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Backend host, stream path and limits
//   - ModelsConfig: Panel models, compare mode and optional catalog
//   - UIConfig: Theme, redraw rate and rendering switches
//   - Watcher: Reloads the file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATMON_*)
//   - ~/.chatmon/config.toml (or $CHATMON_HOME/config.toml)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	host := cfg.API.Host
package config
