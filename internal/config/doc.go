// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for algods.
//
// Defaults match a stock Algorand sandbox, so algods works with no config
// file at all.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ALGODS_*)
//   - $ALGODS_CONFIG, or ~/.algods/config.toml
//   - ~/.algods/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := algod.NewClient(cfg.Node.AlgodURL, cfg.Node.AlgodToken)
//
// Keys can be read and written by dot path, which backs "algods config":
//
//	_ = cfg.Set("node.confirm_rounds", "20")
//	v, _ := cfg.Get("sandbox.path")
package config
