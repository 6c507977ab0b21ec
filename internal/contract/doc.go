// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract builds PyTeal contracts into TEAL and loads application
// directories for deployment.
//
// A contract lives in <contracts_dir>/<name>/ with approval.py and clear.py,
// each printing its TEAL program to stdout, plus an optional app.toml:
//
//	extra_pages = 0
//	args = ["str:init", "int:10"]
//
//	[global]
//	ints = 1
//	bytes = 1
//
//	[local]
//	ints = 0
//	bytes = 0
//
// Built programs go to <name>/<output_dir>/approval.teal and clear.teal.
package contract
