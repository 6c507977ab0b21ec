// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the algods command line.
//
// Parse splits argv into a Command and its Args. Each command has a
// Handle function that returns an error; main maps that error to a
// process exit code with GetExitCode.
//
// Output is either human readable, styled with lipgloss when stdout is a
// terminal, or a JSONResponse envelope when --json is given.
package cli
