// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sandbox drives Algorand's Docker sandbox script: bringing the
// private network up, tearing it down and reporting its state.
//
// The script itself is run through a Runner so tests can substitute a fake.
// Readiness is judged by algod's /health endpoint, not by the script's exit
// status, because "sandbox up" returns before the node answers.
package sandbox
