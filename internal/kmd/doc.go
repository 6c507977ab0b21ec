// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kmd is a small client for the key management daemon that ships
// with the sandbox. algods only uses it to borrow the pre-funded genesis
// accounts of the default wallet when funding new accounts.
package kmd
