// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security handles custody of account keys and the operation journal.
//
// # Key Custody
//
// Account private keys never reach the local ledger in the clear. The Vault
// seals them with AES-256-GCM under a master key that comes either from a
// passphrase (PBKDF2-SHA-256, 600k iterations, salt on disk) or from a
// random key held in the platform KeyStore (DPAPI on Windows, a 0600 file
// elsewhere).
//
//	v, err := security.OpenVault(security.VaultOptions{KeyStore: ks})
//	sealed, err := v.Seal(privateKey)   // "ENC:..."
//	key, err := v.Open(sealed)
//	defer security.ZeroBytes(key)
//
// # Journal
//
// Every transaction and network action is appended to a JSON-lines journal
// with a UUID per entry. Tokens, passwords and key material are redacted
// before writing.
package security
