// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package algo implements the Algorand primitives algods needs without an SDK:
// addresses, ed25519 accounts, transactions in canonical msgpack form,
// transaction IDs and signing.
//
// # Canonical Encoding
//
// Transactions are encoded the way the network hashes them: a msgpack map
// whose keys are sorted, whose zero-valued fields are omitted, whose integers
// use the smallest representation, and whose byte fields are msgpack bin.
//
//	raw, _ := algo.Encode(txn)
//	id := algo.TxID(txn)            // base32(SHA-512/256("TX" || raw))
//	stx, id, err := algo.Sign(acct, txn)
//
// # Application Arguments
//
// ParseAppArg understands the prefixes accepted by callapp -args:
// int:N, b64:..., str:... and addr:....
package algo
