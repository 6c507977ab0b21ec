// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage is the local ledger: a SQLite database recording the
// accounts, assets, applications and app calls algods created on the
// private network.
//
// # Key Types
//
//   - Ledger: open database handle with CRUD methods per table
//   - Account, Asset, App, Call: one row each
//
// # Usage
//
//	ledger, err := storage.Open(cfg.Storage.DatabasePath())
//	defer ledger.Close()
//
//	err = ledger.SaveAccount(ctx, storage.Account{Address: addr, SealedKey: sealed})
//	accounts, err := ledger.ListAccounts(ctx)
//
// # Storage Location
//
// The database lives in ~/.algods/algods.db by default.
package storage
