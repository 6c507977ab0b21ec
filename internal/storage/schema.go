// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// SchemaVersion tracks the database schema version for migrations.
const SchemaVersion = 1

// Schema creates every table idempotently. Times are Unix seconds.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Accounts created or imported by algods
CREATE TABLE IF NOT EXISTS accounts (
    address TEXT PRIMARY KEY,
    label TEXT NOT NULL DEFAULT '',
    sealed_key TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL,           -- generated, kmd
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_label ON accounts(label);

-- Assets created with createtoken
CREATE TABLE IF NOT EXISTS assets (
    asset_id INTEGER PRIMARY KEY,
    creator TEXT NOT NULL,
    unit_name TEXT NOT NULL DEFAULT '',
    asset_name TEXT NOT NULL DEFAULT '',
    total INTEGER NOT NULL,
    decimals INTEGER NOT NULL DEFAULT 0,
    txid TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

-- Applications created with createapp
CREATE TABLE IF NOT EXISTS apps (
    app_id INTEGER PRIMARY KEY,
    creator TEXT NOT NULL,
    app_dir TEXT NOT NULL DEFAULT '',
    approval_hash TEXT NOT NULL DEFAULT '',
    clear_hash TEXT NOT NULL DEFAULT '',
    txid TEXT NOT NULL,
    confirmed_round INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

-- Application calls made with callapp
CREATE TABLE IF NOT EXISTS calls (
    id TEXT PRIMARY KEY,
    app_id INTEGER NOT NULL,
    sender TEXT NOT NULL,
    args_json TEXT NOT NULL DEFAULT '[]',
    txid TEXT NOT NULL,
    confirmed_round INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calls_app_id ON calls(app_id);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
