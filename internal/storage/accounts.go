// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Account sources.
const (
	SourceGenerated = "generated"
	SourceKMD       = "kmd"
)

// Account is a ledger account row.
type Account struct {
	Address   string    `json:"address"`
	Label     string    `json:"label,omitempty"`
	SealedKey string    `json:"-"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// HasKey reports whether algods can sign for the account.
func (a Account) HasKey() bool {
	return a.SealedKey != ""
}

// SaveAccount inserts or replaces an account.
func (l *Ledger) SaveAccount(ctx context.Context, a Account) error {
	if a.Address == "" {
		return fmt.Errorf("account address is required")
	}
	if a.Source == "" {
		a.Source = SourceGenerated
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO accounts (address, label, sealed_key, source, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			label = excluded.label,
			sealed_key = excluded.sealed_key,
			source = excluded.source`,
		a.Address, a.Label, a.SealedKey, a.Source, l.stamp(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", a.Address, err)
	}
	return nil
}

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var a Account
	var created int64
	if err := row.Scan(&a.Address, &a.Label, &a.SealedKey, &a.Source, &created); err != nil {
		return Account{}, err
	}
	a.CreatedAt = time.Unix(created, 0).UTC()
	return a, nil
}

// GetAccount returns the account with address.
func (l *Ledger) GetAccount(ctx context.Context, address string) (Account, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT address, label, sealed_key, source, created_at FROM accounts WHERE address = ?`, address)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, fmt.Errorf("account %s: %w", address, ErrNotFound)
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to load account %s: %w", address, err)
	}
	return a, nil
}

// FindAccountByLabel returns the oldest account with label.
func (l *Ledger) FindAccountByLabel(ctx context.Context, label string) (Account, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT address, label, sealed_key, source, created_at FROM accounts
		 WHERE label = ? ORDER BY created_at, address LIMIT 1`, label)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, fmt.Errorf("account labelled %q: %w", label, ErrNotFound)
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to load account %q: %w", label, err)
	}
	return a, nil
}

// ListAccounts returns every account, oldest first.
func (l *Ledger) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT address, label, sealed_key, source, created_at FROM accounts ORDER BY created_at, address`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAccount removes an account.
func (l *Ledger) DeleteAccount(ctx context.Context, address string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM accounts WHERE address = ?`, address)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", address, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s: %w", address, ErrNotFound)
	}
	return nil
}
