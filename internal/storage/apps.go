// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// App is a ledger application row.
type App struct {
	AppID          uint64    `json:"app_id"`
	Creator        string    `json:"creator"`
	AppDir         string    `json:"app_dir,omitempty"`
	ApprovalHash   string    `json:"approval_hash,omitempty"`
	ClearHash      string    `json:"clear_hash,omitempty"`
	TxID           string    `json:"txid"`
	ConfirmedRound uint64    `json:"confirmed_round"`
	CreatedAt      time.Time `json:"created_at"`
}

// Call is one recorded application call.
type Call struct {
	ID             string    `json:"id"`
	AppID          uint64    `json:"app_id"`
	Sender         string    `json:"sender"`
	Args           []string  `json:"args"`
	TxID           string    `json:"txid"`
	ConfirmedRound uint64    `json:"confirmed_round"`
	CreatedAt      time.Time `json:"created_at"`
}

const appColumns = `app_id, creator, app_dir, approval_hash, clear_hash, txid, confirmed_round, created_at`

// SaveApp records a created application.
func (l *Ledger) SaveApp(ctx context.Context, a App) error {
	if a.AppID == 0 {
		return fmt.Errorf("app id is required")
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO apps (`+appColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(a.AppID), a.Creator, a.AppDir, a.ApprovalHash, a.ClearHash, a.TxID,
		int64(a.ConfirmedRound), l.stamp(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save app %d: %w", a.AppID, err)
	}
	return nil
}

func scanApp(row interface{ Scan(...any) error }) (App, error) {
	var a App
	var id, round, created int64
	if err := row.Scan(&id, &a.Creator, &a.AppDir, &a.ApprovalHash, &a.ClearHash, &a.TxID, &round, &created); err != nil {
		return App{}, err
	}
	a.AppID = uint64(id)
	a.ConfirmedRound = uint64(round)
	a.CreatedAt = time.Unix(created, 0).UTC()
	return a, nil
}

// GetApp returns the application with id.
func (l *Ledger) GetApp(ctx context.Context, id uint64) (App, error) {
	a, err := scanApp(l.db.QueryRowContext(ctx, `SELECT `+appColumns+` FROM apps WHERE app_id = ?`, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return App{}, fmt.Errorf("app %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return App{}, fmt.Errorf("failed to load app %d: %w", id, err)
	}
	return a, nil
}

// ListApps returns every application by id.
func (l *Ledger) ListApps(ctx context.Context) ([]App, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+appColumns+` FROM apps ORDER BY app_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	defer rows.Close()

	var out []App
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan app: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecordCall stores an application call and returns its id.
func (l *Ledger) RecordCall(ctx context.Context, c Call) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Args == nil {
		c.Args = []string{}
	}
	args, err := json.Marshal(c.Args)
	if err != nil {
		return "", fmt.Errorf("failed to encode call args: %w", err)
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO calls (id, app_id, sender, args_json, txid, confirmed_round, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, int64(c.AppID), c.Sender, string(args), c.TxID, int64(c.ConfirmedRound), l.stamp(c.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("failed to record call on app %d: %w", c.AppID, err)
	}
	return c.ID, nil
}

// ListCalls returns calls to appID, newest first. limit <= 0 means no limit.
func (l *Ledger) ListCalls(ctx context.Context, appID uint64, limit int) ([]Call, error) {
	query := `SELECT id, app_id, sender, args_json, txid, confirmed_round, created_at
		FROM calls WHERE app_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{int64(appID)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		var c Call
		var id, round, created int64
		var argsJSON string
		if err := rows.Scan(&c.ID, &id, &c.Sender, &argsJSON, &c.TxID, &round, &created); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &c.Args); err != nil {
			return nil, fmt.Errorf("call %s has corrupt args: %w", c.ID, err)
		}
		c.AppID = uint64(id)
		c.ConfirmedRound = uint64(round)
		c.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}
