// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"time"
)

// Asset is a ledger asset row.
type Asset struct {
	AssetID   uint64    `json:"asset_id"`
	Creator   string    `json:"creator"`
	UnitName  string    `json:"unit_name,omitempty"`
	AssetName string    `json:"asset_name,omitempty"`
	Total     uint64    `json:"total"`
	Decimals  uint32    `json:"decimals"`
	TxID      string    `json:"txid"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveAsset records a created asset.
func (l *Ledger) SaveAsset(ctx context.Context, a Asset) error {
	if a.AssetID == 0 {
		return fmt.Errorf("asset id is required")
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assets (asset_id, creator, unit_name, asset_name, total, decimals, txid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(a.AssetID), a.Creator, a.UnitName, a.AssetName, int64(a.Total), a.Decimals, a.TxID, l.stamp(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save asset %d: %w", a.AssetID, err)
	}
	return nil
}

func scanAsset(row interface{ Scan(...any) error }) (Asset, error) {
	var a Asset
	var id, total, created int64
	if err := row.Scan(&id, &a.Creator, &a.UnitName, &a.AssetName, &total, &a.Decimals, &a.TxID, &created); err != nil {
		return Asset{}, err
	}
	a.AssetID = uint64(id)
	a.Total = uint64(total)
	a.CreatedAt = time.Unix(created, 0).UTC()
	return a, nil
}

const assetColumns = `asset_id, creator, unit_name, asset_name, total, decimals, txid, created_at`

// ListAssets returns every asset by id.
func (l *Ledger) ListAssets(ctx context.Context) ([]Asset, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY asset_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
