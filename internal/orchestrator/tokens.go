// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/security"
	"github.com/jeranaias/algods/internal/storage"
)

// TokenParams describes a new fungible token.
type TokenParams struct {
	Total         uint64
	Decimals      uint32
	UnitName      string
	AssetName     string
	URL           string
	DefaultFrozen bool
}

// TokenResult is a confirmed asset creation.
type TokenResult struct {
	Submitted
	AssetID uint64 `json:"asset_id"`
	Creator string `json:"creator"`
}

// CreateToken issues an asset from creator (address or label) and records
// it in the ledger.
func (o *Orchestrator) CreateToken(ctx context.Context, creator string, p TokenParams) (res *TokenResult, err error) {
	defer func() {
		e := security.Entry{
			Action:  "createtoken",
			Address: creator,
			Details: map[string]string{"unit": p.UnitName, "name": p.AssetName},
		}
		if res != nil {
			e.Address, e.TxID, e.AssetID, e.Round = res.Creator, res.TxID, res.AssetID, res.ConfirmedRound
		}
		o.record(ctx, e, err)
	}()

	acct, err := o.signer(ctx, creator)
	if err != nil {
		return nil, err
	}
	defer security.ZeroBytes(acct.PrivateKey)

	params, err := o.node.SuggestedParams(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := algo.MakeAssetCreate(acct.Address, algo.AssetParams{
		Total:         p.Total,
		Decimals:      p.Decimals,
		DefaultFrozen: p.DefaultFrozen,
		UnitName:      p.UnitName,
		AssetName:     p.AssetName,
		URL:           p.URL,
	}, nil, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	txid, info, err := o.submit(ctx, acct, tx)
	if err != nil {
		return nil, err
	}
	if info.AssetIndex == 0 {
		return nil, fmt.Errorf("transaction %s confirmed without an asset id", txid)
	}

	res = &TokenResult{
		Submitted: Submitted{TxID: txid, ConfirmedRound: info.ConfirmedRound},
		AssetID:   info.AssetIndex,
		Creator:   acct.Address.String(),
	}
	err = o.ledger.SaveAsset(ctx, storage.Asset{
		AssetID:   res.AssetID,
		Creator:   res.Creator,
		UnitName:  p.UnitName,
		AssetName: p.AssetName,
		Total:     p.Total,
		Decimals:  p.Decimals,
		TxID:      txid,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return res, fmt.Errorf("asset %d created but not recorded: %w", res.AssetID, err)
	}
	return res, nil
}

// ListTokens returns the assets recorded in the ledger.
func (o *Orchestrator) ListTokens(ctx context.Context) ([]storage.Asset, error) {
	return o.ledger.ListAssets(ctx)
}
