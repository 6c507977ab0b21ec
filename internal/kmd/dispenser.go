// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kmd

import (
	"context"
	"fmt"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/algod"
	"github.com/jeranaias/algods/internal/security"
)

// BalanceSource reports on-chain balances. *algod.Client satisfies it.
type BalanceSource interface {
	AccountInformation(ctx context.Context, addr string) (*algod.Account, error)
}

// DispenserAccount opens walletName and exports the key with the highest
// balance. The wallet handle is always released.
func (c *Client) DispenserAccount(ctx context.Context, walletName, password string, node BalanceSource) (algo.Account, error) {
	w, err := c.FindWallet(ctx, walletName)
	if err != nil {
		return algo.Account{}, err
	}

	handle, err := c.InitWalletHandle(ctx, w.ID, password)
	if err != nil {
		return algo.Account{}, fmt.Errorf("unlock wallet %q: %w", walletName, err)
	}
	defer func() {
		// Released even when ctx is already cancelled.
		_ = c.ReleaseWalletHandle(context.WithoutCancel(ctx), handle)
	}()

	addrs, err := c.ListKeys(ctx, handle)
	if err != nil {
		return algo.Account{}, err
	}

	var best string
	var bestAmount uint64
	for _, addr := range addrs {
		info, err := node.AccountInformation(ctx, addr)
		if err != nil {
			return algo.Account{}, fmt.Errorf("balance of %s: %w", addr, err)
		}
		if info.Amount > bestAmount {
			best, bestAmount = addr, info.Amount
		}
	}
	if best == "" {
		return algo.Account{}, fmt.Errorf("%w: %q", ErrNoKeys, walletName)
	}

	key, err := c.ExportKey(ctx, handle, password, best)
	if err != nil {
		return algo.Account{}, fmt.Errorf("export %s: %w", best, err)
	}
	defer security.ZeroBytes(key)

	acct, err := algo.AccountFromPrivateKey(key)
	if err != nil {
		return algo.Account{}, err
	}
	if acct.Address.String() != best {
		return algo.Account{}, fmt.Errorf("exported key does not match %s", best)
	}
	return acct, nil
}
