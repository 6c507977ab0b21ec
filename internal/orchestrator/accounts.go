// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/algod"
	"github.com/jeranaias/algods/internal/logging"
	"github.com/jeranaias/algods/internal/security"
	"github.com/jeranaias/algods/internal/storage"
)

// AccountDetails is the node's view of an account plus what the local
// ledger knows about it.
type AccountDetails struct {
	*algod.Account
	Label    string `json:"label,omitempty"`
	Known    bool   `json:"known"`
	Signable bool   `json:"signable"`
}

// GetAccount returns on-chain information for ref, an address or a
// ledger label.
func (o *Orchestrator) GetAccount(ctx context.Context, ref string) (*AccountDetails, error) {
	a, err := o.resolveAddress(ctx, ref)
	if err != nil {
		return nil, err
	}
	addr := a.String()
	info, err := o.node.AccountInformation(ctx, addr)
	if err != nil {
		return nil, err
	}

	d := &AccountDetails{Account: info}
	if row, err := o.ledger.GetAccount(ctx, addr); err == nil {
		d.Known = true
		d.Label = row.Label
		d.Signable = row.HasKey()
	}
	return d, nil
}

// AccountSummary is a ledger account with its balance when available.
type AccountSummary struct {
	storage.Account
	Signable     bool    `json:"signable"`
	Balance      *uint64 `json:"balance,omitempty"`
	BalanceError string  `json:"balance_error,omitempty"`
}

// ListAccounts returns the local accounts. Balances come from the node;
// an unreachable node leaves them unknown instead of failing.
func (o *Orchestrator) ListAccounts(ctx context.Context) ([]AccountSummary, error) {
	rows, err := o.ledger.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]AccountSummary, 0, len(rows))
	nodeDown := false
	for _, row := range rows {
		s := AccountSummary{Account: row, Signable: row.HasKey()}
		if nodeDown {
			s.BalanceError = "node unreachable"
			out = append(out, s)
			continue
		}
		info, err := o.node.AccountInformation(ctx, row.Address)
		switch {
		case err == nil:
			amount := info.Amount
			s.Balance = &amount
		case algod.IsNotRunning(err) || algod.IsTimeout(err):
			nodeDown = true
			s.BalanceError = "node unreachable"
			logging.FromContext(ctx).Debug("skipping balances", "error", err)
		default:
			s.BalanceError = err.Error()
		}
		out = append(out, s)
	}
	return out, nil
}

// CreateAccount generates a keypair, seals the private key and stores the
// account under label.
func (o *Orchestrator) CreateAccount(ctx context.Context, label string) (acct *storage.Account, err error) {
	defer func() {
		e := security.Entry{Action: "createaccount", Details: map[string]string{"label": label}}
		if acct != nil {
			e.Address = acct.Address
		}
		o.record(ctx, e, err)
	}()

	generated, err := algo.GenerateAccount()
	if err != nil {
		return nil, err
	}
	defer security.ZeroBytes(generated.PrivateKey)

	sealed, err := o.sealKey(generated.PrivateKey)
	if err != nil {
		return nil, err
	}

	row := storage.Account{
		Address:   generated.Address.String(),
		Label:     label,
		SealedKey: sealed,
		Source:    storage.SourceGenerated,
		CreatedAt: time.Now(),
	}
	if err := o.ledger.SaveAccount(ctx, row); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("account created", "address", row.Address, "label", label)
	return &row, nil
}

// FundResult is a confirmed funding payment.
type FundResult struct {
	Submitted
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// FundAccount pays amount microAlgos to addr from the sandbox dispenser.
func (o *Orchestrator) FundAccount(ctx context.Context, addr string, amount uint64) (res *FundResult, err error) {
	defer func() {
		e := security.Entry{
			Action:  "fundaccount",
			Address: addr,
			Details: map[string]string{"amount": strconv.FormatUint(amount, 10)},
		}
		if res != nil {
			e.TxID, e.Round = res.TxID, res.ConfirmedRound
		}
		o.record(ctx, e, err)
	}()

	if amount == 0 {
		return nil, ErrZeroAmount
	}
	to, err := o.resolveAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	if o.dispenser == nil {
		return nil, fmt.Errorf("no dispenser wallet configured")
	}

	src, err := o.dispenser.DispenserAccount(ctx, o.cfg.Sandbox.DefaultWallet, o.cfg.Sandbox.WalletPassword, o.node)
	if err != nil {
		return nil, fmt.Errorf("load dispenser: %w", err)
	}
	defer security.ZeroBytes(src.PrivateKey)

	params, err := o.node.SuggestedParams(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := algo.MakePayment(src.Address, to, amount, []byte("algods fundaccount"), params)
	if err != nil {
		return nil, err
	}

	txid, info, err := o.submit(ctx, src, tx)
	if err != nil {
		return nil, err
	}
	return &FundResult{
		Submitted: Submitted{TxID: txid, ConfirmedRound: info.ConfirmedRound},
		From:      src.Address.String(),
		To:        to.String(),
		Amount:    amount,
	}, nil
}

// resolveAddress accepts an address or a ledger label.
func (o *Orchestrator) resolveAddress(ctx context.Context, ref string) (algo.Address, error) {
	if a, err := algo.DecodeAddress(ref); err == nil {
		return a, nil
	}
	row, err := o.resolve(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return algo.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, ref)
		}
		return algo.Address{}, err
	}
	return algo.DecodeAddress(row.Address)
}
