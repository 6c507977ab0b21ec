// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algo

import (
	"errors"
	"fmt"
)

// DefaultValidRounds is the validity window used when params carry no LastValid.
const DefaultValidRounds = 1000

// ErrSchemaTooLarge is returned for schemas beyond protocol limits.
var ErrSchemaTooLarge = errors.New("state schema too large")

// EstimateSize returns the encoded size of tx once signed.
func EstimateSize(tx Transaction) (int, error) {
	stx := SignedTxn{Txn: tx}
	// A non-zero placeholder keeps "sig" in the encoding.
	for i := range stx.Sig {
		stx.Sig[i] = 0xff
	}
	raw, err := EncodeSigned(stx)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

// SetFee fills tx.Fee from params: the flat fee when FlatFee is set, else
// the per-byte fee times the signed size, never below MinFee.
func SetFee(tx *Transaction, params SuggestedParams) error {
	if params.FlatFee {
		tx.Fee = params.Fee
		if tx.Fee < params.MinFee {
			tx.Fee = params.MinFee
		}
		return nil
	}
	// The sized encoding must carry a fee field like the final one does.
	tx.Fee = params.Fee
	size, err := EstimateSize(*tx)
	if err != nil {
		return err
	}
	tx.Fee = params.Fee * uint64(size)
	if tx.Fee < params.MinFee {
		tx.Fee = params.MinFee
	}
	return nil
}

func header(typ TxType, sender Address, note []byte, params SuggestedParams) Transaction {
	last := params.LastValid
	if last == 0 {
		last = params.FirstValid + DefaultValidRounds
	}
	return Transaction{
		Type:        typ,
		Sender:      sender,
		FirstValid:  params.FirstValid,
		LastValid:   last,
		Note:        note,
		GenesisID:   params.GenesisID,
		GenesisHash: params.GenesisHash,
	}
}

// MakePayment builds a payment of amount microAlgos.
func MakePayment(from, to Address, amount uint64, note []byte, params SuggestedParams) (Transaction, error) {
	if from.IsZero() {
		return Transaction{}, fmt.Errorf("payment sender is required")
	}
	if to.IsZero() {
		return Transaction{}, fmt.Errorf("payment receiver is required")
	}
	tx := header(PaymentTx, from, note, params)
	tx.Receiver = to
	tx.Amount = amount
	return tx, SetFee(&tx, params)
}

// AppCreateParams describes a new application.
type AppCreateParams struct {
	Approval    []byte
	Clear       []byte
	Global      StateSchema
	Local       StateSchema
	ExtraPages  uint32
	Args        [][]byte
	Accounts    []Address
	ForeignApps []uint64
	Note        []byte
}

// Validate checks programs and schema limits.
func (p AppCreateParams) Validate() error {
	if len(p.Approval) == 0 {
		return fmt.Errorf("approval program is empty")
	}
	if len(p.Clear) == 0 {
		return fmt.Errorf("clear program is empty")
	}
	if p.Global.Entries() > MaxGlobalSchemaEntries {
		return fmt.Errorf("%w: global schema has %d entries, max %d", ErrSchemaTooLarge, p.Global.Entries(), MaxGlobalSchemaEntries)
	}
	if p.Local.Entries() > MaxLocalSchemaEntries {
		return fmt.Errorf("%w: local schema has %d entries, max %d", ErrSchemaTooLarge, p.Local.Entries(), MaxLocalSchemaEntries)
	}
	if p.ExtraPages > MaxExtraProgramPages {
		return fmt.Errorf("extra pages %d exceeds max %d", p.ExtraPages, MaxExtraProgramPages)
	}
	return nil
}

// MakeAppCreate builds an application creation transaction.
func MakeAppCreate(creator Address, p AppCreateParams, params SuggestedParams) (Transaction, error) {
	if creator.IsZero() {
		return Transaction{}, fmt.Errorf("app creator is required")
	}
	if err := p.Validate(); err != nil {
		return Transaction{}, err
	}
	tx := header(ApplicationTx, creator, p.Note, params)
	tx.OnCompletion = NoOpOC
	tx.ApprovalProgram = p.Approval
	tx.ClearStateProgram = p.Clear
	tx.GlobalStateSchema = p.Global
	tx.LocalStateSchema = p.Local
	tx.ExtraProgramPages = p.ExtraPages
	tx.ApplicationArgs = p.Args
	tx.Accounts = p.Accounts
	tx.ForeignApps = p.ForeignApps
	return tx, SetFee(&tx, params)
}

// AppCallParams describes a call to an existing application.
type AppCallParams struct {
	AppID         uint64
	OnCompletion  OnCompletion
	Args          [][]byte
	Accounts      []Address
	ForeignApps   []uint64
	ForeignAssets []uint64
	Note          []byte
}

// MakeAppCall builds a call to an existing application.
func MakeAppCall(sender Address, p AppCallParams, params SuggestedParams) (Transaction, error) {
	if sender.IsZero() {
		return Transaction{}, fmt.Errorf("app call sender is required")
	}
	if p.AppID == 0 {
		return Transaction{}, fmt.Errorf("application ID is required")
	}
	tx := header(ApplicationTx, sender, p.Note, params)
	tx.ApplicationID = p.AppID
	tx.OnCompletion = p.OnCompletion
	tx.ApplicationArgs = p.Args
	tx.Accounts = p.Accounts
	tx.ForeignApps = p.ForeignApps
	tx.ForeignAssets = p.ForeignAssets
	return tx, SetFee(&tx, params)
}

// MakeAssetCreate builds an asset creation. Unset manager, reserve, freeze
// and clawback addresses default to the creator.
func MakeAssetCreate(creator Address, p AssetParams, note []byte, params SuggestedParams) (Transaction, error) {
	if creator.IsZero() {
		return Transaction{}, fmt.Errorf("asset creator is required")
	}
	if p.Total == 0 {
		return Transaction{}, fmt.Errorf("asset total must be positive")
	}
	if p.Decimals > 19 {
		return Transaction{}, fmt.Errorf("asset decimals %d exceeds 19", p.Decimals)
	}
	if len(p.UnitName) > 8 {
		return Transaction{}, fmt.Errorf("unit name %q longer than 8 bytes", p.UnitName)
	}
	if len(p.AssetName) > 32 {
		return Transaction{}, fmt.Errorf("asset name %q longer than 32 bytes", p.AssetName)
	}
	for _, a := range []*Address{&p.Manager, &p.Reserve, &p.Freeze, &p.Clawback} {
		if a.IsZero() {
			*a = creator
		}
	}
	tx := header(AssetConfigTx, creator, note, params)
	tx.AssetParams = p
	return tx, SetFee(&tx, params)
}
