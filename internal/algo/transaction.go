// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algo

// TxType identifies the kind of transaction.
type TxType string

const (
	PaymentTx     TxType = "pay"
	ApplicationTx TxType = "appl"
	AssetConfigTx TxType = "acfg"
)

// OnCompletion is the action taken after an application call.
type OnCompletion uint64

const (
	NoOpOC OnCompletion = iota
	OptInOC
	CloseOutOC
	ClearStateOC
	UpdateApplicationOC
	DeleteApplicationOC
)

// Schema limits enforced by the protocol.
const (
	MaxGlobalSchemaEntries = 64
	MaxLocalSchemaEntries  = 16
	MaxExtraProgramPages   = 3
)

// StateSchema sizes an application's key/value storage.
type StateSchema struct {
	NumUint      uint64 `json:"num-uint"`
	NumByteSlice uint64 `json:"num-byte-slice"`
}

// Entries is the total number of keys the schema allows.
func (s StateSchema) Entries() uint64 {
	return s.NumUint + s.NumByteSlice
}

// AssetParams describes an asset at creation.
type AssetParams struct {
	Total         uint64
	Decimals      uint32
	DefaultFrozen bool
	UnitName      string
	AssetName     string
	URL           string
	MetadataHash  []byte
	Manager       Address
	Reserve       Address
	Freeze        Address
	Clawback      Address
}

// Transaction holds the fields of the transaction types algods issues.
// Fields irrelevant to Type stay zero and are left out of the encoding.
type Transaction struct {
	Type        TxType
	Sender      Address
	Fee         uint64
	FirstValid  uint64
	LastValid   uint64
	Note        []byte
	GenesisID   string
	GenesisHash [32]byte
	Group       [32]byte
	Lease       [32]byte

	// pay
	Receiver         Address
	Amount           uint64
	CloseRemainderTo Address

	// appl
	ApplicationID     uint64
	OnCompletion      OnCompletion
	ApprovalProgram   []byte
	ClearStateProgram []byte
	ApplicationArgs   [][]byte
	Accounts          []Address
	ForeignApps       []uint64
	ForeignAssets     []uint64
	GlobalStateSchema StateSchema
	LocalStateSchema  StateSchema
	ExtraProgramPages uint32

	// acfg
	ConfigAsset uint64
	AssetParams AssetParams
}

// SignedTxn is a transaction with its ed25519 signature.
type SignedTxn struct {
	Sig [64]byte
	Txn Transaction
}

// SuggestedParams are the node-provided values every transaction needs.
type SuggestedParams struct {
	// Fee is per byte unless FlatFee is set, in which case it is the total.
	Fee         uint64
	MinFee      uint64
	FlatFee     bool
	FirstValid  uint64
	LastValid   uint64
	GenesisID   string
	GenesisHash [32]byte
}
