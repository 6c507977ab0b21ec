// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algod

import (
	"encoding/json"

	"github.com/jeranaias/algods/internal/algo"
)

// NodeStatus is the response of GET /v2/status.
type NodeStatus struct {
	LastRound                 uint64 `json:"last-round"`
	LastVersion               string `json:"last-version"`
	NextVersion               string `json:"next-version"`
	TimeSinceLastRound        int64  `json:"time-since-last-round"`
	CatchupTime               int64  `json:"catchup-time"`
	StoppedAtUnsupportedRound bool   `json:"stopped-at-unsupported-round"`
}

// TransactionParams is the response of GET /v2/transactions/params.
type TransactionParams struct {
	ConsensusVersion string `json:"consensus-version"`
	Fee              uint64 `json:"fee"`
	GenesisHash      []byte `json:"genesis-hash"`
	GenesisID        string `json:"genesis-id"`
	LastRound        uint64 `json:"last-round"`
	MinFee           uint64 `json:"min-fee"`
}

// PendingTransaction is the response of GET /v2/transactions/pending/{txid}.
type PendingTransaction struct {
	ConfirmedRound   uint64          `json:"confirmed-round"`
	PoolError        string          `json:"pool-error"`
	ApplicationIndex uint64          `json:"application-index"`
	AssetIndex       uint64          `json:"asset-index"`
	Logs             [][]byte        `json:"logs,omitempty"`
	Txn              json.RawMessage `json:"txn,omitempty"`
}

// TealValue is a typed state value: Type 1 is bytes, Type 2 is uint.
type TealValue struct {
	Type  uint64 `json:"type"`
	Bytes string `json:"bytes"`
	Uint  uint64 `json:"uint"`
}

// Teal value types.
const (
	TealBytesType uint64 = 1
	TealUintType  uint64 = 2
)

// TealKeyValue is one state entry; Key is base64.
type TealKeyValue struct {
	Key   string    `json:"key"`
	Value TealValue `json:"value"`
}

// ApplicationParams are an application's on-chain parameters.
type ApplicationParams struct {
	Creator           string            `json:"creator"`
	ApprovalProgram   []byte            `json:"approval-program"`
	ClearStateProgram []byte            `json:"clear-state-program"`
	ExtraProgramPages uint32            `json:"extra-program-pages,omitempty"`
	GlobalState       []TealKeyValue    `json:"global-state,omitempty"`
	GlobalStateSchema *algo.StateSchema `json:"global-state-schema,omitempty"`
	LocalStateSchema  *algo.StateSchema `json:"local-state-schema,omitempty"`
}

// Application is the response of GET /v2/applications/{id}.
type Application struct {
	ID     uint64            `json:"id"`
	Params ApplicationParams `json:"params"`
}

// AppLocalState is an account's local state in one application.
type AppLocalState struct {
	ID       uint64           `json:"id"`
	KeyValue []TealKeyValue   `json:"key-value,omitempty"`
	Schema   algo.StateSchema `json:"schema"`
}

// AssetParams are an asset's on-chain parameters.
type AssetParams struct {
	Creator       string `json:"creator"`
	Total         uint64 `json:"total"`
	Decimals      uint32 `json:"decimals"`
	DefaultFrozen bool   `json:"default-frozen,omitempty"`
	UnitName      string `json:"unit-name,omitempty"`
	Name          string `json:"name,omitempty"`
	URL           string `json:"url,omitempty"`
	Manager       string `json:"manager,omitempty"`
	Reserve       string `json:"reserve,omitempty"`
	Freeze        string `json:"freeze,omitempty"`
	Clawback      string `json:"clawback,omitempty"`
}

// Asset is the response of GET /v2/assets/{id}.
type Asset struct {
	Index  uint64      `json:"index"`
	Params AssetParams `json:"params"`
}

// AssetHolding is an account's balance of one asset.
type AssetHolding struct {
	AssetID  uint64 `json:"asset-id"`
	Amount   uint64 `json:"amount"`
	IsFrozen bool   `json:"is-frozen"`
}

// Account is the response of GET /v2/accounts/{address}.
type Account struct {
	Address                     string          `json:"address"`
	Amount                      uint64          `json:"amount"`
	AmountWithoutPendingRewards uint64          `json:"amount-without-pending-rewards"`
	MinBalance                  uint64          `json:"min-balance"`
	PendingRewards              uint64          `json:"pending-rewards"`
	Rewards                     uint64          `json:"rewards"`
	Round                       uint64          `json:"round"`
	Status                      string          `json:"status"`
	TotalAppsOptedIn            uint64          `json:"total-apps-opted-in"`
	TotalAssetsOptedIn          uint64          `json:"total-assets-opted-in"`
	TotalCreatedApps            uint64          `json:"total-created-apps"`
	TotalCreatedAssets          uint64          `json:"total-created-assets"`
	AppsLocalState              []AppLocalState `json:"apps-local-state,omitempty"`
	Assets                      []AssetHolding  `json:"assets,omitempty"`
	CreatedApps                 []Application   `json:"created-apps,omitempty"`
	CreatedAssets               []Asset         `json:"created-assets,omitempty"`
}

// CompileResult is the response of POST /v2/teal/compile.
type CompileResult struct {
	Hash    string `json:"hash"`
	Result  string `json:"result"`
	Program []byte `json:"-"`
}

// errorResponse is the body algod returns with non-2xx statuses.
type errorResponse struct {
	Message string `json:"message"`
}

// ToSuggested converts node params into transaction-building params.
func (p TransactionParams) ToSuggested() algo.SuggestedParams {
	s := algo.SuggestedParams{
		Fee:        p.Fee,
		MinFee:     p.MinFee,
		FirstValid: p.LastRound,
		LastValid:  p.LastRound + algo.DefaultValidRounds,
		GenesisID:  p.GenesisID,
	}
	copy(s.GenesisHash[:], p.GenesisHash)
	return s
}
