// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algo

import (
	"bytes"
	"crypto/sha512"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// txIDPrefix is the domain separator hashed and signed before a transaction.
var txIDPrefix = []byte("TX")

// canonicalMap collects the non-zero fields under their wire keys.
type canonicalMap map[string]interface{}

func (m canonicalMap) bytes(key string, v []byte) {
	if len(v) > 0 {
		m[key] = v
	}
}

func (m canonicalMap) uint(key string, v uint64) {
	if v != 0 {
		m[key] = v
	}
}

func (m canonicalMap) str(key, v string) {
	if v != "" {
		m[key] = v
	}
}

func (m canonicalMap) addr(key string, a Address) {
	if !a.IsZero() {
		m[key] = a[:]
	}
}

func (m canonicalMap) digest(key string, d [32]byte) {
	if d != [32]byte{} {
		m[key] = d[:]
	}
}

func (m canonicalMap) schema(key string, s StateSchema) {
	if s.Entries() == 0 {
		return
	}
	inner := canonicalMap{}
	inner.uint("nbs", s.NumByteSlice)
	inner.uint("nui", s.NumUint)
	m[key] = map[string]interface{}(inner)
}

func (p AssetParams) wire() canonicalMap {
	m := canonicalMap{}
	m.bytes("am", p.MetadataHash)
	m.str("an", p.AssetName)
	m.str("au", p.URL)
	m.addr("c", p.Clawback)
	m.uint("dc", uint64(p.Decimals))
	if p.DefaultFrozen {
		m["df"] = true
	}
	m.addr("f", p.Freeze)
	m.addr("m", p.Manager)
	m.addr("r", p.Reserve)
	m.uint("t", p.Total)
	m.str("un", p.UnitName)
	return m
}

func (tx Transaction) wire() canonicalMap {
	m := canonicalMap{}
	m.str("type", string(tx.Type))
	m.addr("snd", tx.Sender)
	m.uint("fee", tx.Fee)
	m.uint("fv", tx.FirstValid)
	m.uint("lv", tx.LastValid)
	m.bytes("note", tx.Note)
	m.str("gen", tx.GenesisID)
	m.digest("gh", tx.GenesisHash)
	m.digest("grp", tx.Group)
	m.digest("lx", tx.Lease)

	m.addr("rcv", tx.Receiver)
	m.uint("amt", tx.Amount)
	m.addr("close", tx.CloseRemainderTo)

	m.uint("apid", tx.ApplicationID)
	m.uint("apan", uint64(tx.OnCompletion))
	m.bytes("apap", tx.ApprovalProgram)
	m.bytes("apsu", tx.ClearStateProgram)
	if len(tx.ApplicationArgs) > 0 {
		args := make([]interface{}, len(tx.ApplicationArgs))
		for i, a := range tx.ApplicationArgs {
			// Empty args still occupy their slot.
			args[i] = append([]byte{}, a...)
		}
		m["apaa"] = args
	}
	if len(tx.Accounts) > 0 {
		accts := make([]interface{}, len(tx.Accounts))
		for i, a := range tx.Accounts {
			accts[i] = append([]byte{}, a[:]...)
		}
		m["apat"] = accts
	}
	if len(tx.ForeignApps) > 0 {
		m["apfa"] = append([]uint64{}, tx.ForeignApps...)
	}
	if len(tx.ForeignAssets) > 0 {
		m["apas"] = append([]uint64{}, tx.ForeignAssets...)
	}
	m.schema("apgs", tx.GlobalStateSchema)
	m.schema("apls", tx.LocalStateSchema)
	m.uint("apep", uint64(tx.ExtraProgramPages))

	m.uint("caid", tx.ConfigAsset)
	if params := tx.AssetParams.wire(); len(params) > 0 {
		m["apar"] = map[string]interface{}(params)
	}
	return m
}

func encodeCanonical(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode returns the canonical msgpack encoding of tx.
func Encode(tx Transaction) ([]byte, error) {
	raw, err := encodeCanonical(map[string]interface{}(tx.wire()))
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	return raw, nil
}

// EncodeSigned returns the canonical encoding of a signed transaction, the
// body POSTed to /v2/transactions.
func EncodeSigned(stx SignedTxn) ([]byte, error) {
	m := map[string]interface{}{
		"txn": map[string]interface{}(stx.Txn.wire()),
	}
	if stx.Sig != [64]byte{} {
		m["sig"] = stx.Sig[:]
	}
	raw, err := encodeCanonical(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed transaction: %w", err)
	}
	return raw, nil
}

func bytesToSign(tx Transaction) ([]byte, error) {
	raw, err := Encode(tx)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, txIDPrefix...), raw...), nil
}

// TxID returns the 52-character transaction ID.
func TxID(tx Transaction) (string, error) {
	msg, err := bytesToSign(tx)
	if err != nil {
		return "", err
	}
	sum := sha512.Sum512_256(msg)
	return b32.EncodeToString(sum[:]), nil
}
