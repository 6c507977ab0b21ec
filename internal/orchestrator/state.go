// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"encoding/base64"
	"sort"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/algod"
)

// StateEntry is one decoded application state value.
type StateEntry struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// DecodeState renders raw TEAL key/values, sorted by key. Keys and byte
// values are shown as text when printable; 32-byte values as addresses;
// anything else stays base64.
func DecodeState(kvs []algod.TealKeyValue) []StateEntry {
	out := make([]StateEntry, 0, len(kvs))
	for _, kv := range kvs {
		e := StateEntry{Key: decodeKey(kv.Key)}
		switch kv.Value.Type {
		case algod.TealUintType:
			e.Type = "uint"
			e.Value = strconv.FormatUint(kv.Value.Uint, 10)
		default:
			e.Type = "bytes"
			e.Value = decodeBytesValue(kv.Value.Bytes)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func decodeKey(b64 string) string {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || !printable(raw) {
		return b64
	}
	return string(raw)
}

func decodeBytesValue(b64 string) string {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return b64
	}
	if len(raw) == 32 {
		var a algo.Address
		copy(a[:], raw)
		return a.String()
	}
	if printable(raw) {
		return string(raw)
	}
	return b64
}

func printable(b []byte) bool {
	if len(b) == 0 || !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
