// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algo

import (
	"bytes"
	"crypto/sha512"
	"encoding/base32"
	"errors"
	"fmt"
)

const (
	// AddressLength is the length of an address string.
	AddressLength = 58
	checksumLen   = 4
)

// ErrInvalidAddress is returned by DecodeAddress for malformed input.
var ErrInvalidAddress = errors.New("invalid address")

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Address is an ed25519 public key.
type Address [32]byte

// ZeroAddress is the all-zero address.
var ZeroAddress Address

// String encodes the key and its 4-byte SHA-512/256 checksum in base32.
func (a Address) String() string {
	sum := sha512.Sum512_256(a[:])
	buf := make([]byte, 0, len(a)+checksumLen)
	buf = append(buf, a[:]...)
	buf = append(buf, sum[len(sum)-checksumLen:]...)
	return b32.EncodeToString(buf)
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// MarshalText implements encoding.TextMarshaler so addresses render in JSON.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	decoded, err := DecodeAddress(string(text))
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// DecodeAddress parses an address string and verifies its checksum.
func DecodeAddress(s string) (Address, error) {
	var a Address
	if len(s) != AddressLength {
		return a, fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidAddress, s, len(s), AddressLength)
	}
	raw, err := b32.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	if len(raw) != len(a)+checksumLen {
		return a, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, s, len(raw))
	}
	copy(a[:], raw[:len(a)])
	sum := sha512.Sum512_256(a[:])
	if !bytes.Equal(sum[len(sum)-checksumLen:], raw[len(a):]) {
		return Address{}, fmt.Errorf("%w: %q has a bad checksum", ErrInvalidAddress, s)
	}
	return a, nil
}

// IsValidAddress reports whether s decodes as an address.
func IsValidAddress(s string) bool {
	_, err := DecodeAddress(s)
	return err == nil
}
