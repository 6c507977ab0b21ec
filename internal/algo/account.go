// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algo

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Account is a signing keypair.
type Account struct {
	Address    Address
	PrivateKey ed25519.PrivateKey
}

// GenerateAccount creates a fresh random account.
func GenerateAccount() (Account, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Account{}, fmt.Errorf("failed to generate key: %w", err)
	}
	var a Account
	copy(a.Address[:], pub)
	a.PrivateKey = priv
	return a, nil
}

// AccountFromPrivateKey rebuilds an account from a 64-byte ed25519 private key
// (seed followed by public key), the layout kmd exports.
func AccountFromPrivateKey(key []byte) (Account, error) {
	if len(key) != ed25519.PrivateKeySize {
		return Account{}, fmt.Errorf("private key has %d bytes, want %d", len(key), ed25519.PrivateKeySize)
	}
	priv := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	var a Account
	copy(a.Address[:], priv.Public().(ed25519.PublicKey))
	if string(a.Address[:]) != string(key[ed25519.SeedSize:]) {
		return Account{}, fmt.Errorf("private key does not match its public half")
	}
	a.PrivateKey = priv
	return a, nil
}
