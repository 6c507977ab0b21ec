// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algo

import (
	"crypto/ed25519"
	"errors"
	"fmt"
)

// ErrWrongSigner is returned when the signing key is not the sender's.
var ErrWrongSigner = errors.New("signing key does not belong to the sender")

// Sign signs tx with acct and returns the signed transaction and its ID.
func Sign(acct Account, tx Transaction) (SignedTxn, string, error) {
	if len(acct.PrivateKey) != ed25519.PrivateKeySize {
		return SignedTxn{}, "", fmt.Errorf("account %s has no private key", acct.Address)
	}
	if tx.Sender != acct.Address {
		return SignedTxn{}, "", fmt.Errorf("%w: sender %s, key %s", ErrWrongSigner, tx.Sender, acct.Address)
	}
	msg, err := bytesToSign(tx)
	if err != nil {
		return SignedTxn{}, "", err
	}
	stx := SignedTxn{Txn: tx}
	copy(stx.Sig[:], ed25519.Sign(acct.PrivateKey, msg))

	id, err := TxID(tx)
	if err != nil {
		return SignedTxn{}, "", err
	}
	return stx, id, nil
}

// Verify checks the signature of stx against its sender.
func Verify(stx SignedTxn) bool {
	msg, err := bytesToSign(stx.Txn)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(stx.Txn.Sender[:]), msg, stx.Sig[:])
}
