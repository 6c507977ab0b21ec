// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jeranaias/algods/internal/util"
	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// SealedPrefix marks a sealed value: ENC:base64(nonce|ciphertext|tag).
const SealedPrefix = "ENC:"

// NonceSize is the AES-GCM nonce size.
const NonceSize = 12

// KeySize is the AES-256 key size.
const KeySize = 32

// SaltSize is the PBKDF2 salt size.
const SaltSize = 32

// PBKDF2Iterations follows the OWASP 2023 figure for PBKDF2-SHA-256.
const PBKDF2Iterations = 600000

var (
	// ErrNotSealed is returned by Open for values without the ENC: prefix.
	ErrNotSealed = errors.New("value is not sealed")
	// ErrInvalidCiphertext indicates a malformed sealed value.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	// ErrDecryptionFailed indicates the wrong key or tampered data.
	ErrDecryptionFailed = errors.New("decryption failed: wrong passphrase or corrupted key")
)

// ZeroBytes overwrites b so key material does not linger in memory.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}

// =============================================================================
// KEY DERIVATION
// =============================================================================

// GenerateSalt returns a random PBKDF2 salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateMasterKey returns a random AES-256 key.
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return key, nil
}

// DeriveKey derives an AES-256 key from passphrase with PBKDF2-SHA-256.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, KeySize, sha256.New)
}

// =============================================================================
// VAULT
// =============================================================================

// Vault seals account private keys with AES-256-GCM before they reach the
// local ledger.
type Vault struct {
	mu   sync.RWMutex
	aead cipher.AEAD
	mode string
}

// VaultOptions selects the master key source.
type VaultOptions struct {
	// Passphrase, when set, derives the key with PBKDF2 and the salt at SaltPath.
	Passphrase string
	SaltPath   string

	// KeyStore holds a random master key when no passphrase is given.
	KeyStore KeyStore
}

// OpenVault returns a ready vault, creating the salt or master key on first use.
func OpenVault(opts VaultOptions) (*Vault, error) {
	if opts.Passphrase != "" {
		return openPassphraseVault(opts.Passphrase, opts.SaltPath)
	}
	if opts.KeyStore == nil {
		return nil, fmt.Errorf("vault needs a passphrase or a key store")
	}
	return openKeyStoreVault(opts.KeyStore)
}

func openPassphraseVault(passphrase, saltPath string) (*Vault, error) {
	if saltPath == "" {
		return nil, fmt.Errorf("passphrase vault needs a salt path")
	}
	salt, err := os.ReadFile(saltPath)
	if os.IsNotExist(err) {
		if salt, err = GenerateSalt(); err != nil {
			return nil, err
		}
		if err := util.AtomicWriteFileWithDir(saltPath, salt, 0600, 0700); err != nil {
			return nil, fmt.Errorf("failed to save salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt file %s is corrupt (%d bytes)", saltPath, len(salt))
	}

	key := DeriveKey(passphrase, salt)
	defer ZeroBytes(key)
	return newVault(key, "passphrase")
}

func openKeyStoreVault(store KeyStore) (*Vault, error) {
	var key []byte
	var err error
	if store.Exists() {
		key, err = store.Retrieve()
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve master key: %w", err)
		}
		if len(key) != KeySize {
			ZeroBytes(key)
			return nil, fmt.Errorf("master key has %d bytes, want %d", len(key), KeySize)
		}
	} else {
		key, err = GenerateMasterKey()
		if err != nil {
			return nil, err
		}
		if err := store.Store(key); err != nil {
			ZeroBytes(key)
			return nil, fmt.Errorf("failed to store master key: %w", err)
		}
	}
	defer ZeroBytes(key)
	return newVault(key, "keystore")
}

func newVault(key []byte, mode string) (*Vault, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return &Vault{aead: gcm, mode: mode}, nil
}

// Mode reports the key source, "passphrase" or "keystore".
func (v *Vault) Mode() string {
	return v.mode
}

// Seal encrypts plaintext and returns it as an ENC: string.
func (v *Vault) Seal(plaintext []byte) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := v.aead.Seal(nonce, nonce, plaintext, nil)
	return SealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Callers should ZeroBytes the result
// once done with it.
func (v *Vault) Open(sealed string) ([]byte, error) {
	if !IsSealed(sealed) {
		return nil, ErrNotSealed
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, SealedPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(data) < NonceSize+v.aead.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	plaintext, err := v.aead.Open(nil, data[:NonceSize], data[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
