// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

package security

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/jeranaias/algods/internal/util"
	"golang.org/x/sys/windows"
)

// =============================================================================
// WINDOWS DPAPI KEY STORE
// =============================================================================

// WindowsKeyStore encrypts the key with DPAPI, bound to the current user's
// logon credentials, before writing it to disk.
type WindowsKeyStore struct {
	path string
}

// NewKeyStore returns the platform key store for the key file at path.
func NewKeyStore(path string) KeyStore {
	return &WindowsKeyStore{path: path}
}

// Store protects the key with DPAPI and writes it.
func (w *WindowsKeyStore) Store(key []byte) error {
	encrypted, err := dpapiProtect(key)
	if err != nil {
		return fmt.Errorf("DPAPI encryption failed: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(w.path, encrypted, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write encrypted key: %w", err)
	}
	return nil
}

// Retrieve reads and unprotects the key.
func (w *WindowsKeyStore) Retrieve() ([]byte, error) {
	encrypted, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted key: %w", err)
	}
	key, err := dpapiUnprotect(encrypted)
	if err != nil {
		return nil, fmt.Errorf("DPAPI decryption failed: %w", err)
	}
	return key, nil
}

// Delete removes the encrypted key file.
func (w *WindowsKeyStore) Delete() error {
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key file: %w", err)
	}
	return nil
}

// Exists reports whether the encrypted key file exists.
func (w *WindowsKeyStore) Exists() bool {
	return util.FileExists(w.path)
}

// =============================================================================
// DPAPI
// =============================================================================

// cryptprotectUIForbidden suppresses any DPAPI prompt.
const cryptprotectUIForbidden = 0x01

func dpapiProtect(data []byte) ([]byte, error) {
	return dpapiCall(data, windows.CryptProtectData)
}

func dpapiUnprotect(data []byte) ([]byte, error) {
	return dpapiCall(data, func(in *windows.DataBlob, name *uint16, entropy *windows.DataBlob,
		reserved uintptr, prompt *windows.CryptProtectPromptStruct, flags uint32, out *windows.DataBlob) error {
		return windows.CryptUnprotectData(in, nil, entropy, reserved, prompt, flags, out)
	})
}

type dpapiFunc func(in *windows.DataBlob, name *uint16, entropy *windows.DataBlob,
	reserved uintptr, prompt *windows.CryptProtectPromptStruct, flags uint32, out *windows.DataBlob) error

func dpapiCall(data []byte, fn dpapiFunc) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}
	in := windows.DataBlob{Size: uint32(len(data)), Data: &data[0]}
	var out windows.DataBlob
	if err := fn(&in, nil, nil, 0, nil, cryptprotectUIForbidden, &out); err != nil {
		return nil, err
	}
	defer windows.LocalFree(windows.Handle(unsafe.Pointer(out.Data)))

	result := make([]byte, out.Size)
	copy(result, unsafe.Slice(out.Data, out.Size))
	return result, nil
}
