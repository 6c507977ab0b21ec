// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

package security

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/algods/internal/util"
)

// =============================================================================
// UNIX KEY STORE
// =============================================================================

// UnixKeyStore is a file key store that refuses to read or write the key
// when the file or its directory is accessible to group or others.
type UnixKeyStore struct {
	path string
}

// NewKeyStore returns the platform key store for the key file at path.
func NewKeyStore(path string) KeyStore {
	return &UnixKeyStore{path: path}
}

func checkPrivate(path, what, fix string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat key %s: %w", what, err)
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		return fmt.Errorf("key %s %s has insecure permissions (%o); fix with: chmod %s %s",
			what, path, mode, fix, path)
	}
	return nil
}

// Store writes the key with 0600 inside a 0700 directory.
func (u *UnixKeyStore) Store(key []byte) error {
	dir := filepath.Dir(u.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := checkPrivate(dir, "directory", "700"); err != nil {
		return err
	}
	if err := util.AtomicWriteFileWithDir(u.path, key, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := checkPrivate(u.path, "file", "600"); err != nil {
		_ = os.Remove(u.path)
		return err
	}
	return nil
}

// Retrieve reads the key after verifying permissions.
func (u *UnixKeyStore) Retrieve() ([]byte, error) {
	if err := checkPrivate(filepath.Dir(u.path), "directory", "700"); err != nil {
		return nil, err
	}
	if err := checkPrivate(u.path, "file", "600"); err != nil {
		return nil, err
	}
	key, err := os.ReadFile(u.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return key, nil
}

// Delete overwrites the key file with zeros, then removes it.
func (u *UnixKeyStore) Delete() error {
	info, err := os.Stat(u.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat key file for deletion: %w", err)
	}

	if size := info.Size(); size > 0 {
		if f, err := os.OpenFile(u.path, os.O_WRONLY, 0600); err == nil {
			_, _ = f.Write(make([]byte, size))
			_ = f.Sync()
			_ = f.Close()
		}
	}

	if err := os.Remove(u.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key file: %w", err)
	}
	return nil
}

// Exists reports whether the key file exists.
func (u *UnixKeyStore) Exists() bool {
	return util.FileExists(u.path)
}
