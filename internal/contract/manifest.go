// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/util"
)

// ErrNoTEAL means an app directory has neither built nor raw TEAL.
var ErrNoTEAL = errors.New("no TEAL programs found")

// Schema is a state schema section of app.toml.
type Schema struct {
	Ints  uint64 `toml:"ints" json:"ints"`
	Bytes uint64 `toml:"bytes" json:"bytes"`
}

// Manifest is the parsed app.toml.
type Manifest struct {
	Global     Schema   `toml:"global" json:"global"`
	Local      Schema   `toml:"local" json:"local"`
	ExtraPages uint32   `toml:"extra_pages" json:"extra_pages"`
	Args       []string `toml:"args" json:"args,omitempty"`
}

// GlobalSchema converts the global section.
func (m Manifest) GlobalSchema() algo.StateSchema {
	return algo.StateSchema{NumUint: m.Global.Ints, NumByteSlice: m.Global.Bytes}
}

// LocalSchema converts the local section.
func (m Manifest) LocalSchema() algo.StateSchema {
	return algo.StateSchema{NumUint: m.Local.Ints, NumByteSlice: m.Local.Bytes}
}

// EncodedArgs parses the creation args.
func (m Manifest) EncodedArgs() ([][]byte, error) {
	return algo.ParseAppArgs(m.Args)
}

// LoadManifest reads app.toml from dir; a missing file yields zero values.
func LoadManifest(dir string) (Manifest, error) {
	var m Manifest
	path := filepath.Join(dir, ManifestFile)
	if !util.FileExists(path) {
		return m, nil
	}
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return m, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return m, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}
	if _, err := m.EncodedArgs(); err != nil {
		return m, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// App is an application directory ready for deployment.
type App struct {
	Dir          string
	Manifest     Manifest
	ApprovalPath string
	ClearPath    string
	Approval     []byte
	Clear        []byte
}

// LoadApp reads the manifest and TEAL programs of dir. Built output under
// outputDir is preferred over approval.teal/clear.teal in dir itself.
func LoadApp(dir, outputDir string) (*App, error) {
	if !util.DirExists(dir) {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrContractNotFound, dir)
	}
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	app := &App{Dir: dir, Manifest: m}
	for _, base := range []string{filepath.Join(dir, outputDir), dir} {
		ap, cp := filepath.Join(base, ApprovalTEAL), filepath.Join(base, ClearTEAL)
		if util.FileExists(ap) && util.FileExists(cp) {
			app.ApprovalPath, app.ClearPath = ap, cp
			break
		}
	}
	if app.ApprovalPath == "" {
		return nil, fmt.Errorf("%w in %s: run algods build first", ErrNoTEAL, dir)
	}

	if app.Approval, err = os.ReadFile(app.ApprovalPath); err != nil {
		return nil, err
	}
	if app.Clear, err = os.ReadFile(app.ClearPath); err != nil {
		return nil, err
	}
	return app, nil
}
