// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/algods/internal/logging"
	"github.com/jeranaias/algods/internal/util"
)

// Source and output file names.
const (
	ApprovalSource = "approval.py"
	ClearSource    = "clear.py"
	ApprovalTEAL   = "approval.teal"
	ClearTEAL      = "clear.teal"
	ManifestFile   = "app.toml"
)

// ErrContractNotFound means the contract directory or one of its sources is
// missing.
var ErrContractNotFound = errors.New("contract not found")

// BuildError is a failed PyTeal run.
type BuildError struct {
	Contract string
	Source   string
	Stderr   string
	Err      error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("build %s/%s failed: %v", e.Contract, e.Source, e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Runner executes an external command.
type Runner interface {
	Run(ctx context.Context, dir, name string, args []string, stdout, stderr io.Writer) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Builder compiles contracts below a contracts directory.
type Builder struct {
	ContractsDir string
	OutputDir    string
	Python       string
	Runner       Runner
}

// NewBuilder returns a Builder with defaults for empty fields.
func NewBuilder(contractsDir, outputDir, python string) *Builder {
	if outputDir == "" {
		outputDir = "build"
	}
	if python == "" {
		python = "python3"
	}
	return &Builder{
		ContractsDir: contractsDir,
		OutputDir:    outputDir,
		Python:       python,
		Runner:       execRunner{},
	}
}

// Result describes one built contract.
type Result struct {
	Name         string        `json:"name"`
	ApprovalPath string        `json:"approval_path"`
	ClearPath    string        `json:"clear_path"`
	Duration     time.Duration `json:"duration"`
}

// Dir returns the directory of contract name.
func (b *Builder) Dir(name string) string {
	return filepath.Join(b.ContractsDir, name)
}

// Build compiles approval.py and clear.py of contract name.
func (b *Builder) Build(ctx context.Context, name string) (*Result, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: invalid contract name %q", ErrContractNotFound, name)
	}
	dir := b.Dir(name)
	for _, src := range []string{ApprovalSource, ClearSource} {
		if !util.FileExists(filepath.Join(dir, src)) {
			return nil, fmt.Errorf("%w: %s has no %s", ErrContractNotFound, dir, src)
		}
	}

	start := time.Now()
	logging.FromContext(ctx).Debug("building contract", "name", name, "dir", dir)

	approval, err := b.runPython(ctx, name, dir, ApprovalSource)
	if err != nil {
		return nil, err
	}
	clearProg, err := b.runPython(ctx, name, dir, ClearSource)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(dir, b.OutputDir)
	res := &Result{
		Name:         name,
		ApprovalPath: filepath.Join(outDir, ApprovalTEAL),
		ClearPath:    filepath.Join(outDir, ClearTEAL),
	}
	if err := util.AtomicWriteFileWithDir(res.ApprovalPath, approval, 0o644, 0o755); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.ApprovalPath, err)
	}
	if err := util.AtomicWriteFileWithDir(res.ClearPath, clearProg, 0o644, 0o755); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.ClearPath, err)
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (b *Builder) runPython(ctx context.Context, name, dir, source string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	if err := b.Runner.Run(ctx, dir, b.Python, []string{source}, &stdout, &stderr); err != nil {
		return nil, &BuildError{
			Contract: name,
			Source:   source,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}
	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, &BuildError{
			Contract: name,
			Source:   source,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      errors.New("no TEAL printed to stdout"),
		}
	}
	return append(out, '\n'), nil
}

// List returns the names of contract directories holding an approval.py,
// sorted.
func (b *Builder) List() ([]string, error) {
	entries, err := os.ReadDir(b.ContractsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: contracts directory %s does not exist", ErrContractNotFound, b.ContractsDir)
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && util.FileExists(filepath.Join(b.ContractsDir, e.Name(), ApprovalSource)) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// BuildAll builds every contract. Failures do not stop the remaining
// builds; they are joined into the returned error.
func (b *Builder) BuildAll(ctx context.Context) ([]*Result, error) {
	names, err := b.List()
	if err != nil {
		return nil, err
	}
	var results []*Result
	var errs []error
	for _, name := range names {
		res, err := b.Build(ctx, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}
