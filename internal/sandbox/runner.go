// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jeranaias/algods/internal/util"
)

// ErrSandboxNotFound means no sandbox script could be located.
var ErrSandboxNotFound = errors.New("sandbox script not found")

// Runner executes an external command.
type Runner interface {
	Run(ctx context.Context, dir, name string, args []string, stdout, stderr io.Writer) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args in dir, inheriting the environment.
func (ExecRunner) Run(ctx context.Context, dir, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Locate finds the sandbox script. path may name the script or the checkout
// directory holding it; when empty or missing, $PATH and ~/sandbox are tried.
func Locate(path string) (string, error) {
	var candidates []string
	if path != "" {
		p := util.ExpandHome(path)
		if util.DirExists(p) {
			candidates = append(candidates, filepath.Join(p, "sandbox"))
		} else {
			candidates = append(candidates, p)
		}
	}

	if p, err := exec.LookPath("sandbox"); err == nil {
		candidates = append(candidates, p)
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, "sandbox", "sandbox"))
	}

	for _, c := range candidates {
		if util.FileExists(c) {
			abs, err := filepath.Abs(c)
			if err != nil {
				return c, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("%w: checked %q, PATH and ~/sandbox. "+
		"Clone https://github.com/algorand/sandbox and set [sandbox] path", ErrSandboxNotFound, path)
}
