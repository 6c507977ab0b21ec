// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/algods/internal/logging"
)

// ErrNotReady means algod did not become healthy within the ready timeout.
var ErrNotReady = errors.New("sandbox did not become ready")

// DefaultReadyTimeout bounds WaitReady when Options leaves it zero.
const DefaultReadyTimeout = 120 * time.Second

// HealthChecker probes the node. *algod.Client satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options configures a Sandbox.
type Options struct {
	// Path is the sandbox script or checkout directory ("" searches).
	Path string
	// Config is the sandbox configuration passed to "up" (e.g. dev).
	Config string
	// ReadyTimeout bounds WaitReady.
	ReadyTimeout time.Duration
	// PollPerSec paces health probes during WaitReady.
	PollPerSec float64
	// Runner executes the script (default ExecRunner).
	Runner Runner
	// Node is probed for readiness.
	Node HealthChecker
	// Output receives the script's output when non-nil (verbose mode).
	Output io.Writer
}

// Sandbox manages one sandbox checkout.
type Sandbox struct {
	script       string
	config       string
	readyTimeout time.Duration
	pollPerSec   float64
	runner       Runner
	node         HealthChecker
	output       io.Writer
}

// Status describes the sandbox and its node.
type Status struct {
	Script       string `json:"script"`
	Config       string `json:"config"`
	ContainersUp bool   `json:"containers_up"`
	NodeHealthy  bool   `json:"node_healthy"`
	Detail       string `json:"detail,omitempty"`
}

// New locates the sandbox script and returns a Sandbox.
func New(opts Options) (*Sandbox, error) {
	script, err := Locate(opts.Path)
	if err != nil {
		return nil, err
	}
	return newWithScript(script, opts), nil
}

func newWithScript(script string, opts Options) *Sandbox {
	s := &Sandbox{
		script:       script,
		config:       opts.Config,
		readyTimeout: opts.ReadyTimeout,
		pollPerSec:   opts.PollPerSec,
		runner:       opts.Runner,
		node:         opts.Node,
		output:       opts.Output,
	}
	if s.config == "" {
		s.config = "dev"
	}
	if s.readyTimeout == 0 {
		s.readyTimeout = DefaultReadyTimeout
	}
	if s.pollPerSec <= 0 {
		s.pollPerSec = 1
	}
	if s.runner == nil {
		s.runner = ExecRunner{}
	}
	return s
}

// Script returns the located script path.
func (s *Sandbox) Script() string {
	return s.script
}

// run executes the script with args, capturing stderr for error messages
// and teeing everything to the configured output.
func (s *Sandbox) run(ctx context.Context, args ...string) (string, error) {
	var captured bytes.Buffer
	var stdout, stderr io.Writer = &captured, &captured
	if s.output != nil {
		stdout = io.MultiWriter(&captured, s.output)
		stderr = io.MultiWriter(&captured, s.output)
	}

	logging.FromContext(ctx).Debug("running sandbox", "script", s.script, "args", args)
	err := s.runner.Run(ctx, filepath.Dir(s.script), s.script, args, stdout, stderr)
	out := strings.TrimSpace(captured.String())
	if err != nil {
		return out, fmt.Errorf("sandbox %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Up starts the network and waits until algod is healthy. When the node is
// already healthy nothing is run and alreadyRunning is true.
func (s *Sandbox) Up(ctx context.Context) (alreadyRunning bool, err error) {
	log := logging.FromContext(ctx)
	if s.node != nil && s.node.Health(ctx) == nil {
		log.Info("sandbox already running")
		return true, nil
	}

	log.Info("starting sandbox", "config", s.config)
	if out, err := s.run(ctx, "up", s.config, "-v"); err != nil {
		return false, withDetail(err, out)
	}
	return false, s.WaitReady(ctx)
}

// WaitReady polls algod health until it answers or the ready timeout passes.
func (s *Sandbox) WaitReady(ctx context.Context) error {
	if s.node == nil {
		return nil
	}
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, s.readyTimeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(s.pollPerSec), 1)
	var lastErr error
	for {
		if err := limiter.Wait(ctx); err != nil {
			if parent.Err() != nil {
				return parent.Err()
			}
			if lastErr == nil {
				lastErr = err
			}
			return fmt.Errorf("%w after %s: %v", ErrNotReady, s.readyTimeout, lastErr)
		}
		if lastErr = s.node.Health(ctx); lastErr == nil {
			return nil
		}
		logging.FromContext(ctx).Debug("algod not ready", "error", lastErr)
	}
}

// Down stops the network and removes its containers.
func (s *Sandbox) Down(ctx context.Context) error {
	logging.FromContext(ctx).Info("stopping sandbox")
	out, err := s.run(ctx, "clean")
	if err != nil {
		return withDetail(err, out)
	}
	return nil
}

// Status reports whether the containers and algod are up. Script failure is
// reported in the Status, not as an error.
func (s *Sandbox) Status(ctx context.Context) (*Status, error) {
	st := &Status{Script: s.script, Config: s.config}

	out, err := s.run(ctx, "status")
	st.ContainersUp = err == nil
	st.Detail = lastLine(out)

	if s.node != nil {
		st.NodeHealthy = s.node.Health(ctx) == nil
	}
	return st, nil
}

func withDetail(err error, out string) error {
	if line := lastLine(out); line != "" {
		return fmt.Errorf("%w: %s", err, line)
	}
	return err
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
