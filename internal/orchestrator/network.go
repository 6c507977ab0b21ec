// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"

	"github.com/jeranaias/algods/internal/security"
)

// NetResult is the outcome of startnet.
type NetResult struct {
	AlreadyRunning bool   `json:"already_running"`
	LastRound      uint64 `json:"last_round"`
	AlgodURL       string `json:"algod_url"`
}

// StartNet brings the sandbox up and waits for algod. Starting a running
// network is not an error.
func (o *Orchestrator) StartNet(ctx context.Context) (res *NetResult, err error) {
	defer func() {
		e := security.Entry{Action: "startnet"}
		if res != nil && res.AlreadyRunning {
			e.Details = map[string]string{"already_running": "true"}
		}
		o.record(ctx, e, err)
	}()

	net, err := o.network()
	if err != nil {
		return nil, err
	}
	already, err := net.Up(ctx)
	if err != nil {
		return nil, err
	}

	res = &NetResult{AlreadyRunning: already, AlgodURL: o.cfg.Node.AlgodURL}
	if st, err := o.node.Status(ctx); err == nil {
		res.LastRound = st.LastRound
	}
	return res, nil
}

// StopNet stops the sandbox and removes its containers.
func (o *Orchestrator) StopNet(ctx context.Context) (err error) {
	defer func() { o.record(ctx, security.Entry{Action: "stopnet"}, err) }()

	net, err := o.network()
	if err != nil {
		return err
	}
	return net.Down(ctx)
}

// NetStatus summarises the sandbox, the node and the local ledger.
type NetStatus struct {
	AlgodURL      string         `json:"algod_url"`
	NodeHealthy   bool           `json:"node_healthy"`
	LastRound     uint64         `json:"last_round,omitempty"`
	Version       string         `json:"version,omitempty"`
	NodeError     string         `json:"node_error,omitempty"`
	SandboxScript string         `json:"sandbox_script,omitempty"`
	ContainersUp  bool           `json:"containers_up"`
	SandboxError  string         `json:"sandbox_error,omitempty"`
	Ledger        map[string]int `json:"ledger"`
}

// Status never fails on an unreachable node or missing sandbox; those are
// reported in the result.
func (o *Orchestrator) Status(ctx context.Context) (*NetStatus, error) {
	st := &NetStatus{AlgodURL: o.cfg.Node.AlgodURL}

	if ns, err := o.node.Status(ctx); err != nil {
		st.NodeError = err.Error()
	} else {
		st.NodeHealthy = true
		st.LastRound = ns.LastRound
		st.Version = ns.LastVersion
	}

	if net, err := o.network(); err != nil {
		st.SandboxError = err.Error()
	} else if sb, err := net.Status(ctx); err != nil {
		st.SandboxError = err.Error()
	} else {
		st.SandboxScript = sb.Script
		st.ContainersUp = sb.ContainersUp
	}

	counts, err := o.ledger.Counts(ctx)
	if err != nil {
		return nil, err
	}
	st.Ledger = counts
	return st, nil
}
