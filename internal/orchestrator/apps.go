// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/algod"
	"github.com/jeranaias/algods/internal/contract"
	"github.com/jeranaias/algods/internal/security"
	"github.com/jeranaias/algods/internal/storage"
	"github.com/jeranaias/algods/internal/util"
)

// =============================================================================
// BUILD
// =============================================================================

// Build compiles one PyTeal contract.
func (o *Orchestrator) Build(ctx context.Context, name string) (res *contract.Result, err error) {
	defer func() {
		o.record(ctx, security.Entry{Action: "build", Details: map[string]string{"contract": name}}, err)
	}()
	return o.builder.Build(ctx, name)
}

// BuildAll compiles every contract in the contracts directory.
func (o *Orchestrator) BuildAll(ctx context.Context) (res []*contract.Result, err error) {
	defer func() {
		o.record(ctx, security.Entry{Action: "build", Details: map[string]string{
			"contract": "*",
			"built":    strconv.Itoa(len(res)),
		}}, err)
	}()
	return o.builder.BuildAll(ctx)
}

// WatchBuild rebuilds name on every source change until ctx is done.
func (o *Orchestrator) WatchBuild(ctx context.Context, name string, onBuild func(*contract.Result, error)) error {
	return o.builder.Watch(ctx, name, contract.DefaultDebounce, onBuild)
}

// =============================================================================
// CREATE
// =============================================================================

// AppResult is a confirmed application creation.
type AppResult struct {
	Submitted
	AppID        uint64 `json:"app_id"`
	Creator      string `json:"creator"`
	AppDir       string `json:"app_dir"`
	ApprovalHash string `json:"approval_hash"`
	ClearHash    string `json:"clear_hash"`
}

// appDir resolves dir as given, then relative to the contracts directory.
func (o *Orchestrator) appDir(dir string) string {
	if dir == "" || util.DirExists(dir) || filepath.IsAbs(dir) {
		return dir
	}
	if alt := filepath.Join(o.cfg.Build.ContractsDir, dir); util.DirExists(alt) {
		return alt
	}
	return dir
}

// CreateApp deploys the application in dir from creator (address or label).
func (o *Orchestrator) CreateApp(ctx context.Context, creator, dir string) (res *AppResult, err error) {
	defer func() {
		e := security.Entry{Action: "createapp", Address: creator, Details: map[string]string{"app_dir": dir}}
		if res != nil {
			e.Address, e.TxID, e.AppID, e.Round = res.Creator, res.TxID, res.AppID, res.ConfirmedRound
		}
		o.record(ctx, e, err)
	}()

	if dir == "" {
		return nil, fmt.Errorf("%w: app directory is required", ErrInvalidArgument)
	}
	app, err := contract.LoadApp(o.appDir(dir), o.cfg.Build.OutputDir)
	if err != nil {
		return nil, err
	}
	args, err := app.Manifest.EncodedArgs()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	acct, err := o.signer(ctx, creator)
	if err != nil {
		return nil, err
	}
	defer security.ZeroBytes(acct.PrivateKey)

	approval, err := o.node.CompileTEAL(ctx, app.Approval)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", app.ApprovalPath, err)
	}
	clearProg, err := o.node.CompileTEAL(ctx, app.Clear)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", app.ClearPath, err)
	}

	params, err := o.node.SuggestedParams(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := algo.MakeAppCreate(acct.Address, algo.AppCreateParams{
		Approval:   approval.Program,
		Clear:      clearProg.Program,
		Global:     app.Manifest.GlobalSchema(),
		Local:      app.Manifest.LocalSchema(),
		ExtraPages: app.Manifest.ExtraPages,
		Args:       args,
	}, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	txid, info, err := o.submit(ctx, acct, tx)
	if err != nil {
		return nil, err
	}
	if info.ApplicationIndex == 0 {
		return nil, fmt.Errorf("transaction %s confirmed without an application id", txid)
	}

	absDir, _ := filepath.Abs(app.Dir)
	res = &AppResult{
		Submitted:    Submitted{TxID: txid, ConfirmedRound: info.ConfirmedRound},
		AppID:        info.ApplicationIndex,
		Creator:      acct.Address.String(),
		AppDir:       absDir,
		ApprovalHash: approval.Hash,
		ClearHash:    clearProg.Hash,
	}
	err = o.ledger.SaveApp(ctx, storage.App{
		AppID:          res.AppID,
		Creator:        res.Creator,
		AppDir:         res.AppDir,
		ApprovalHash:   res.ApprovalHash,
		ClearHash:      res.ClearHash,
		TxID:           txid,
		ConfirmedRound: res.ConfirmedRound,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		return res, fmt.Errorf("app %d created but not recorded: %w", res.AppID, err)
	}
	return res, nil
}

// =============================================================================
// INFO
// =============================================================================

// AppDetails is an application as the node sees it, plus local records.
type AppDetails struct {
	ID           uint64           `json:"id"`
	Creator      string           `json:"creator"`
	GlobalSchema algo.StateSchema `json:"global_schema"`
	LocalSchema  algo.StateSchema `json:"local_schema"`
	ExtraPages   uint32           `json:"extra_pages,omitempty"`
	ApprovalSize int              `json:"approval_size"`
	ClearSize    int              `json:"clear_size"`
	GlobalState  []StateEntry     `json:"global_state"`
	Record       *storage.App     `json:"record,omitempty"`
	Calls        []storage.Call   `json:"calls,omitempty"`
}

// RecentCalls is how many recorded calls AppInfo returns.
const RecentCalls = 10

// AppInfo returns application id with its decoded global state.
func (o *Orchestrator) AppInfo(ctx context.Context, id uint64) (*AppDetails, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: application id must be positive", ErrInvalidArgument)
	}
	app, err := o.node.Application(ctx, id)
	if err != nil {
		if algod.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d", ErrAppNotFound, id)
		}
		return nil, err
	}

	d := &AppDetails{
		ID:           app.ID,
		Creator:      app.Params.Creator,
		ExtraPages:   app.Params.ExtraProgramPages,
		ApprovalSize: len(app.Params.ApprovalProgram),
		ClearSize:    len(app.Params.ClearStateProgram),
		GlobalState:  DecodeState(app.Params.GlobalState),
	}
	if s := app.Params.GlobalStateSchema; s != nil {
		d.GlobalSchema = *s
	}
	if s := app.Params.LocalStateSchema; s != nil {
		d.LocalSchema = *s
	}

	rec, err := o.ledger.GetApp(ctx, id)
	switch {
	case err == nil:
		d.Record = &rec
		if d.Calls, err = o.ledger.ListCalls(ctx, id, RecentCalls); err != nil {
			return nil, err
		}
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}
	return d, nil
}

// ListApps returns the applications recorded in the ledger.
func (o *Orchestrator) ListApps(ctx context.Context) ([]storage.App, error) {
	return o.ledger.ListApps(ctx)
}

// =============================================================================
// CALL
// =============================================================================

// CallResult is a confirmed NoOp application call.
type CallResult struct {
	Submitted
	AppID  uint64   `json:"app_id"`
	Sender string   `json:"sender"`
	Args   []string `json:"args,omitempty"`
	CallID string   `json:"call_id"`
	Logs   []string `json:"logs,omitempty"`
}

// CallApp sends a NoOp call to app id from sender (address or label) with
// args in the int:/b64:/str:/addr: syntax.
func (o *Orchestrator) CallApp(ctx context.Context, id uint64, from string, args []string) (res *CallResult, err error) {
	defer func() {
		e := security.Entry{
			Action:  "callapp",
			Address: from,
			AppID:   id,
			Details: map[string]string{"args": strings.Join(args, " ")},
		}
		if res != nil {
			e.Address, e.TxID, e.Round = res.Sender, res.TxID, res.ConfirmedRound
		}
		o.record(ctx, e, err)
	}()

	if id == 0 {
		return nil, fmt.Errorf("%w: application id must be positive", ErrInvalidArgument)
	}
	encoded, err := algo.ParseAppArgs(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	// algod answers a call to a missing app with a generic 400, so look it up first.
	if _, err := o.node.Application(ctx, id); err != nil {
		if algod.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d", ErrAppNotFound, id)
		}
		return nil, err
	}

	acct, err := o.signer(ctx, from)
	if err != nil {
		return nil, err
	}
	defer security.ZeroBytes(acct.PrivateKey)

	params, err := o.node.SuggestedParams(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := algo.MakeAppCall(acct.Address, algo.AppCallParams{
		AppID:        id,
		OnCompletion: algo.NoOpOC,
		Args:         encoded,
	}, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	txid, info, err := o.submit(ctx, acct, tx)
	if err != nil {
		return nil, err
	}

	res = &CallResult{
		Submitted: Submitted{TxID: txid, ConfirmedRound: info.ConfirmedRound},
		AppID:     id,
		Sender:    acct.Address.String(),
		Args:      args,
	}
	for _, l := range info.Logs {
		if printable(l) {
			res.Logs = append(res.Logs, string(l))
		} else {
			res.Logs = append(res.Logs, fmt.Sprintf("%x", l))
		}
	}

	res.CallID, err = o.ledger.RecordCall(ctx, storage.Call{
		AppID:          id,
		Sender:         res.Sender,
		Args:           args,
		TxID:           txid,
		ConfirmedRound: res.ConfirmedRound,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		return res, fmt.Errorf("call confirmed but not recorded: %w", err)
	}
	return res, nil
}
