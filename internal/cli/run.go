// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/algods/internal/config"
	"github.com/jeranaias/algods/internal/logging"
	"github.com/jeranaias/algods/internal/orchestrator"
	"github.com/jeranaias/algods/internal/util"
)

// openOrchestrator is replaced by tests.
var openOrchestrator = orchestrator.Open

// Run dispatches cmd. It does not print err; main does that with
// DisplayError so JSON and human modes are handled in one place.
func Run(ctx context.Context, cmd Command, args Args) error {
	if args.NoColor {
		ForceColorsEnabled(false)
	}
	if args.Err != nil {
		return args.Err
	}
	if args.Help && !args.JSON && cmd != CmdUnknown {
		ShowUsage(cmd)
		return nil
	}

	switch cmd {
	case CmdHelp:
		return HandleHelp(args)
	case CmdVersion:
		return HandleVersion(args)
	case CmdConfig:
		return HandleConfig(ctx, args)
	case CmdStartNet:
		return HandleStartNet(ctx, args)
	case CmdStopNet:
		return HandleStopNet(ctx, args)
	case CmdStatus:
		return HandleStatus(ctx, args)
	case CmdGetAccount:
		return HandleGetAccount(ctx, args)
	case CmdListAccounts:
		return HandleListAccounts(ctx, args)
	case CmdCreateAccount:
		return HandleCreateAccount(ctx, args)
	case CmdFundAccount:
		return HandleFundAccount(ctx, args)
	case CmdCreateToken:
		return HandleCreateToken(ctx, args)
	case CmdBuild:
		return HandleBuild(ctx, args)
	case CmdCreateApp:
		return HandleCreateApp(ctx, args)
	case CmdAppInfo:
		return HandleAppInfo(ctx, args)
	case CmdCallApp:
		return HandleCallApp(ctx, args)
	case CmdListTokens:
		return HandleListTokens(ctx, args)
	case CmdListApps:
		return HandleListApps(ctx, args)
	case CmdHistory:
		return HandleHistory(ctx, args)
	default:
		return HandleUnknown(args)
	}
}

// loadConfig reads --config when given, otherwise the default location.
func loadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		path := util.ExpandHome(args.ConfigPath)
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return cfg, nil
}

// withLogger attaches the diagnostic logger. -v forces debug and -q
// limits logging to errors.
func withLogger(ctx context.Context, args Args, cfg *config.Config) context.Context {
	level := cfg.Log.Level
	switch {
	case args.Verbose:
		level = "debug"
	case args.Quiet:
		level = "error"
	}
	return logging.WithLogger(ctx, logging.New(level, cfg.Log.Format, stderr))
}

// withOrchestrator loads config, opens the orchestrator and runs fn.
func withOrchestrator(ctx context.Context, args Args, fn func(context.Context, *orchestrator.Orchestrator) error) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	ctx = withLogger(ctx, args, cfg)

	o, err := openOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := o.Close(); cerr != nil {
			logging.FromContext(ctx).Warn("close failed", "error", cerr)
		}
	}()
	return fn(ctx, o)
}

// parseFlags parses args.Raw against spec and fails on unknown flags or
// stray positional arguments beyond maxPositional.
func parseFlags(args Args, spec FlagSpec, maxPositional int) (*ArgParser, error) {
	p := NewArgParser(args.Raw, spec)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if p.PositionalCount() > maxPositional {
		return nil, NewValidationError("argument", p.Positional(maxPositional), fmt.Sprintf("unexpected argument to %s", args.Name))
	}
	return p, nil
}

// emit prints data as a JSON envelope or through render.
func emit(args Args, command string, data interface{}, render func()) error {
	if args.JSON {
		return NewJSONResponse(command, data).Print()
	}
	if render != nil {
		render()
	}
	return nil
}

// say prints a progress line unless output is JSON or quiet.
func say(args Args, format string, a ...interface{}) {
	if args.JSON || args.Quiet {
		return
	}
	fmt.Fprintf(stderr, format+"\n", a...)
}
