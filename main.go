// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// algods manages a local Algorand development environment: the sandbox
// network, accounts, tokens and PyTeal applications.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/algods/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Run(ctx, cmd, args)
	stop()

	if err != nil {
		name := cmd.String()
		if cmd == cli.CmdUnknown {
			name = args.Name
		}
		cli.DisplayError(os.Stderr, name, err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}
