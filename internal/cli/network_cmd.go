// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/jeranaias/algods/internal/orchestrator"
)

// HandleStartNet brings the sandbox up and waits for algod.
func HandleStartNet(ctx context.Context, args Args) error {
	if _, err := parseFlags(args, FlagSpec{}, 0); err != nil {
		return err
	}
	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		say(args, "Starting sandbox (%s)...", o.Config().Sandbox.Config)
		res, err := o.StartNet(ctx)
		if err != nil {
			return err
		}
		return emit(args, "startnet", res, func() {
			if res.AlreadyRunning {
				fmt.Fprintf(stdout, "%s network already running\n", SuccessStyle.Render("[OK]"))
			} else {
				fmt.Fprintf(stdout, "%s network started\n", SuccessStyle.Render("[OK]"))
			}
			fmt.Fprintln(stdout, RenderLabel("algod", res.AlgodURL))
			if res.LastRound > 0 {
				fmt.Fprintln(stdout, RenderLabel("last round", fmt.Sprint(res.LastRound)))
			}
		})
	})
}

// HandleStopNet stops the sandbox and removes its containers.
func HandleStopNet(ctx context.Context, args Args) error {
	if _, err := parseFlags(args, FlagSpec{}, 0); err != nil {
		return err
	}
	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		say(args, "Stopping sandbox...")
		if err := o.StopNet(ctx); err != nil {
			return err
		}
		return emit(args, "stopnet", map[string]bool{"stopped": true}, func() {
			fmt.Fprintf(stdout, "%s network stopped, containers removed\n", SuccessStyle.Render("[OK]"))
		})
	})
}

// HandleStatus reports sandbox, node and ledger state. It succeeds even
// when the network is down.
func HandleStatus(ctx context.Context, args Args) error {
	if _, err := parseFlags(args, FlagSpec{}, 0); err != nil {
		return err
	}
	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		st, err := o.Status(ctx)
		if err != nil {
			return err
		}
		return emit(args, "status", st, func() { renderStatus(st) })
	})
}

func renderStatus(st *orchestrator.NetStatus) {
	fmt.Fprintln(stdout, TitleStyle.Render("algods status"))

	fmt.Fprintln(stdout, SectionStyle.Render("Node"))
	fmt.Fprintln(stdout, RenderLabel("algod", st.AlgodURL))
	if st.NodeHealthy {
		fmt.Fprintln(stdout, LabelStyle.Render("health")+RenderStatus("healthy"))
		fmt.Fprintln(stdout, RenderLabel("last round", fmt.Sprint(st.LastRound)))
		if st.Version != "" {
			fmt.Fprintln(stdout, RenderLabel("protocol", st.Version))
		}
	} else {
		fmt.Fprintln(stdout, LabelStyle.Render("health")+RenderStatus("down"))
		fmt.Fprintln(stdout, RenderLabel("error", st.NodeError))
	}

	fmt.Fprintln(stdout, SectionStyle.Render("Sandbox"))
	if st.SandboxError != "" {
		fmt.Fprintln(stdout, LabelStyle.Render("containers")+RenderStatus("unknown"))
		fmt.Fprintln(stdout, RenderLabel("error", st.SandboxError))
	} else {
		state := "down"
		if st.ContainersUp {
			state = "up"
		}
		fmt.Fprintln(stdout, RenderLabel("script", st.SandboxScript))
		fmt.Fprintln(stdout, LabelStyle.Render("containers")+RenderStatus(state))
	}

	fmt.Fprintln(stdout, SectionStyle.Render("Ledger"))
	keys := make([]string, 0, len(st.Ledger))
	for k := range st.Ledger {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintln(stdout, RenderLabel(k, fmt.Sprint(st.Ledger[k])))
	}
}
