// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/algods/internal/contract"
	"github.com/jeranaias/algods/internal/orchestrator"
	"github.com/jeranaias/algods/internal/storage"
	"github.com/jeranaias/algods/internal/util"
)

// =============================================================================
// BUILD
// =============================================================================

// HandleBuild compiles one contract (-c) or all of them. With -w it keeps
// rebuilding -c whenever its PyTeal sources change.
func HandleBuild(ctx context.Context, args Args) error {
	p, err := parseFlags(args, FlagSpec{Values: []string{"c"}, Bools: []string{"w"}}, 0)
	if err != nil {
		return err
	}
	name := p.Flag("c")
	watch := p.BoolFlag("w")
	if watch && name == "" {
		return ErrMissingArgument("-c", "algods build -c counter -w")
	}

	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		if watch {
			say(args, "Watching %s, press Ctrl+C to stop", name)
			err := o.WatchBuild(ctx, name, func(res *contract.Result, err error) {
				if args.JSON {
					if err != nil {
						_ = NewJSONErrorResponse("build", err).Print()
					} else {
						_ = NewJSONResponse("build", buildData([]*contract.Result{res})).Print()
					}
					return
				}
				if err != nil {
					DisplayError(stderr, "build", err, false)
					return
				}
				renderBuild([]*contract.Result{res})
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if name != "" {
			res, err := o.Build(ctx, name)
			if err != nil {
				return err
			}
			results := []*contract.Result{res}
			return emit(args, "build", buildData(results), func() { renderBuild(results) })
		}

		// BuildAll reports failures after building what it could. JSON
		// output carries a single envelope, so any failure wins there.
		results, buildErr := o.BuildAll(ctx)
		if buildErr != nil && (len(results) == 0 || args.JSON) {
			return buildErr
		}
		if err := emit(args, "build", buildData(results), func() { renderBuild(results) }); err != nil {
			return err
		}
		return buildErr
	})
}

func buildData(results []*contract.Result) BuildData {
	data := BuildData{Contracts: make([]BuildEntry, 0, len(results))}
	for _, r := range results {
		data.Contracts = append(data.Contracts, BuildEntry{
			Name:         r.Name,
			ApprovalPath: r.ApprovalPath,
			ClearPath:    r.ClearPath,
			DurationMS:   r.Duration.Milliseconds(),
		})
	}
	return data
}

func renderBuild(results []*contract.Result) {
	if len(results) == 0 {
		fmt.Fprintln(stdout, DimStyle.Render("No contracts found"))
		return
	}
	for _, r := range results {
		fmt.Fprintf(stdout, "%s %s %s\n", SuccessStyle.Render("[OK]"), r.Name,
			DimStyle.Render("("+r.Duration.Round(time.Millisecond).String()+")"))
		fmt.Fprintln(stdout, RenderLabel("  approval", r.ApprovalPath))
		fmt.Fprintln(stdout, RenderLabel("  clear", r.ClearPath))
	}
}

// =============================================================================
// CREATEAPP
// =============================================================================

// HandleCreateApp deploys the application in -app, signed by -creator.
func HandleCreateApp(ctx context.Context, args Args) error {
	p, err := parseFlags(args, FlagSpec{Values: []string{"creator", "app"}}, 0)
	if err != nil {
		return err
	}
	creator, dir := p.Flag("creator"), p.Flag("app")
	if creator == "" {
		return ErrMissingArgument("-creator", "algods createapp -creator <address> -app counter")
	}
	if dir == "" {
		return ErrMissingArgument("-app", "algods createapp -creator <address> -app counter")
	}

	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		say(args, "Deploying %s...", dir)
		res, err := o.CreateApp(ctx, creator, dir)
		if err != nil {
			return err
		}
		return emit(args, "createapp", res, func() {
			fmt.Fprintf(stdout, "%s application created\n", SuccessStyle.Render("[OK]"))
			fmt.Fprintln(stdout, LabelStyle.Render("app id")+HighlightStyle.Render(fmt.Sprint(res.AppID)))
			fmt.Fprintln(stdout, RenderLabel("creator", res.Creator))
			fmt.Fprintln(stdout, RenderLabel("app dir", res.AppDir))
			fmt.Fprintln(stdout, RenderLabel("approval hash", res.ApprovalHash))
			fmt.Fprintln(stdout, RenderLabel("clear hash", res.ClearHash))
			renderSubmitted(res.Submitted)
		})
	})
}

// =============================================================================
// APPINFO
// =============================================================================

// HandleAppInfo shows an application with its decoded global state.
func HandleAppInfo(ctx context.Context, args Args) error {
	p, err := parseFlags(args, FlagSpec{Values: []string{"a", "app"}}, 1)
	if err != nil {
		return err
	}
	raw := p.Flag("a", "app")
	if raw == "" {
		raw = p.Positional(0)
	}
	id, err := ParseAppID("-a", raw)
	if err != nil {
		return err
	}

	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		d, err := o.AppInfo(ctx, id)
		if err != nil {
			return err
		}
		return emit(args, "appinfo", d, func() { renderAppInfo(d) })
	})
}

func renderAppInfo(d *orchestrator.AppDetails) {
	fmt.Fprintln(stdout, TitleStyle.Render(fmt.Sprintf("Application %d", d.ID)))
	fmt.Fprintln(stdout, RenderLabel("creator", d.Creator))
	fmt.Fprintln(stdout, RenderLabel("global schema", fmt.Sprintf("%d uints, %d byte slices", d.GlobalSchema.NumUint, d.GlobalSchema.NumByteSlice)))
	fmt.Fprintln(stdout, RenderLabel("local schema", fmt.Sprintf("%d uints, %d byte slices", d.LocalSchema.NumUint, d.LocalSchema.NumByteSlice)))
	if d.ExtraPages > 0 {
		fmt.Fprintln(stdout, RenderLabel("extra pages", fmt.Sprint(d.ExtraPages)))
	}
	fmt.Fprintln(stdout, RenderLabel("program sizes", fmt.Sprintf("approval %d B, clear %d B", d.ApprovalSize, d.ClearSize)))
	if d.Record != nil {
		fmt.Fprintln(stdout, RenderLabel("created by algods", d.Record.CreatedAt.Format(time.RFC3339)))
		if d.Record.AppDir != "" {
			fmt.Fprintln(stdout, RenderLabel("app dir", d.Record.AppDir))
		}
	}

	fmt.Fprintln(stdout, SectionStyle.Render("Global state"))
	if len(d.GlobalState) == 0 {
		fmt.Fprintln(stdout, DimStyle.Render("(empty)"))
	} else {
		t := NewTable("KEY", "TYPE", "VALUE")
		for _, e := range d.GlobalState {
			t.Append(e.Key, e.Type, e.Value)
		}
		t.Render(stdout)
	}

	if len(d.Calls) > 0 {
		fmt.Fprintln(stdout, SectionStyle.Render("Recent calls"))
		t := NewTable("ROUND", "SENDER", "ARGS", "TXID")
		for _, c := range d.Calls {
			t.Append(fmt.Sprint(c.ConfirmedRound), util.ShortID(c.Sender, 6, 4), strings.Join(c.Args, " "), util.ShortID(c.TxID, 6, 4))
		}
		t.Render(stdout)
	}
}

// =============================================================================
// LISTAPPS
// =============================================================================

// HandleListApps lists the applications algods has created.
func HandleListApps(ctx context.Context, args Args) error {
	if _, err := parseFlags(args, FlagSpec{}, 0); err != nil {
		return err
	}
	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		apps, err := o.ListApps(ctx)
		if err != nil {
			return err
		}
		if apps == nil {
			apps = []storage.App{}
		}
		return emit(args, "listapps", apps, func() {
			if len(apps) == 0 {
				fmt.Fprintln(stdout, DimStyle.Render("No applications yet. Deploy one with: algods createapp"))
				return
			}
			t := NewTable("APP ID", "DIRECTORY", "CREATOR", "ROUND", "CREATED")
			for _, a := range apps {
				t.Append(fmt.Sprint(a.AppID), a.AppDir, util.ShortID(a.Creator, 6, 4),
					fmt.Sprint(a.ConfirmedRound), a.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			t.Render(stdout)
		})
	})
}

// =============================================================================
// CALLAPP
// =============================================================================

// HandleCallApp sends a NoOp call with -args to application -app from -f.
func HandleCallApp(ctx context.Context, args Args) error {
	p, err := parseFlags(args, FlagSpec{Values: []string{"app", "f"}, Lists: []string{"args"}}, 0)
	if err != nil {
		return err
	}
	id, err := ParseAppID("-app", p.Flag("app"))
	if err != nil {
		return err
	}
	from := p.Flag("f")
	if from == "" {
		return ErrMissingArgument("-f", "algods callapp -app 1 -f <address> -args str:inc")
	}
	appArgs := p.List("args")

	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		say(args, "Calling app %d...", id)
		res, err := o.CallApp(ctx, id, from, appArgs)
		if err != nil {
			return err
		}
		return emit(args, "callapp", res, func() {
			fmt.Fprintf(stdout, "%s app %d called\n", SuccessStyle.Render("[OK]"), res.AppID)
			fmt.Fprintln(stdout, RenderLabel("sender", res.Sender))
			if len(res.Args) > 0 {
				fmt.Fprintln(stdout, RenderLabel("args", strings.Join(res.Args, " ")))
			}
			renderSubmitted(res.Submitted)
			for _, l := range res.Logs {
				fmt.Fprintln(stdout, RenderLabel("log", l))
			}
		})
	})
}
