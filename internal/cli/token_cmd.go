// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/orchestrator"
	"github.com/jeranaias/algods/internal/storage"
	"github.com/jeranaias/algods/internal/util"
)

var tokenFlags = FlagSpec{
	Values: []string{"creator", "total", "decimals", "unit", "name", "url"},
	Bools:  []string{"frozen"},
}

// HandleCreateToken issues a new ASA from a ledger account.
func HandleCreateToken(ctx context.Context, args Args) error {
	p, err := parseFlags(args, tokenFlags, 0)
	if err != nil {
		return err
	}
	params, creator, err := tokenParams(p)
	if err != nil {
		return err
	}
	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		say(args, "Creating token %s...", params.UnitName)
		res, err := o.CreateToken(ctx, creator, params)
		if err != nil {
			return err
		}
		return emit(args, "createtoken", res, func() {
			fmt.Fprintf(stdout, "%s token created\n", SuccessStyle.Render("[OK]"))
			fmt.Fprintln(stdout, LabelStyle.Render("asset id")+HighlightStyle.Render(fmt.Sprint(res.AssetID)))
			fmt.Fprintln(stdout, RenderLabel("creator", res.Creator))
			fmt.Fprintln(stdout, RenderLabel("supply", algo.FormatAssetAmount(params.Total, params.Decimals, params.UnitName)))
			renderSubmitted(res.Submitted)
		})
	})
}

func tokenParams(p *ArgParser) (orchestrator.TokenParams, string, error) {
	var tp orchestrator.TokenParams
	creator := p.Flag("creator")
	if creator == "" {
		return tp, "", ErrMissingArgument("-creator", "algods createtoken -creator alice -total 1000000 -unit TOK")
	}

	unit := p.Flag("unit")
	if unit == "" {
		return tp, "", ErrMissingArgument("-unit", "algods createtoken -creator alice -total 1000000 -unit TOK")
	}

	total, given, err := p.FlagUint("total")
	if err != nil {
		return tp, "", err
	}
	if !given || total == 0 {
		return tp, "", NewValidationError("-total", p.Flag("total"), "must be a positive integer")
	}
	decimals, _, err := p.FlagUint("decimals")
	if err != nil {
		return tp, "", err
	}
	if decimals > 19 {
		return tp, "", NewValidationError("-decimals", p.Flag("decimals"), "must be between 0 and 19")
	}

	tp = orchestrator.TokenParams{
		Total:         total,
		Decimals:      uint32(decimals),
		UnitName:      unit,
		AssetName:     p.Flag("name"),
		URL:           p.Flag("url"),
		DefaultFrozen: p.BoolFlag("frozen"),
	}
	return tp, creator, nil
}

// HandleListTokens lists the tokens algods has created.
func HandleListTokens(ctx context.Context, args Args) error {
	if _, err := parseFlags(args, FlagSpec{}, 0); err != nil {
		return err
	}
	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		assets, err := o.ListTokens(ctx)
		if err != nil {
			return err
		}
		if assets == nil {
			assets = []storage.Asset{}
		}
		return emit(args, "listtokens", assets, func() {
			if len(assets) == 0 {
				fmt.Fprintln(stdout, DimStyle.Render("No tokens yet. Create one with: algods createtoken"))
				return
			}
			t := NewTable("ASSET ID", "UNIT", "NAME", "SUPPLY", "CREATOR")
			for _, a := range assets {
				t.Append(fmt.Sprint(a.AssetID), a.UnitName, a.AssetName,
					algo.FormatAssetAmount(a.Total, a.Decimals, a.UnitName), util.ShortID(a.Creator, 6, 4))
			}
			t.Render(stdout)
		})
	})
}
