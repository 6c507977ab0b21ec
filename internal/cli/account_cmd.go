// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/orchestrator"
)

// accountRef takes the account from -a or the first positional argument.
func accountRef(p *ArgParser) string {
	if v := p.Flag("a", "address"); v != "" {
		return v
	}
	return p.Positional(0)
}

// =============================================================================
// GETACCOUNT
// =============================================================================

// HandleGetAccount prints on-chain account information.
func HandleGetAccount(ctx context.Context, args Args) error {
	p, err := parseFlags(args, FlagSpec{Values: []string{"a", "address"}}, 1)
	if err != nil {
		return err
	}
	ref := accountRef(p)
	if ref == "" {
		return ErrMissingArgument("-a", "algods getaccount -a <address>")
	}
	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		return showAccount(ctx, args, o, "getaccount", ref)
	})
}

func showAccount(ctx context.Context, args Args, o *orchestrator.Orchestrator, command, ref string) error {
	d, err := o.GetAccount(ctx, ref)
	if err != nil {
		return err
	}
	return emit(args, command, d, func() { renderAccount(d) })
}

func renderAccount(d *orchestrator.AccountDetails) {
	fmt.Fprintln(stdout, TitleStyle.Render("Account"))
	fmt.Fprintln(stdout, LabelStyle.Render("address")+HighlightStyle.Render(d.Address))
	if d.Label != "" {
		fmt.Fprintln(stdout, RenderLabel("label", d.Label))
	}
	fmt.Fprintln(stdout, RenderLabel("balance", algo.FormatAlgos(d.Amount)))
	fmt.Fprintln(stdout, RenderLabel("min balance", algo.FormatAlgos(d.MinBalance)))
	if d.Status != "" {
		fmt.Fprintln(stdout, RenderLabel("status", d.Status))
	}
	fmt.Fprintln(stdout, RenderLabel("round", fmt.Sprint(d.Round)))

	custody := "watch only"
	switch {
	case d.Signable:
		custody = "key held by algods"
	case !d.Known:
		custody = "not in local ledger"
	}
	fmt.Fprintln(stdout, RenderLabel("custody", custody))

	if len(d.CreatedApps) > 0 {
		ids := make([]string, len(d.CreatedApps))
		for i, app := range d.CreatedApps {
			ids[i] = fmt.Sprint(app.ID)
		}
		fmt.Fprintln(stdout, RenderLabel("created apps", strings.Join(ids, ", ")))
	}
	if len(d.CreatedAssets) > 0 {
		ids := make([]string, len(d.CreatedAssets))
		for i, a := range d.CreatedAssets {
			ids[i] = fmt.Sprintf("%d (%s)", a.Index, a.Params.UnitName)
		}
		fmt.Fprintln(stdout, RenderLabel("created assets", strings.Join(ids, ", ")))
	}
	if len(d.AppsLocalState) > 0 {
		ids := make([]string, len(d.AppsLocalState))
		for i, ls := range d.AppsLocalState {
			ids[i] = fmt.Sprint(ls.ID)
		}
		fmt.Fprintln(stdout, RenderLabel("opted-in apps", strings.Join(ids, ", ")))
	}

	if len(d.Assets) > 0 {
		fmt.Fprintln(stdout, SectionStyle.Render("Assets"))
		t := NewTable("ASSET", "AMOUNT", "FROZEN")
		for _, h := range d.Assets {
			t.Append(fmt.Sprint(h.AssetID), fmt.Sprint(h.Amount), fmt.Sprint(h.IsFrozen))
		}
		t.Render(stdout)
	}
}

// =============================================================================
// LISTACCOUNTS
// =============================================================================

// HandleListAccounts lists ledger accounts with balances when the node is up.
func HandleListAccounts(ctx context.Context, args Args) error {
	if _, err := parseFlags(args, FlagSpec{}, 0); err != nil {
		return err
	}
	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		accounts, err := o.ListAccounts(ctx)
		if err != nil {
			return err
		}
		return emit(args, "listaccounts", accounts, func() {
			if len(accounts) == 0 {
				fmt.Fprintln(stdout, DimStyle.Render("No accounts yet. Create one with: algods createaccount"))
				return
			}
			t := NewTable("ADDRESS", "LABEL", "BALANCE", "SIGNS", "SOURCE")
			for _, a := range accounts {
				balance := "unknown"
				if a.Balance != nil {
					balance = algo.FormatAlgos(*a.Balance)
				}
				signs := "no"
				if a.Signable {
					signs = "yes"
				}
				t.Append(a.Address, a.Label, balance, signs, a.Source)
			}
			t.Render(stdout)
			if accounts[0].BalanceError != "" {
				fmt.Fprintln(stdout, DimStyle.Render("balances unavailable: "+accounts[0].BalanceError))
			}
		})
	})
}

// =============================================================================
// CREATEACCOUNT
// =============================================================================

// HandleCreateAccount creates an account, or with -a shows an existing one.
func HandleCreateAccount(ctx context.Context, args Args) error {
	p, err := parseFlags(args, FlagSpec{Values: []string{"a", "label"}}, 0)
	if err != nil {
		return err
	}
	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		if ref := p.Flag("a"); ref != "" {
			return showAccount(ctx, args, o, "createaccount", ref)
		}

		acct, err := o.CreateAccount(ctx, p.Flag("label"))
		if err != nil {
			return err
		}
		return emit(args, "createaccount", acct, func() {
			fmt.Fprintf(stdout, "%s account created\n", SuccessStyle.Render("[OK]"))
			fmt.Fprintln(stdout, LabelStyle.Render("address")+HighlightStyle.Render(acct.Address))
			if acct.Label != "" {
				fmt.Fprintln(stdout, RenderLabel("label", acct.Label))
			}
			fmt.Fprintln(stdout, DimStyle.Render("fund it with: algods fundaccount -a "+acct.Address))
		})
	})
}

// =============================================================================
// FUNDACCOUNT
// =============================================================================

// HandleFundAccount pays the account from the sandbox dispenser. The
// amount defaults to accounts.default_fund_microalgos.
func HandleFundAccount(ctx context.Context, args Args) error {
	p, err := parseFlags(args, FlagSpec{Values: []string{"a", "address", "amount"}}, 1)
	if err != nil {
		return err
	}
	ref := accountRef(p)
	if ref == "" {
		return ErrMissingArgument("-a", "algods fundaccount -a <address> -amount 5000000")
	}
	amount, given, err := p.FlagUint("amount")
	if err != nil {
		return err
	}
	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		if !given {
			amount = o.Config().Accounts.DefaultFundMicroAlgos
		}
		say(args, "Funding %s with %s...", ref, algo.FormatAlgos(amount))
		res, err := o.FundAccount(ctx, ref, amount)
		if err != nil {
			return err
		}
		return emit(args, "fundaccount", res, func() {
			fmt.Fprintf(stdout, "%s funded %s\n", SuccessStyle.Render("[OK]"), algo.FormatAlgos(res.Amount))
			fmt.Fprintln(stdout, RenderLabel("to", res.To))
			fmt.Fprintln(stdout, RenderLabel("from", res.From))
			renderSubmitted(res.Submitted)
		})
	})
}

func renderSubmitted(s orchestrator.Submitted) {
	fmt.Fprintln(stdout, RenderLabel("txid", s.TxID))
	fmt.Fprintln(stdout, RenderLabel("confirmed round", fmt.Sprint(s.ConfirmedRound)))
}
