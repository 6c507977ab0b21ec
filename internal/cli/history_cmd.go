// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/algods/internal/orchestrator"
	"github.com/jeranaias/algods/internal/security"
	"github.com/jeranaias/algods/internal/util"
)

// DefaultHistoryLimit is how many journal entries history shows by default.
const DefaultHistoryLimit = 20

// HandleHistory prints the most recent operation journal entries.
func HandleHistory(ctx context.Context, args Args) error {
	p, err := parseFlags(args, FlagSpec{Values: []string{"n"}}, 0)
	if err != nil {
		return err
	}
	limit := uint64(DefaultHistoryLimit)
	if n, given, err := p.FlagUint("n"); err != nil {
		return err
	} else if given {
		limit = n
	}

	return withOrchestrator(ctx, args, func(ctx context.Context, o *orchestrator.Orchestrator) error {
		entries, err := o.History(int(limit))
		if err != nil {
			return err
		}
		if entries == nil {
			entries = []security.Entry{}
		}
		return emit(args, "history", entries, func() { renderHistory(entries) })
	})
}

func renderHistory(entries []security.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(stdout, DimStyle.Render("No operations recorded yet"))
		return
	}
	t := NewTable("TIME", "ACTION", "RESULT", "SUBJECT", "DETAIL")
	for _, e := range entries {
		result := "ok"
		detail := e.TxID
		if !e.Success {
			result = "failed"
			detail = e.Error
		}
		subject := util.ShortID(e.Address, 6, 4)
		switch {
		case e.AppID != 0:
			subject = fmt.Sprintf("app %d", e.AppID)
		case e.AssetID != 0:
			subject = fmt.Sprintf("asset %d", e.AssetID)
		}
		t.Append(e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, result, subject, detail)
	}
	t.Render(stdout)
}
