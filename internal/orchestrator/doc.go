// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator implements the algods operations: network lifecycle,
// accounts, tokens and applications. It coordinates the node clients, the
// sandbox, contract builds, key custody, the local ledger and the journal.
//
// # Usage
//
//	orch, err := orchestrator.Open(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer orch.Close()
//
//	acct, err := orch.CreateAccount(ctx, "alice")
//	res, err := orch.FundAccount(ctx, acct.Address, 10_000_000)
//
// Every state-changing operation is written to the journal, success or not.
package orchestrator
