// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger", "algods.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// =============================================================================
// LEDGER TESTS
// =============================================================================

func TestOpen_CreatesSchemaIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "algods.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := context.Background()
	if err := l.SaveAccount(ctx, Account{Address: "A1"}); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}
	l.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer l2.Close()

	counts, err := l2.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts["accounts"] != 1 {
		t.Errorf("accounts = %d, want 1 after reopen", counts["accounts"])
	}
	if l2.Path() != path {
		t.Errorf("Path() = %q, want %q", l2.Path(), path)
	}
}

func TestOpen_Memory(t *testing.T) {
	l, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer l.Close()
	if err := l.SaveAccount(context.Background(), Account{Address: "M"}); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}
}

// =============================================================================
// ACCOUNT TESTS
// =============================================================================

func TestAccounts_CRUD(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := l.SaveAccount(ctx, Account{Address: "BBB", Label: "bob", SealedKey: "ENC:x", CreatedAt: t0.Add(time.Minute)}); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}
	if err := l.SaveAccount(ctx, Account{Address: "AAA", Label: "alice", Source: SourceKMD, CreatedAt: t0}); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}

	a, err := l.GetAccount(ctx, "BBB")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if a.Label != "bob" || a.SealedKey != "ENC:x" || a.Source != SourceGenerated {
		t.Errorf("GetAccount = %+v", a)
	}
	if !a.HasKey() {
		t.Error("HasKey() = false, want true")
	}
	if !a.CreatedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("CreatedAt = %v, want %v", a.CreatedAt, t0.Add(time.Minute))
	}

	list, err := l.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(list) != 2 || list[0].Address != "AAA" || list[1].Address != "BBB" {
		t.Fatalf("ListAccounts = %+v, want AAA then BBB", list)
	}
	if list[0].HasKey() {
		t.Error("kmd account without key reports HasKey")
	}

	found, err := l.FindAccountByLabel(ctx, "alice")
	if err != nil || found.Address != "AAA" {
		t.Errorf("FindAccountByLabel = %+v, %v", found, err)
	}

	// Upsert keeps the address and replaces the label.
	if err := l.SaveAccount(ctx, Account{Address: "BBB", Label: "robert", SealedKey: "ENC:x"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	a, _ = l.GetAccount(ctx, "BBB")
	if a.Label != "robert" {
		t.Errorf("label after upsert = %q", a.Label)
	}

	if err := l.DeleteAccount(ctx, "AAA"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if _, err := l.GetAccount(ctx, "AAA"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAccount after delete err = %v, want ErrNotFound", err)
	}
	if err := l.DeleteAccount(ctx, "AAA"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestAccounts_Errors(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	if err := l.SaveAccount(ctx, Account{}); err == nil {
		t.Error("SaveAccount with empty address should fail")
	}
	if _, err := l.FindAccountByLabel(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindAccountByLabel err = %v, want ErrNotFound", err)
	}
	list, err := l.ListAccounts(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("empty ListAccounts = %v, %v", list, err)
	}
}

// =============================================================================
// ASSET TESTS
// =============================================================================

func TestAssets(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for _, a := range []Asset{
		{AssetID: 20, Creator: "C", UnitName: "TOK", AssetName: "Token", Total: 1_000_000, Decimals: 6, TxID: "T2"},
		{AssetID: 10, Creator: "C", Total: 5, TxID: "T1"},
	} {
		if err := l.SaveAsset(ctx, a); err != nil {
			t.Fatalf("SaveAsset failed: %v", err)
		}
	}

	list, err := l.ListAssets(ctx)
	if err != nil {
		t.Fatalf("ListAssets failed: %v", err)
	}
	if len(list) != 2 || list[0].AssetID != 10 {
		t.Errorf("ListAssets = %+v", list)
	}
	if got := list[1]; got.Decimals != 6 || got.Total != 1_000_000 || got.UnitName != "TOK" {
		t.Errorf("ListAssets[1] = %+v", got)
	}
	if err := l.SaveAsset(ctx, Asset{}); err == nil {
		t.Error("SaveAsset with zero id should fail")
	}
}

// =============================================================================
// APP AND CALL TESTS
// =============================================================================

func TestApps(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	app := App{AppID: 7, Creator: "C", AppDir: "contracts/counter", ApprovalHash: "H1", ClearHash: "H2", TxID: "T", ConfirmedRound: 42}
	if err := l.SaveApp(ctx, app); err != nil {
		t.Fatalf("SaveApp failed: %v", err)
	}

	got, err := l.GetApp(ctx, 7)
	if err != nil {
		t.Fatalf("GetApp failed: %v", err)
	}
	if got.AppDir != app.AppDir || got.ConfirmedRound != 42 || got.ApprovalHash != "H1" {
		t.Errorf("GetApp = %+v", got)
	}

	if _, err := l.GetApp(ctx, 8); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing app err = %v", err)
	}

	apps, err := l.ListApps(ctx)
	if err != nil || len(apps) != 1 {
		t.Errorf("ListApps = %v, %v", apps, err)
	}
}

func TestCalls(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	id1, err := l.RecordCall(ctx, Call{AppID: 7, Sender: "S", Args: []string{"str:inc"}, TxID: "T1", CreatedAt: t0})
	if err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}
	if len(id1) != 36 {
		t.Errorf("call id %q is not a uuid", id1)
	}
	if _, err := l.RecordCall(ctx, Call{AppID: 7, Sender: "S", TxID: "T2", CreatedAt: t0.Add(time.Second)}); err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}
	if _, err := l.RecordCall(ctx, Call{AppID: 9, Sender: "S", TxID: "T3"}); err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}

	calls, err := l.ListCalls(ctx, 7, 0)
	if err != nil {
		t.Fatalf("ListCalls failed: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("ListCalls returned %d calls, want 2", len(calls))
	}
	if calls[0].TxID != "T2" {
		t.Errorf("newest call first: got %s", calls[0].TxID)
	}
	if len(calls[1].Args) != 1 || calls[1].Args[0] != "str:inc" {
		t.Errorf("args = %v", calls[1].Args)
	}
	if calls[0].Args == nil {
		t.Error("nil args should round-trip as empty slice")
	}

	limited, err := l.ListCalls(ctx, 7, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("ListCalls limit 1 = %v, %v", limited, err)
	}
}
