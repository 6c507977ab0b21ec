// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/algod"
	"github.com/jeranaias/algods/internal/config"
	"github.com/jeranaias/algods/internal/contract"
	"github.com/jeranaias/algods/internal/kmd"
	"github.com/jeranaias/algods/internal/orchestrator"
	"github.com/jeranaias/algods/internal/sandbox"
)

// captureOutput redirects stdout and stderr for the test and disables colors.
func captureOutput(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr := stdout, stderr
	stdout, stderr = out, errOut
	ForceColorsEnabled(false)
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return out, errOut
}

// =============================================================================
// PARSE
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		cmd  Command
		raw  []string
		check func(t *testing.T, a Args)
	}{
		{name: "no args", argv: nil, cmd: CmdHelp},
		{name: "help", argv: []string{"help"}, cmd: CmdHelp},
		{name: "case insensitive", argv: []string{"CreateApp", "-app", "x"}, cmd: CmdCreateApp, raw: []string{"-app", "x"}},
		{name: "unknown", argv: []string{"deploy"}, cmd: CmdUnknown, check: func(t *testing.T, a Args) {
			assert.Equal(t, "deploy", a.Name)
		}},
		{
			name: "leading globals",
			argv: []string{"--json", "-v", "--config", "/tmp/c.toml", "listaccounts"},
			cmd:  CmdListAccounts,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.JSON)
				assert.True(t, a.Verbose)
				assert.Equal(t, "/tmp/c.toml", a.ConfigPath)
			},
		},
		{
			name: "trailing globals are removed from raw",
			argv: []string{"appinfo", "-a", "5", "--json", "--config=x.toml", "--no-color"},
			cmd:  CmdAppInfo,
			raw:  []string{"-a", "5"},
			check: func(t *testing.T, a Args) {
				assert.True(t, a.JSON)
				assert.True(t, a.NoColor)
				assert.Equal(t, "x.toml", a.ConfigPath)
			},
		},
		{
			name: "help flag",
			argv: []string{"callapp", "-h"},
			cmd:  CmdCallApp,
			raw:  []string{"-h"},
			check: func(t *testing.T, a Args) {
				assert.True(t, a.Help)
			},
		},
		{
			name: "quiet only global before command",
			argv: []string{"-q", "status"},
			cmd:  CmdStatus,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.Quiet)
			},
		},
		{name: "short help as command", argv: []string{"-h"}, cmd: CmdHelp, check: func(t *testing.T, a Args) {
			assert.Equal(t, "help", a.Name)
			assert.NoError(t, a.Err)
		}},
		{name: "long help as command", argv: []string{"--json", "--help"}, cmd: CmdHelp, check: func(t *testing.T, a Args) {
			assert.True(t, a.JSON)
		}},
		{name: "help flag before command word", argv: []string{"-h", "createapp"}, cmd: CmdHelp, raw: []string{"createapp"}},
		{name: "config without value", argv: []string{"--json", "--config"}, cmd: CmdHelp, check: func(t *testing.T, a Args) {
			assert.True(t, IsValidationError(a.Err))
			assert.Empty(t, a.ConfigPath)
		}},
		{name: "trailing config without value", argv: []string{"status", "--config"}, cmd: CmdStatus, check: func(t *testing.T, a Args) {
			assert.True(t, IsValidationError(a.Err))
			assert.Empty(t, a.Raw)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.argv)
			assert.Equal(t, tt.cmd, cmd)
			if tt.raw != nil {
				assert.Equal(t, tt.raw, args.Raw)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestRunTopLevelHelp(t *testing.T) {
	for _, argv := range [][]string{{"-h"}, {"--help"}, {"-help"}} {
		out, _ := captureOutput(t)
		cmd, args := Parse(argv)
		require.NoError(t, Run(context.Background(), cmd, args), argv)
		assert.Contains(t, out.String(), "more commands", argv)
	}

	cmd, args := Parse([]string{"--config"})
	err := Run(context.Background(), cmd, args)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "callapp", CmdCallApp.String())
	assert.Equal(t, "unknown", CmdUnknown.String())
	cmd, ok := LookupCommand("FUNDACCOUNT")
	assert.True(t, ok)
	assert.Equal(t, CmdFundAccount, cmd)
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParserCallAppFlags(t *testing.T) {
	spec := FlagSpec{Values: []string{"app", "f"}, Lists: []string{"args"}}
	p := NewArgParser([]string{"-app", "12", "-args", "int:1", "str:hello", "addr:XYZ", "-f", "alice"}, spec)
	require.NoError(t, p.Err())

	assert.Equal(t, "12", p.Flag("app"))
	assert.Equal(t, "alice", p.Flag("f"))
	assert.Equal(t, []string{"int:1", "str:hello", "addr:XYZ"}, p.List("args"))
	assert.Equal(t, 0, p.PositionalCount())
}

func TestArgParserForms(t *testing.T) {
	spec := FlagSpec{Values: []string{"c", "amount"}, Bools: []string{"w"}, Lists: []string{"args"}}

	p := NewArgParser([]string{"--c=counter", "-w", "-amount=-5", "pos"}, spec)
	require.NoError(t, p.Err())
	assert.Equal(t, "counter", p.Flag("c"))
	assert.True(t, p.BoolFlag("w"))
	assert.Equal(t, "-5", p.Flag("amount"))
	assert.Equal(t, "pos", p.Positional(0))
	assert.Equal(t, "", p.Positional(3))

	p = NewArgParser([]string{"-w=false", "-args=int:1", "int:2"}, spec)
	require.NoError(t, p.Err())
	assert.False(t, p.BoolFlag("w"))
	assert.True(t, p.HasFlag("w"))
	assert.Equal(t, []string{"int:1", "int:2"}, p.List("args"))

	p = NewArgParser([]string{"-amount", "-3"}, spec)
	require.NoError(t, p.Err())
	assert.Equal(t, "-3", p.Flag("amount"))

	p = NewArgParser([]string{"--", "-c", "x"}, spec)
	require.NoError(t, p.Err())
	assert.Equal(t, 2, p.PositionalCount())
	assert.False(t, p.HasFlag("c"))
}

func TestArgParserErrors(t *testing.T) {
	spec := FlagSpec{Values: []string{"c"}}

	p := NewArgParser([]string{"-bogus"}, spec)
	assert.True(t, IsValidationError(p.Err()))

	p = NewArgParser([]string{"-c"}, spec)
	assert.True(t, IsValidationError(p.Err()))

	p = NewArgParser([]string{"-c", "-h"}, spec)
	assert.Error(t, p.Err())
}

func TestFlagUint(t *testing.T) {
	p := NewArgParser([]string{"-amount", "10_000_000", "-bad", "x"}, FlagSpec{Values: []string{"amount", "bad"}})
	require.NoError(t, p.Err())

	n, given, err := p.FlagUint("amount")
	require.NoError(t, err)
	assert.True(t, given)
	assert.Equal(t, uint64(10_000_000), n)

	_, given, err = p.FlagUint("missing")
	assert.NoError(t, err)
	assert.False(t, given)

	_, _, err = p.FlagUint("bad")
	assert.True(t, IsValidationError(err))
}

func TestParseAppID(t *testing.T) {
	id, err := ParseAppID("-app", "42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := ParseAppID("-app", bad)
		assert.True(t, IsValidationError(err), bad)
	}
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitGeneralError},
		{"validation", NewValidationError("-app", "x", "bad"), ExitUsageError},
		{"not found type", NewNotFoundError("config key", "x"), ExitNotFoundError},
		{"config load", &ConfigError{Path: "c.toml", Err: errors.New("bad toml")}, ExitConfigError},
		{"config validate", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "log.level", Message: "bad"}}), ExitConfigError},
		{"node down", fmt.Errorf("status: %w", algod.ErrNotRunning), ExitNetworkError},
		{"kmd down", kmd.ErrNotRunning, ExitNetworkError},
		{"unauthorized", algod.ErrUnauthorized, ExitAuthError},
		{"deadline", context.DeadlineExceeded, ExitTimeoutError},
		{"confirmation timeout", algod.ErrConfirmationTimeout, ExitTimeoutError},
		{"sandbox not ready", sandbox.ErrNotReady, ExitTimeoutError},
		{"invalid address", fmt.Errorf("x: %w", algo.ErrInvalidAddress), ExitUsageError},
		{"zero amount", orchestrator.ErrZeroAmount, ExitUsageError},
		{"app not found", fmt.Errorf("%w: 9", orchestrator.ErrAppNotFound), ExitNotFoundError},
		{"contract missing", contract.ErrContractNotFound, ExitNotFoundError},
		{"no key", orchestrator.ErrNoSigningKey, ExitSecurityError},
		{"no sandbox", sandbox.ErrSandboxNotFound, ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayErrorHuman(t *testing.T) {
	captureOutput(t)
	var buf bytes.Buffer
	DisplayError(&buf, "getaccount", algod.ErrNotRunning, false)

	assert.Contains(t, buf.String(), "[ERROR]")
	assert.Contains(t, buf.String(), "algods startnet")
}

func TestDisplayErrorJSON(t *testing.T) {
	out, _ := captureOutput(t)
	DisplayError(nil, "appinfo", orchestrator.ErrAppNotFound, true)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "appinfo", resp.Command)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "application not found")
}

// =============================================================================
// OUTPUT
// =============================================================================

func TestJSONResponseEnvelope(t *testing.T) {
	out, _ := captureOutput(t)
	require.NoError(t, NewJSONResponse("version", map[string]string{"v": "1"}).Print())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.Bytes(), &raw))
	for _, key := range []string{"success", "data", "error", "timestamp", "command"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "null", string(raw["error"]))

	var ts string
	require.NoError(t, json.Unmarshal(raw["timestamp"], &ts))
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestTableAlignsWideRunes(t *testing.T) {
	captureOutput(t)
	tbl := NewTable("LABEL", "VALUE")
	tbl.Append("日本語", "X1")
	tbl.Append("abc", "X2")
	tbl.Append("a-much-longer-label", "X3")

	var buf bytes.Buffer
	tbl.Render(&buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)

	col := -1
	for _, line := range lines[1:] {
		idx := strings.Index(line, "X")
		require.GreaterOrEqual(t, idx, 0)
		w := runewidth.StringWidth(line[:idx])
		if col < 0 {
			col = w
		}
		assert.Equal(t, col, w, line)
	}
}

func TestTableTruncatesLongCells(t *testing.T) {
	captureOutput(t)
	tbl := NewTable("A", "B")
	tbl.MaxCell = 8
	tbl.Append(strings.Repeat("z", 30), "end")

	var buf bytes.Buffer
	tbl.Render(&buf)
	assert.Contains(t, buf.String(), "zzzzz...")
	assert.NotContains(t, buf.String(), strings.Repeat("z", 9))
	assert.Equal(t, 1, tbl.Len())
}

func TestHandleVersionJSON(t *testing.T) {
	out, _ := captureOutput(t)
	require.NoError(t, HandleVersion(Args{JSON: true}))

	var resp struct {
		Success bool        `json:"success"`
		Data    VersionData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, Version, resp.Data.Version)
	assert.NotEmpty(t, resp.Data.GoVersion)
}

func TestHandleUnknownIsUsageError(t *testing.T) {
	captureOutput(t)
	err := Run(context.Background(), CmdUnknown, Args{Name: "deploy", JSON: true})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}
