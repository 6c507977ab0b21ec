// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/algods/internal/algod"
	"github.com/jeranaias/algods/internal/config"
	"github.com/jeranaias/algods/internal/orchestrator"
	"github.com/jeranaias/algods/internal/sandbox"
	"github.com/jeranaias/algods/internal/security"
	"github.com/jeranaias/algods/internal/storage"
)

// =============================================================================
// FIXTURES
// =============================================================================

// fakeAlgod answers the read-only algod endpoints the commands use.
func fakeAlgod(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/health":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/v2/status":
			fmt.Fprint(w, `{"last-round": 42, "last-version": "future"}`)
		case strings.HasPrefix(r.URL.Path, "/v2/accounts/"):
			addr := strings.TrimPrefix(r.URL.Path, "/v2/accounts/")
			fmt.Fprintf(w, `{"address": %q, "amount": 5000000, "min-balance": 100000, "round": 42, "status": "Offline"}`, addr)
		case strings.HasPrefix(r.URL.Path, "/v2/applications/"):
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "application does not exist"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "not found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// testEnv writes a config file pointing at algodURL and returns Args
// that use it.
func testEnv(t *testing.T, algodURL string) Args {
	t.Helper()
	for _, env := range []string{
		"ALGODS_CONFIG", "ALGODS_ALGOD_URL", "ALGODS_ALGOD_TOKEN", "ALGODS_KMD_URL",
		"ALGODS_KMD_TOKEN", "ALGODS_SANDBOX_PATH", "ALGODS_DATA_DIR", "ALGODS_LOG_LEVEL",
	} {
		t.Setenv(env, "")
	}

	dir := t.TempDir()
	data := filepath.ToSlash(filepath.Join(dir, "data"))
	cfgFile := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`
[node]
algod_url = %q
kmd_url = %q

[sandbox]
path = %q

[storage]
data_dir = %q

[security]
encrypt_keys = false
`, algodURL, algodURL, filepath.ToSlash(filepath.Join(dir, "no-sandbox")), data)
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o600))
	return Args{JSON: true, ConfigPath: cfgFile}
}

func run(t *testing.T, args Args, argv ...string) error {
	t.Helper()
	cmd, parsed := Parse(argv)
	parsed.JSON = parsed.JSON || args.JSON
	if parsed.ConfigPath == "" {
		parsed.ConfigPath = args.ConfigPath
	}
	return Run(context.Background(), cmd, parsed)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Command string          `json:"command"`
}

// lastEnvelope decodes the last JSON document written to out.
func lastEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(out))
	var env envelope
	found := false
	for dec.More() {
		var e envelope
		require.NoError(t, dec.Decode(&e))
		env, found = e, true
	}
	require.True(t, found, "no JSON output: %q", out)
	return env
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestCreateAndListAccounts(t *testing.T) {
	out, _ := captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)

	require.NoError(t, run(t, args, "createaccount", "-label", "alice"))
	created := lastEnvelope(t, out.String())
	assert.True(t, created.Success)
	assert.Equal(t, "createaccount", created.Command)

	var acct storage.Account
	require.NoError(t, json.Unmarshal(created.Data, &acct))
	assert.Equal(t, "alice", acct.Label)
	assert.Len(t, acct.Address, 58)

	out.Reset()
	require.NoError(t, run(t, args, "listaccounts"))
	var list []orchestrator.AccountSummary
	require.NoError(t, json.Unmarshal(lastEnvelope(t, out.String()).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, acct.Address, list[0].Address)
	require.NotNil(t, list[0].Balance)
	assert.Equal(t, uint64(5_000_000), *list[0].Balance)

	out.Reset()
	require.NoError(t, run(t, args, "getaccount", "-a", "alice"))
	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(lastEnvelope(t, out.String()).Data, &details))
	assert.Equal(t, acct.Address, details["address"])
	assert.Equal(t, true, details["signable"])

	out.Reset()
	require.NoError(t, run(t, args, "createaccount", "-a", acct.Address))
	info := lastEnvelope(t, out.String())
	assert.Contains(t, string(info.Data), `"min-balance"`)
}

func TestListAccountsHumanOutput(t *testing.T) {
	out, _ := captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)

	require.NoError(t, run(t, args, "createaccount", "-label", "bob"))
	out.Reset()

	args.JSON = false
	require.NoError(t, run(t, args, "listaccounts"))
	assert.Contains(t, out.String(), "ADDRESS")
	assert.Contains(t, out.String(), "bob")
	assert.Contains(t, out.String(), "5.000000 ALGO")
}

func TestAccountCommandValidation(t *testing.T) {
	captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)

	tests := []struct {
		argv []string
		want int
	}{
		{[]string{"getaccount"}, ExitUsageError},
		{[]string{"getaccount", "-a", "nobody"}, ExitUsageError},
		{[]string{"fundaccount"}, ExitUsageError},
		{[]string{"fundaccount", "-a", "x", "-amount", "lots"}, ExitUsageError},
		{[]string{"createaccount", "-bogus"}, ExitUsageError},
		{[]string{"listaccounts", "extra"}, ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, " "), func(t *testing.T) {
			err := run(t, args, tt.argv...)
			require.Error(t, err)
			assert.Equal(t, tt.want, GetExitCode(err))
		})
	}
}

// =============================================================================
// APPS AND TOKENS
// =============================================================================

func TestAppCommandValidation(t *testing.T) {
	captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)

	tests := []struct {
		argv []string
		want int
	}{
		{[]string{"createapp", "-app", "counter"}, ExitUsageError},
		{[]string{"createapp", "-creator", "alice"}, ExitUsageError},
		{[]string{"callapp", "-app", "0", "-f", "alice"}, ExitUsageError},
		{[]string{"callapp", "-app", "3"}, ExitUsageError},
		{[]string{"appinfo"}, ExitUsageError},
		{[]string{"appinfo", "-a", "77"}, ExitNotFoundError},
		{[]string{"build", "-w"}, ExitUsageError},
		{[]string{"build", "-c", "missing"}, ExitNotFoundError},
		{[]string{"createtoken", "-creator", "alice"}, ExitUsageError},
		{[]string{"createtoken", "-creator", "alice", "-total", "10"}, ExitUsageError},
		{[]string{"createtoken", "-creator", "alice", "-total", "10", "-unit", "T", "-decimals", "20"}, ExitUsageError},
		{[]string{"listapps", "extra"}, ExitUsageError},
		{[]string{"listtokens", "-x"}, ExitUsageError},
		{[]string{"callapp", "-app", "3", "-f", "nobody", "-args", "str:x"}, ExitNotFoundError},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, " "), func(t *testing.T) {
			err := run(t, args, tt.argv...)
			require.Error(t, err)
			assert.Equal(t, tt.want, GetExitCode(err), err.Error())
		})
	}
}

func seedLedger(t *testing.T, args Args) {
	t.Helper()
	cfg, err := config.LoadFromPath(args.ConfigPath)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(cfg.Storage.DataPath(), 0o700))
	l, err := storage.Open(cfg.Storage.DatabasePath())
	require.NoError(t, err)
	defer l.Close()

	ctx := context.Background()
	require.NoError(t, l.SaveAsset(ctx, storage.Asset{
		AssetID: 12, Creator: "CREATOR", UnitName: "TOK", AssetName: "Token", Total: 1_500_000, Decimals: 6, TxID: "T1",
	}))
	require.NoError(t, l.SaveApp(ctx, storage.App{
		AppID: 34, Creator: "CREATOR", AppDir: "contracts/counter", TxID: "T2", ConfirmedRound: 9,
	}))
}

func TestListTokensAndApps(t *testing.T) {
	out, _ := captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)

	require.NoError(t, run(t, args, "listtokens"))
	var assets []storage.Asset
	require.NoError(t, json.Unmarshal(lastEnvelope(t, out.String()).Data, &assets))
	assert.Empty(t, assets)

	seedLedger(t, args)
	out.Reset()
	require.NoError(t, run(t, args, "listtokens"))
	require.NoError(t, json.Unmarshal(lastEnvelope(t, out.String()).Data, &assets))
	require.Len(t, assets, 1)
	assert.Equal(t, uint64(12), assets[0].AssetID)
	assert.Equal(t, "TOK", assets[0].UnitName)

	out.Reset()
	require.NoError(t, run(t, args, "listapps"))
	env := lastEnvelope(t, out.String())
	assert.Equal(t, "listapps", env.Command)
	var apps []storage.App
	require.NoError(t, json.Unmarshal(env.Data, &apps))
	require.Len(t, apps, 1)
	assert.Equal(t, uint64(34), apps[0].AppID)
	assert.Equal(t, "contracts/counter", apps[0].AppDir)
}

func TestListRecordsHumanOutput(t *testing.T) {
	out, _ := captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)
	args.JSON = false

	require.NoError(t, run(t, args, "listapps"))
	assert.Contains(t, out.String(), "No applications yet")

	seedLedger(t, args)
	out.Reset()
	require.NoError(t, run(t, args, "listtokens"))
	assert.Contains(t, out.String(), "ASSET ID")
	assert.Contains(t, out.String(), "1.500000 TOK")
}

// =============================================================================
// NETWORK
// =============================================================================

type stubNetwork struct {
	running bool
	downs   int
}

func (n *stubNetwork) Up(context.Context) (bool, error) {
	already := n.running
	n.running = true
	return already, nil
}

func (n *stubNetwork) Down(context.Context) error {
	n.running = false
	n.downs++
	return nil
}

func (n *stubNetwork) Status(context.Context) (*sandbox.Status, error) {
	return &sandbox.Status{Script: "/opt/sandbox/sandbox", Config: "dev", ContainersUp: n.running}, nil
}

// withStubNetwork swaps openOrchestrator for one that uses net instead of
// a real sandbox checkout.
func withStubNetwork(t *testing.T, net *stubNetwork) {
	t.Helper()
	old := openOrchestrator
	openOrchestrator = func(ctx context.Context, cfg *config.Config) (*orchestrator.Orchestrator, error) {
		ledger, err := storage.Open(":memory:")
		if err != nil {
			return nil, err
		}
		journal, err := security.OpenJournal(filepath.Join(cfg.Storage.DataPath(), orchestrator.JournalFile))
		if err != nil {
			return nil, err
		}
		return orchestrator.New(orchestrator.Options{
			Config:  cfg,
			Node:    algod.NewClient(&algod.ClientConfig{BaseURL: cfg.Node.AlgodURL, Token: cfg.Node.AlgodToken}),
			Network: func() (orchestrator.Network, error) { return net, nil },
			Ledger:  ledger,
			Journal: journal,
		})
	}
	t.Cleanup(func() { openOrchestrator = old })
}

func TestStartAndStopNet(t *testing.T) {
	out, _ := captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)
	net := &stubNetwork{}
	withStubNetwork(t, net)

	require.NoError(t, run(t, args, "startnet"))
	var res orchestrator.NetResult
	require.NoError(t, json.Unmarshal(lastEnvelope(t, out.String()).Data, &res))
	assert.False(t, res.AlreadyRunning)
	assert.Equal(t, uint64(42), res.LastRound)

	out.Reset()
	require.NoError(t, run(t, args, "startnet"))
	require.NoError(t, json.Unmarshal(lastEnvelope(t, out.String()).Data, &res))
	assert.True(t, res.AlreadyRunning)

	require.NoError(t, run(t, args, "stopnet"))
	assert.Equal(t, 1, net.downs)
}

func TestStatusReportsNodeDown(t *testing.T) {
	out, _ := captureOutput(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	args := testEnv(t, url)

	require.NoError(t, run(t, args, "status"))
	var st orchestrator.NetStatus
	require.NoError(t, json.Unmarshal(lastEnvelope(t, out.String()).Data, &st))
	assert.False(t, st.NodeHealthy)
	assert.NotEmpty(t, st.NodeError)
	assert.Equal(t, url, st.AlgodURL)
}

func TestStatusHumanOutput(t *testing.T) {
	out, _ := captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)
	withStubNetwork(t, &stubNetwork{running: true})

	args.JSON = false
	require.NoError(t, run(t, args, "status"))
	assert.Contains(t, out.String(), "healthy")
	assert.Contains(t, out.String(), "42")
	assert.Contains(t, out.String(), "/opt/sandbox/sandbox")
}

// =============================================================================
// CONFIG AND HISTORY
// =============================================================================

func TestConfigSetGetPath(t *testing.T) {
	out, _ := captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)

	require.NoError(t, run(t, args, "config", "set", "accounts.default_fund_microalgos", "2_000_000"))
	out.Reset()

	require.NoError(t, run(t, args, "config", "get", "accounts.default_fund_microalgos"))
	var v ConfigValueData
	require.NoError(t, json.Unmarshal(lastEnvelope(t, out.String()).Data, &v))
	assert.Equal(t, float64(2_000_000), v.Value)

	cfg, err := config.LoadFromPath(args.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), cfg.Accounts.DefaultFundMicroAlgos)
	assert.False(t, cfg.Security.EncryptKeys)

	out.Reset()
	require.NoError(t, run(t, args, "config", "path"))
	var p ConfigPathData
	require.NoError(t, json.Unmarshal(lastEnvelope(t, out.String()).Data, &p))
	assert.Equal(t, args.ConfigPath, p.Path)
	assert.True(t, p.Exists)
}

func TestConfigErrors(t *testing.T) {
	captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)

	err := run(t, args, "config", "get", "node.nope")
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	err = run(t, args, "config", "set", "log.level", "loud")
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	err = run(t, args, "config", "set", "node.timeout_secs", "soon")
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = run(t, args, "config", "frobnicate")
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	bad := args
	bad.ConfigPath = filepath.Join(t.TempDir(), "missing.toml")
	err = run(t, bad, "status")
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestConfigShowRedactsTokens(t *testing.T) {
	out, _ := captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)
	args.JSON = false

	require.NoError(t, run(t, args, "config", "show"))
	assert.Contains(t, out.String(), "node.algod_token")
	assert.Contains(t, out.String(), "[REDACTED]")
	assert.NotContains(t, out.String(), config.SandboxToken)
}

func TestHistoryShowsOperations(t *testing.T) {
	out, _ := captureOutput(t)
	args := testEnv(t, fakeAlgod(t).URL)

	require.NoError(t, run(t, args, "createaccount", "-label", "carol"))
	_ = run(t, args, "appinfo", "-a", "77")
	out.Reset()

	require.NoError(t, run(t, args, "history", "-n", "5"))
	var entries []security.Entry
	require.NoError(t, json.Unmarshal(lastEnvelope(t, out.String()).Data, &entries))
	require.NotEmpty(t, entries)
	assert.Equal(t, "createaccount", entries[0].Action)
	assert.True(t, entries[0].Success)
}
