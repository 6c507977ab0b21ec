// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and every ALGODS_* variable at a clean state.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, env := range []string{
		"ALGODS_CONFIG", "ALGODS_ALGOD_URL", "ALGODS_ALGOD_TOKEN", "ALGODS_KMD_URL",
		"ALGODS_KMD_TOKEN", "ALGODS_SANDBOX_PATH", "ALGODS_DATA_DIR", "ALGODS_LOG_LEVEL",
	} {
		t.Setenv(env, "")
	}
	return home
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://localhost:4001", cfg.Node.AlgodURL)
	assert.Equal(t, strings.Repeat("a", 64), cfg.Node.AlgodToken)
	assert.Equal(t, "http://localhost:4002", cfg.Node.KmdURL)
	assert.Equal(t, "unencrypted-default-wallet", cfg.Sandbox.DefaultWallet)
	assert.Equal(t, uint64(10_000_000), cfg.Accounts.DefaultFundMicroAlgos)
	assert.True(t, cfg.Security.EncryptKeys)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Node, cfg.Node)
}

func TestLoadFromPath_PartialTOML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[node]
algod_url = "http://10.0.0.5:4001/"
confirm_rounds = 20

[build]
contracts_dir = "src/contracts"
`), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:4001", cfg.Node.AlgodURL, "trailing slash trimmed")
	assert.Equal(t, 20, cfg.Node.ConfirmRounds)
	assert.Equal(t, "src/contracts", cfg.Build.ContractsDir)
	assert.Equal(t, "http://localhost:4002", cfg.Node.KmdURL, "unset keys keep defaults")
	assert.Equal(t, "python3", cfg.Build.Python)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "permissions tightened on load")
	}
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[node]\nalgod_uri = \"x\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node.algod_uri")
}

func TestLoadFromPath_JSON(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sandbox":{"config":"release"}}`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Sandbox.Config)
}

func TestLoad_HonoursConfigEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sandbox]\npath = \"/opt/sandbox\"\n"), 0600))
	t.Setenv("ALGODS_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/opt/sandbox", cfg.Sandbox.Path)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("ALGODS_ALGOD_URL", "http://node:8080")
	t.Setenv("ALGODS_KMD_TOKEN", "secret")
	t.Setenv("ALGODS_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://node:8080", cfg.Node.AlgodURL)
	assert.Equal(t, "secret", cfg.Node.KmdToken)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Node.AlgodURL = "ftp://node"
	cfg.Node.TimeoutSecs = -1
	cfg.Log.Level = "chatty"
	cfg.Build.OutputDir = "../escape"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"node.algod_url", "node.timeout_secs", "log.level", "build.output_dir"}, fields)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.Sandbox.Config = "release"
	cfg.Accounts.DefaultFundMicroAlgos = 42
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# algods configuration file"))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Log.Format = "json"
	require.NoError(t, SaveJSON(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "json", loaded.Log.Format)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("node.algod_url")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4001", v)

	require.NoError(t, cfg.Set("node.confirm_rounds", "25"))
	assert.Equal(t, 25, cfg.Node.ConfirmRounds)

	require.NoError(t, cfg.Set("accounts.default_fund_microalgos", "5_000_000"))
	assert.Equal(t, uint64(5_000_000), cfg.Accounts.DefaultFundMicroAlgos)

	require.NoError(t, cfg.Set("security.encrypt_keys", "false"))
	assert.False(t, cfg.Security.EncryptKeys)

	require.NoError(t, cfg.Set("sandbox.path", "/srv/sandbox"))
	assert.Equal(t, "/srv/sandbox", cfg.Sandbox.Path)
}

func TestGetSet_Errors(t *testing.T) {
	cfg := Default()

	_, err := cfg.Get("")
	assert.Error(t, err)
	_, err = cfg.Get("node.nope")
	assert.Error(t, err)
	_, err = cfg.Get("version.sub")
	assert.Error(t, err)

	assert.Error(t, cfg.Set("node", "x"))
	assert.Error(t, cfg.Set("node.timeout_secs", "soon"))
	assert.Error(t, cfg.Set("security.encrypt_keys", "maybe"))
}

func TestGetAllKeys_AllResolvable(t *testing.T) {
	cfg := Default()
	keys := GetAllKeys()
	assert.Contains(t, keys, "node.algod_url")
	assert.Contains(t, keys, "log.format")
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestString_RedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.Sandbox.WalletPassword = "hunter2"

	s := cfg.String()
	assert.NotContains(t, s, SandboxToken)
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "[REDACTED]")
	assert.Equal(t, SandboxToken, cfg.Node.AlgodToken, "original untouched")
}

func TestStoragePaths(t *testing.T) {
	home := isolate(t)
	cfg := Default()

	assert.Equal(t, filepath.Join(home, ".algods"), cfg.Storage.DataPath())
	assert.Equal(t, filepath.Join(home, ".algods", "algods.db"), cfg.Storage.DatabasePath())

	abs := filepath.Join(t.TempDir(), "x.db")
	cfg.Storage.Database = abs
	assert.Equal(t, abs, cfg.Storage.DatabasePath())
}

func TestPassphrase(t *testing.T) {
	cfg := Default()
	t.Setenv("ALGODS_PASSPHRASE", "correct horse")
	assert.Equal(t, "correct horse", cfg.Security.Passphrase())

	cfg.Security.PassphraseEnv = ""
	assert.Empty(t, cfg.Security.Passphrase())
}
