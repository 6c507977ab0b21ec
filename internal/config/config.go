// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/algods/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete algods configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Node endpoints (algod, kmd, indexer)
	Node NodeConfig `toml:"node" json:"node"`

	// Sandbox checkout and wallet
	Sandbox SandboxConfig `toml:"sandbox" json:"sandbox"`

	Accounts AccountsConfig `toml:"accounts" json:"accounts"`

	// PyTeal contract build settings
	Build BuildConfig `toml:"build" json:"build"`

	// Local ledger location
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Key custody
	Security SecurityConfig `toml:"security" json:"security"`

	Log LogConfig `toml:"log" json:"log"`
}

// NodeConfig points algods at the sandbox daemons.
type NodeConfig struct {
	AlgodURL   string `toml:"algod_url" json:"algod_url"`
	AlgodToken string `toml:"algod_token" json:"algod_token"`
	KmdURL     string `toml:"kmd_url" json:"kmd_url"`
	KmdToken   string `toml:"kmd_token" json:"kmd_token"`
	IndexerURL string `toml:"indexer_url" json:"indexer_url"`

	// TimeoutSecs bounds each HTTP request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// ConfirmRounds is how many rounds to wait for a transaction to confirm.
	ConfirmRounds int `toml:"confirm_rounds" json:"confirm_rounds"`

	// PollPerSec caps pending-transaction polls per second.
	PollPerSec int `toml:"poll_per_sec" json:"poll_per_sec"`
}

// SandboxConfig locates the sandbox checkout.
type SandboxConfig struct {
	Path             string `toml:"path" json:"path"`
	Config           string `toml:"config" json:"config"`
	ReadyTimeoutSecs int    `toml:"ready_timeout_secs" json:"ready_timeout_secs"`
	DefaultWallet    string `toml:"default_wallet" json:"default_wallet"`
	WalletPassword   string `toml:"wallet_password" json:"wallet_password"`
}

// AccountsConfig holds account defaults.
type AccountsConfig struct {
	DefaultFundMicroAlgos uint64 `toml:"default_fund_microalgos" json:"default_fund_microalgos"`
	MinBalance            uint64 `toml:"min_balance" json:"min_balance"`
}

// BuildConfig controls how contracts are compiled.
type BuildConfig struct {
	ContractsDir string `toml:"contracts_dir" json:"contracts_dir"`
	Python       string `toml:"python" json:"python"`
	OutputDir    string `toml:"output_dir" json:"output_dir"`
}

// StorageConfig locates the local ledger database.
type StorageConfig struct {
	DataDir  string `toml:"data_dir" json:"data_dir"`
	Database string `toml:"database" json:"database"`
}

// SecurityConfig controls sealing of account keys.
type SecurityConfig struct {
	// EncryptKeys seals private keys with the vault before storing them.
	EncryptKeys bool `toml:"encrypt_keys" json:"encrypt_keys"`

	// PassphraseEnv names the environment variable holding the vault
	// passphrase. When unset or empty, a random key in the key store is used.
	PassphraseEnv string `toml:"passphrase_env" json:"passphrase_env"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// SandboxToken is the API token the sandbox ships with for algod and kmd.
var SandboxToken = strings.Repeat("a", 64)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// Default returns the configuration matching a stock sandbox.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Node: NodeConfig{
			AlgodURL:      "http://localhost:4001",
			AlgodToken:    SandboxToken,
			KmdURL:        "http://localhost:4002",
			KmdToken:      SandboxToken,
			IndexerURL:    "http://localhost:8980",
			TimeoutSecs:   30,
			ConfirmRounds: 10,
			PollPerSec:    4,
		},
		Sandbox: SandboxConfig{
			Path:             "~/sandbox",
			Config:           "dev",
			ReadyTimeoutSecs: 120,
			DefaultWallet:    "unencrypted-default-wallet",
		},
		Accounts: AccountsConfig{
			DefaultFundMicroAlgos: 10_000_000,
			MinBalance:            100_000,
		},
		Build: BuildConfig{
			ContractsDir: "contracts",
			Python:       "python3",
			OutputDir:    "build",
		},
		Storage: StorageConfig{
			DataDir:  "~/.algods",
			Database: "algods.db",
		},
		Security: SecurityConfig{
			EncryptKeys:   true,
			PassphraseEnv: "ALGODS_PASSPHRASE",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Timeout is the per-request HTTP timeout.
func (n NodeConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSecs) * time.Second
}

// ReadyTimeout bounds how long startnet waits for algod.
func (s SandboxConfig) ReadyTimeout() time.Duration {
	return time.Duration(s.ReadyTimeoutSecs) * time.Second
}

// DataPath returns the expanded data directory.
func (s StorageConfig) DataPath() string {
	return util.ExpandHome(s.DataDir)
}

// DatabasePath returns the full path of the ledger database.
func (s StorageConfig) DatabasePath() string {
	if filepath.IsAbs(s.Database) {
		return s.Database
	}
	return filepath.Join(s.DataPath(), s.Database)
}

// Passphrase returns the vault passphrase from the configured variable.
func (s SecurityConfig) Passphrase() string {
	if s.PassphraseEnv == "" {
		return ""
	}
	return os.Getenv(s.PassphraseEnv)
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the algods configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".algods"), nil
}

// ConfigPathTOML returns the config file path, honouring ALGODS_CONFIG.
func ConfigPathTOML() (string, error) {
	if p := os.Getenv("ALGODS_CONFIG"); p != "" {
		return util.ExpandHome(p), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ensureSecurePermissions tightens config files to 0600; they hold API tokens.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the TOML config, falling back to JSON and then to defaults.
// Environment overrides are applied last. A missing file is not an error.
func Load() (*Config, error) {
	tomlPath, err := ConfigPathTOML()
	if err == nil && util.FileExists(tomlPath) {
		return LoadFromPath(tomlPath)
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil && util.FileExists(jsonPath) {
		return LoadFromPath(jsonPath)
	}

	cfg := Default()
	return finish(cfg)
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads a specific file. Keys missing from the file keep their
// default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# algods configuration file\n")
	b.WriteString("# Generated by algods - edit with care\n")
	b.WriteString("\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, []byte(b.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as JSON atomically with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func validateURL(field, raw string, errs *ValidateErrors) {
	if raw == "" {
		*errs = append(*errs, ValidationError{Field: field, Message: "must not be empty"})
		return
	}
	u, err := url.Parse(raw)
	if err != nil {
		*errs = append(*errs, ValidationError{Field: field, Message: fmt.Sprintf("invalid URL: %v", err)})
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		*errs = append(*errs, ValidationError{Field: field, Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)})
	}
	if u.Host == "" {
		*errs = append(*errs, ValidationError{Field: field, Message: "missing host"})
	}
}

func validatePositive(field string, v int, errs *ValidateErrors) {
	if v <= 0 {
		*errs = append(*errs, ValidationError{Field: field, Message: fmt.Sprintf("must be positive, got %d", v)})
	}
}

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	validateURL("node.algod_url", c.Node.AlgodURL, &errs)
	validateURL("node.kmd_url", c.Node.KmdURL, &errs)
	if c.Node.IndexerURL != "" {
		validateURL("node.indexer_url", c.Node.IndexerURL, &errs)
	}
	validatePositive("node.timeout_secs", c.Node.TimeoutSecs, &errs)
	validatePositive("node.confirm_rounds", c.Node.ConfirmRounds, &errs)
	validatePositive("node.poll_per_sec", c.Node.PollPerSec, &errs)
	if c.Node.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{Field: "node.timeout_secs", Message: "must be at most 600"})
	}

	validatePositive("sandbox.ready_timeout_secs", c.Sandbox.ReadyTimeoutSecs, &errs)
	if c.Sandbox.Config == "" {
		errs = append(errs, ValidationError{Field: "sandbox.config", Message: "must not be empty"})
	}

	if c.Accounts.DefaultFundMicroAlgos == 0 {
		errs = append(errs, ValidationError{Field: "accounts.default_fund_microalgos", Message: "must be positive"})
	}

	if c.Build.ContractsDir == "" {
		errs = append(errs, ValidationError{Field: "build.contracts_dir", Message: "must not be empty"})
	}
	if c.Build.Python == "" {
		errs = append(errs, ValidationError{Field: "build.python", Message: "must not be empty"})
	}
	if c.Build.OutputDir == "" || filepath.IsAbs(c.Build.OutputDir) || strings.Contains(c.Build.OutputDir, "..") {
		errs = append(errs, ValidationError{Field: "build.output_dir", Message: "must be a relative path inside the contract directory"})
	}

	if c.Storage.DataDir == "" {
		errs = append(errs, ValidationError{Field: "storage.data_dir", Message: "must not be empty"})
	}
	if c.Storage.Database == "" {
		errs = append(errs, ValidationError{Field: "storage.database", Message: "must not be empty"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, json", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that a partial file or env override left behind.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Node.TimeoutSecs == 0 {
		c.Node.TimeoutSecs = d.Node.TimeoutSecs
	}
	if c.Node.ConfirmRounds == 0 {
		c.Node.ConfirmRounds = d.Node.ConfirmRounds
	}
	if c.Node.PollPerSec == 0 {
		c.Node.PollPerSec = d.Node.PollPerSec
	}
	if c.Sandbox.ReadyTimeoutSecs == 0 {
		c.Sandbox.ReadyTimeoutSecs = d.Sandbox.ReadyTimeoutSecs
	}
	if c.Sandbox.Config == "" {
		c.Sandbox.Config = d.Sandbox.Config
	}
	if c.Sandbox.DefaultWallet == "" {
		c.Sandbox.DefaultWallet = d.Sandbox.DefaultWallet
	}
	if c.Build.OutputDir == "" {
		c.Build.OutputDir = d.Build.OutputDir
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Migrate normalises values written by older releases.
func (c *Config) Migrate() error {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Level == "warning" {
		c.Log.Level = "warn"
	}
	c.Node.AlgodURL = strings.TrimRight(c.Node.AlgodURL, "/")
	c.Node.KmdURL = strings.TrimRight(c.Node.KmdURL, "/")
	c.Node.IndexerURL = strings.TrimRight(c.Node.IndexerURL, "/")
	if c.Version == "" {
		c.Version = CurrentVersion
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - ALGODS_ALGOD_URL, ALGODS_ALGOD_TOKEN
//   - ALGODS_KMD_URL, ALGODS_KMD_TOKEN
//   - ALGODS_SANDBOX_PATH
//   - ALGODS_DATA_DIR
//   - ALGODS_LOG_LEVEL
func (c *Config) ApplyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"ALGODS_ALGOD_URL", &c.Node.AlgodURL},
		{"ALGODS_ALGOD_TOKEN", &c.Node.AlgodToken},
		{"ALGODS_KMD_URL", &c.Node.KmdURL},
		{"ALGODS_KMD_TOKEN", &c.Node.KmdToken},
		{"ALGODS_SANDBOX_PATH", &c.Sandbox.Path},
		{"ALGODS_DATA_DIR", &c.Storage.DataDir},
		{"ALGODS_LOG_LEVEL", &c.Log.Level},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// Get retrieves a value by dot key, e.g. "node.algod_url".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by dot key. String values are converted to the
// field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if field.Kind() == reflect.Struct {
		return fmt.Errorf("cannot set section %s, set one of its keys", key)
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// normalizeFieldName converts snake_case or kebab-case to a Go field name.
// Matching is case-insensitive, so "microalgos" finds "MicroAlgos".
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Uint, reflect.Uint64:
			n, err := strconv.ParseUint(strings.ReplaceAll(strVal, "_", ""), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid unsigned integer value: %v", err)
			}
			field.SetUint(n)
			return nil
		case reflect.Bool:
			b, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				b = strings.ToLower(strVal) == "yes"
				if !b && strings.ToLower(strVal) != "no" {
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
			}
			field.SetBool(b)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns every configuration key in dot notation.
func GetAllKeys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		section := f.Tag.Get("toml")
		if f.Type.Kind() != reflect.Struct {
			keys = append(keys, section)
			continue
		}
		for j := 0; j < f.Type.NumField(); j++ {
			keys = append(keys, section+"."+f.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// Clone returns a copy of the configuration. Config holds no reference
// types, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Redacted returns a copy with tokens and passwords masked.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	for _, s := range []*string{&safe.Node.AlgodToken, &safe.Node.KmdToken, &safe.Sandbox.WalletPassword} {
		if *s != "" {
			*s = "[REDACTED]"
		}
	}
	return safe
}

// String returns the config as JSON with secrets redacted.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}
