// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/algod"
	"github.com/jeranaias/algods/internal/config"
	"github.com/jeranaias/algods/internal/contract"
	"github.com/jeranaias/algods/internal/kmd"
	"github.com/jeranaias/algods/internal/logging"
	"github.com/jeranaias/algods/internal/sandbox"
	"github.com/jeranaias/algods/internal/security"
	"github.com/jeranaias/algods/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidAddress is returned for malformed account addresses.
	ErrInvalidAddress = algo.ErrInvalidAddress
	// ErrAccountNotFound means a label or address is not in the local ledger.
	ErrAccountNotFound = errors.New("account not found in local ledger")
	// ErrNoSigningKey means algods holds no key for the account.
	ErrNoSigningKey = errors.New("no signing key for account")
	// ErrAppNotFound means the node has no application with the id.
	ErrAppNotFound = errors.New("application not found")
	// ErrAssetNotFound means the node has no asset with the id.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrZeroAmount rejects funding with nothing.
	ErrZeroAmount = errors.New("amount must be greater than zero")
	// ErrInvalidArgument covers malformed app args and token parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Node is the subset of the algod client the orchestrator uses.
type Node interface {
	Health(ctx context.Context) error
	Status(ctx context.Context) (*algod.NodeStatus, error)
	SuggestedParams(ctx context.Context) (algo.SuggestedParams, error)
	SendRawTransaction(ctx context.Context, signed []byte) (string, error)
	WaitForConfirmation(ctx context.Context, txid string, rounds uint64) (*algod.PendingTransaction, error)
	AccountInformation(ctx context.Context, addr string) (*algod.Account, error)
	Application(ctx context.Context, id uint64) (*algod.Application, error)
	Asset(ctx context.Context, id uint64) (*algod.Asset, error)
	CompileTEAL(ctx context.Context, source []byte) (*algod.CompileResult, error)
}

// Dispenser hands out a funded account. *kmd.Client satisfies it.
type Dispenser interface {
	DispenserAccount(ctx context.Context, walletName, password string, node kmd.BalanceSource) (algo.Account, error)
}

// Network controls the sandbox. *sandbox.Sandbox satisfies it.
type Network interface {
	Up(ctx context.Context) (bool, error)
	Down(ctx context.Context) error
	Status(ctx context.Context) (*sandbox.Status, error)
}

// Options wires an Orchestrator. Config, Node and Ledger are required.
type Options struct {
	Config    *config.Config
	Node      Node
	Dispenser Dispenser
	// Network is resolved on first use; locating the sandbox may fail
	// without affecting the other operations.
	Network func() (Network, error)
	Builder *contract.Builder
	Ledger  *storage.Ledger
	Journal *security.Journal
	// Vault is opened on first use when keys are sealed.
	Vault func() (*security.Vault, error)
}

// Orchestrator runs algods operations. It is safe for concurrent use.
type Orchestrator struct {
	cfg       *config.Config
	node      Node
	dispenser Dispenser
	network   func() (Network, error)
	builder   *contract.Builder
	ledger    *storage.Ledger
	journal   *security.Journal
	vault     func() (*security.Vault, error)
}

// New builds an Orchestrator from explicit dependencies.
func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil || opts.Node == nil || opts.Ledger == nil {
		return nil, fmt.Errorf("orchestrator needs config, node and ledger")
	}
	o := &Orchestrator{
		cfg:       opts.Config,
		node:      opts.Node,
		dispenser: opts.Dispenser,
		network:   opts.Network,
		builder:   opts.Builder,
		ledger:    opts.Ledger,
		journal:   opts.Journal,
	}
	if opts.Vault != nil {
		o.vault = sync.OnceValues(opts.Vault)
	}
	if o.builder == nil {
		b := opts.Config.Build
		o.builder = contract.NewBuilder(b.ContractsDir, b.OutputDir, b.Python)
	}
	if o.network == nil {
		o.network = func() (Network, error) {
			return nil, sandbox.ErrSandboxNotFound
		}
	}
	return o, nil
}

// Open wires the production dependencies described by cfg.
func Open(ctx context.Context, cfg *config.Config) (*Orchestrator, error) {
	dataDir := cfg.Storage.DataPath()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}

	ledger, err := storage.Open(cfg.Storage.DatabasePath())
	if err != nil {
		return nil, err
	}

	journal, err := security.OpenJournal(filepath.Join(dataDir, JournalFile))
	if err != nil {
		ledger.Close()
		return nil, err
	}

	node := algod.NewClient(&algod.ClientConfig{
		BaseURL:    cfg.Node.AlgodURL,
		Token:      cfg.Node.AlgodToken,
		Timeout:    cfg.Node.Timeout(),
		MaxRetries: algod.DefaultMaxRetries,
		PollPerSec: float64(cfg.Node.PollPerSec),
	})
	wallet := kmd.NewClient(kmd.ClientConfig{
		BaseURL: cfg.Node.KmdURL,
		Token:   cfg.Node.KmdToken,
		Timeout: cfg.Node.Timeout(),
	})

	network := func() (Network, error) {
		opts := sandbox.Options{
			Path:         cfg.Sandbox.Path,
			Config:       cfg.Sandbox.Config,
			ReadyTimeout: cfg.Sandbox.ReadyTimeout(),
			Node:         node,
		}
		// Script output is streamed only in verbose runs.
		if logging.FromContext(ctx).Enabled(ctx, slog.LevelDebug) {
			opts.Output = os.Stderr
		}
		sb, err := sandbox.New(opts)
		if err != nil {
			return nil, err
		}
		logging.FromContext(ctx).Debug("sandbox located", "script", sb.Script())
		return sb, nil
	}

	vault := func() (*security.Vault, error) {
		v, err := security.OpenVault(security.VaultOptions{
			Passphrase: cfg.Security.Passphrase(),
			SaltPath:   filepath.Join(dataDir, SaltFile),
			KeyStore:   security.NewKeyStore(filepath.Join(dataDir, MasterKeyFile)),
		})
		if err != nil {
			return nil, err
		}
		logging.FromContext(ctx).Debug("key vault opened", "mode", v.Mode())
		return v, nil
	}

	return New(Options{
		Config:    cfg,
		Node:      node,
		Dispenser: wallet,
		Network:   network,
		Ledger:    ledger,
		Journal:   journal,
		Vault:     vault,
	})
}

// Files kept in the data directory.
const (
	JournalFile   = "journal.log"
	SaltFile      = "vault.salt"
	MasterKeyFile = "master.key"
)

// Config returns the active configuration.
func (o *Orchestrator) Config() *config.Config {
	return o.cfg
}

// Ledger returns the local ledger.
func (o *Orchestrator) Ledger() *storage.Ledger {
	return o.ledger
}

// Close releases the ledger and journal.
func (o *Orchestrator) Close() error {
	var errs []error
	if o.journal != nil {
		errs = append(errs, o.journal.Close())
	}
	errs = append(errs, o.ledger.Close())
	return errors.Join(errs...)
}

// =============================================================================
// JOURNAL
// =============================================================================

// record writes e to the journal, filling Success and Error from err.
// Journal failures are logged, never returned.
func (o *Orchestrator) record(ctx context.Context, e security.Entry, err error) {
	if o.journal == nil {
		return
	}
	e.Success = err == nil
	if err != nil {
		e.Error = err.Error()
	}
	if _, jerr := o.journal.Record(e); jerr != nil {
		logging.FromContext(ctx).Warn("journal write failed", "action", e.Action, "error", jerr)
	}
}

// History returns the most recent journal entries, newest last.
func (o *Orchestrator) History(limit int) ([]security.Entry, error) {
	if o.journal == nil {
		return nil, nil
	}
	return security.ReadJournal(o.journal.Path(), limit)
}

// =============================================================================
// KEY CUSTODY
// =============================================================================

// sealKey protects a private key for storage. With encrypt_keys off the
// key is stored base64-encoded.
func (o *Orchestrator) sealKey(key []byte) (string, error) {
	if !o.cfg.Security.EncryptKeys {
		return base64.StdEncoding.EncodeToString(key), nil
	}
	v, err := o.openVault()
	if err != nil {
		return "", err
	}
	return v.Seal(key)
}

// openKey reverses sealKey. Sealed values always need the vault, whatever
// encrypt_keys currently says.
func (o *Orchestrator) openKey(stored string) ([]byte, error) {
	if !security.IsSealed(stored) {
		return base64.StdEncoding.DecodeString(stored)
	}
	v, err := o.openVault()
	if err != nil {
		return nil, err
	}
	return v.Open(stored)
}

func (o *Orchestrator) openVault() (*security.Vault, error) {
	if o.vault == nil {
		return nil, fmt.Errorf("key vault is not configured")
	}
	v, err := o.vault()
	if err != nil {
		return nil, fmt.Errorf("open key vault: %w", err)
	}
	return v, nil
}

// resolve finds a ledger account by address or label.
func (o *Orchestrator) resolve(ctx context.Context, ref string) (storage.Account, error) {
	if ref == "" {
		return storage.Account{}, fmt.Errorf("%w: account address or label is required", ErrInvalidArgument)
	}
	if algo.IsValidAddress(ref) {
		acct, err := o.ledger.GetAccount(ctx, ref)
		if errors.Is(err, storage.ErrNotFound) {
			return acct, fmt.Errorf("%w: %s", ErrAccountNotFound, ref)
		}
		return acct, err
	}
	acct, err := o.ledger.FindAccountByLabel(ctx, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return acct, fmt.Errorf("%w: %q is neither a valid address nor a known label", ErrAccountNotFound, ref)
	}
	return acct, err
}

// signer loads the signing account for ref.
func (o *Orchestrator) signer(ctx context.Context, ref string) (algo.Account, error) {
	row, err := o.resolve(ctx, ref)
	if err != nil {
		return algo.Account{}, err
	}
	if !row.HasKey() {
		return algo.Account{}, fmt.Errorf("%w: %s", ErrNoSigningKey, row.Address)
	}
	raw, err := o.openKey(row.SealedKey)
	if err != nil {
		return algo.Account{}, fmt.Errorf("unseal key of %s: %w", row.Address, err)
	}
	defer security.ZeroBytes(raw)
	return algo.AccountFromPrivateKey(raw)
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submitted is a confirmed transaction.
type Submitted struct {
	TxID           string `json:"txid"`
	ConfirmedRound uint64 `json:"confirmed_round"`
}

// submit signs tx with acct, sends it and waits for confirmation.
func (o *Orchestrator) submit(ctx context.Context, acct algo.Account, tx algo.Transaction) (string, *algod.PendingTransaction, error) {
	stx, txid, err := algo.Sign(acct, tx)
	if err != nil {
		return "", nil, err
	}
	raw, err := algo.EncodeSigned(stx)
	if err != nil {
		return txid, nil, err
	}

	log := logging.FromContext(ctx)
	start := time.Now()
	sent, err := o.node.SendRawTransaction(ctx, raw)
	if err != nil {
		return txid, nil, err
	}
	if sent != "" && sent != txid {
		log.Warn("node reported a different txid", "local", txid, "node", sent)
		txid = sent
	}

	info, err := o.node.WaitForConfirmation(ctx, txid, uint64(o.cfg.Node.ConfirmRounds))
	if err != nil {
		return txid, nil, err
	}
	log.Debug("transaction confirmed", "txid", txid, "round", info.ConfirmedRound, "took", time.Since(start))
	return txid, info, nil
}
