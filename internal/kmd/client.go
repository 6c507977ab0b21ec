// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

// Sentinel errors.
var (
	ErrNotRunning     = errors.New("kmd is not reachable")
	ErrUnauthorized   = errors.New("kmd rejected the API token")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrNoKeys         = errors.New("wallet holds no funded keys")
)

// APIError is a non-2xx response from kmd.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kmd: %s (status %d)", e.Message, e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

const (
	DefaultBaseURL = "http://localhost:4002"
	DefaultTimeout = 30 * time.Second

	tokenHeader = "X-KMD-API-Token"
)

// ClientConfig holds configuration for the kmd client.
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to kmd's v1 API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a kmd client; zero config fields take defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode kmd request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create kmd request: %w", err)
	}
	if c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("kmd request: %w", err)
		}
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if json.Unmarshal(raw, &er) != nil || er.Message == "" {
			er.Message = strings.TrimSpace(string(raw))
		}
		if er.Message == "" {
			er.Message = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: er.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode kmd response: %w", err)
	}
	return nil
}

// =============================================================================
// WALLET OPERATIONS
// =============================================================================

// Wallet is one kmd wallet.
type Wallet struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DriverName string `json:"driver_name"`
}

// ListWallets returns every wallet kmd knows.
func (c *Client) ListWallets(ctx context.Context) ([]Wallet, error) {
	var out struct {
		Wallets []Wallet `json:"wallets"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/wallets", nil, &out); err != nil {
		return nil, err
	}
	return out.Wallets, nil
}

// FindWallet returns the wallet named name.
func (c *Client) FindWallet(ctx context.Context, name string) (*Wallet, error) {
	wallets, err := c.ListWallets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range wallets {
		if wallets[i].Name == name {
			return &wallets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
}

// InitWalletHandle unlocks a wallet and returns a handle token.
func (c *Client) InitWalletHandle(ctx context.Context, walletID, password string) (string, error) {
	in := map[string]string{"wallet_id": walletID, "wallet_password": password}
	var out struct {
		Token string `json:"wallet_handle_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/wallet/init", in, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// ReleaseWalletHandle invalidates a handle token.
func (c *Client) ReleaseWalletHandle(ctx context.Context, handle string) error {
	in := map[string]string{"wallet_handle_token": handle}
	return c.do(ctx, http.MethodPost, "/v1/wallet/release", in, nil)
}

// ListKeys returns the addresses held in the wallet.
func (c *Client) ListKeys(ctx context.Context, handle string) ([]string, error) {
	in := map[string]string{"wallet_handle_token": handle}
	var out struct {
		Addresses []string `json:"addresses"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/key/list", in, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

// ExportKey returns the 64-byte ed25519 private key of address.
func (c *Client) ExportKey(ctx context.Context, handle, password, address string) ([]byte, error) {
	in := map[string]string{
		"wallet_handle_token": handle,
		"wallet_password":     password,
		"address":             address,
	}
	var out struct {
		PrivateKey []byte `json:"private_key"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/key/export", in, &out); err != nil {
		return nil, err
	}
	return out.PrivateKey, nil
}
