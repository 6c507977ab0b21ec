// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/algod"
)

type fakeKMD struct {
	keys     map[string][]byte
	released int32
}

func (f *fakeKMD) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(tokenHeader) != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var in map[string]string
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&in)
		}
		enc := json.NewEncoder(w)
		switch r.URL.Path {
		case "/v1/wallets":
			_ = enc.Encode(map[string]interface{}{"wallets": []Wallet{
				{ID: "w1", Name: "other"},
				{ID: "w2", Name: "unencrypted-default-wallet"},
			}})
		case "/v1/wallet/init":
			if in["wallet_id"] != "w2" {
				w.WriteHeader(http.StatusBadRequest)
				_ = enc.Encode(map[string]interface{}{"error": true, "message": "wrong password"})
				return
			}
			_ = enc.Encode(map[string]string{"wallet_handle_token": "H"})
		case "/v1/wallet/release":
			atomic.AddInt32(&f.released, 1)
			_ = enc.Encode(map[string]string{})
		case "/v1/key/list":
			assert.Equal(t, "H", in["wallet_handle_token"])
			addrs := make([]string, 0, len(f.keys))
			for a := range f.keys {
				addrs = append(addrs, a)
			}
			_ = enc.Encode(map[string]interface{}{"addresses": addrs})
		case "/v1/key/export":
			_ = enc.Encode(map[string]interface{}{"private_key": f.keys[in["address"]]})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

type fakeBalances map[string]uint64

func (b fakeBalances) AccountInformation(_ context.Context, addr string) (*algod.Account, error) {
	return &algod.Account{Address: addr, Amount: b[addr]}, nil
}

func newAccounts(t *testing.T, n int) []algo.Account {
	t.Helper()
	out := make([]algo.Account, n)
	for i := range out {
		a, err := algo.GenerateAccount()
		require.NoError(t, err)
		out[i] = a
	}
	return out
}

func TestListWalletsAndFind(t *testing.T) {
	f := &fakeKMD{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	c := NewClient(ClientConfig{BaseURL: srv.URL, Token: "tok"})

	wallets, err := c.ListWallets(context.Background())
	require.NoError(t, err)
	assert.Len(t, wallets, 2)

	w, err := c.FindWallet(context.Background(), "unencrypted-default-wallet")
	require.NoError(t, err)
	assert.Equal(t, "w2", w.ID)

	_, err = c.FindWallet(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrWalletNotFound))
}

func TestUnauthorized(t *testing.T) {
	f := &fakeKMD{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	c := NewClient(ClientConfig{BaseURL: srv.URL, Token: "wrong"})

	_, err := c.ListWallets(context.Background())
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestAPIErrorMessage(t *testing.T) {
	f := &fakeKMD{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	c := NewClient(ClientConfig{BaseURL: srv.URL, Token: "tok"})

	_, err := c.InitWalletHandle(context.Background(), "w1", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "wrong password", apiErr.Message)
}

func TestNotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(ClientConfig{BaseURL: url}).ListWallets(context.Background())
	assert.True(t, errors.Is(err, ErrNotRunning))
}

func TestDispenserAccountPicksRichest(t *testing.T) {
	accts := newAccounts(t, 3)
	f := &fakeKMD{keys: map[string][]byte{}}
	balances := fakeBalances{}
	for i, a := range accts {
		f.keys[a.Address.String()] = []byte(a.PrivateKey)
		balances[a.Address.String()] = uint64(i+1) * 1_000_000
	}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	c := NewClient(ClientConfig{BaseURL: srv.URL, Token: "tok"})

	got, err := c.DispenserAccount(context.Background(), "unencrypted-default-wallet", "", balances)
	require.NoError(t, err)
	assert.Equal(t, accts[2].Address, got.Address)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.released))
}

func TestDispenserAccountEmptyWallet(t *testing.T) {
	f := &fakeKMD{keys: map[string][]byte{}}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	c := NewClient(ClientConfig{BaseURL: srv.URL, Token: "tok"})

	_, err := c.DispenserAccount(context.Background(), "unencrypted-default-wallet", "", fakeBalances{})
	assert.True(t, errors.Is(err, ErrNoKeys))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.released))
}
