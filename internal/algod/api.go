// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algod

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jeranaias/algods/internal/algo"
)

// Health reports whether algod answers GET /health.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/health"}, nil)
}

// Status returns the node status.
func (c *Client) Status(ctx context.Context) (*NodeStatus, error) {
	var st NodeStatus
	if err := c.do(ctx, request{method: http.MethodGet, path: "/v2/status"}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// WaitForBlockAfter blocks until the node reaches a round after round.
func (c *Client) WaitForBlockAfter(ctx context.Context, round uint64) (*NodeStatus, error) {
	var st NodeStatus
	path := "/v2/status/wait-for-block-after/" + strconv.FormatUint(round, 10)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// TransactionParams returns the raw suggested parameters.
func (c *Client) TransactionParams(ctx context.Context) (*TransactionParams, error) {
	var p TransactionParams
	if err := c.do(ctx, request{method: http.MethodGet, path: "/v2/transactions/params"}, &p); err != nil {
		return nil, err
	}
	if len(p.GenesisHash) != 32 {
		return nil, &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: fmt.Sprintf("genesis hash has %d bytes, want 32", len(p.GenesisHash)),
		}
	}
	return &p, nil
}

// SuggestedParams returns parameters ready for the algo builders.
func (c *Client) SuggestedParams(ctx context.Context) (algo.SuggestedParams, error) {
	p, err := c.TransactionParams(ctx)
	if err != nil {
		return algo.SuggestedParams{}, err
	}
	return p.ToSuggested(), nil
}

// SendRawTransaction submits msgpack-encoded signed transactions and returns
// the id of the first one.
func (c *Client) SendRawTransaction(ctx context.Context, signed []byte) (string, error) {
	var out struct {
		TxID string `json:"txId"`
	}
	req := request{
		method:      http.MethodPost,
		path:        "/v2/transactions",
		body:        signed,
		contentType: "application/x-binary",
	}
	if err := c.do(ctx, req, &out); err != nil {
		return "", err
	}
	return out.TxID, nil
}

// PendingTransaction returns the pool or confirmation state of txid.
func (c *Client) PendingTransaction(ctx context.Context, txid string) (*PendingTransaction, error) {
	var p PendingTransaction
	path := "/v2/transactions/pending/" + url.PathEscape(txid) + "?format=json"
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AccountInformation returns the on-chain state of addr.
func (c *Client) AccountInformation(ctx context.Context, addr string) (*Account, error) {
	var a Account
	path := "/v2/accounts/" + url.PathEscape(addr)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Application returns the application with the given id.
func (c *Client) Application(ctx context.Context, id uint64) (*Application, error) {
	var app Application
	path := "/v2/applications/" + strconv.FormatUint(id, 10)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// Asset returns the asset with the given id.
func (c *Client) Asset(ctx context.Context, id uint64) (*Asset, error) {
	var a Asset
	path := "/v2/assets/" + strconv.FormatUint(id, 10)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CompileTEAL compiles TEAL source on the node. Compilation errors come back
// as ErrTypeRejected with algod's message.
func (c *Client) CompileTEAL(ctx context.Context, source []byte) (*CompileResult, error) {
	var res CompileResult
	req := request{
		method:      http.MethodPost,
		path:        "/v2/teal/compile",
		body:        source,
		contentType: "text/plain",
	}
	if err := c.do(ctx, req, &res); err != nil {
		return nil, err
	}
	prog, err := base64.StdEncoding.DecodeString(res.Result)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "compiled program is not base64", Cause: err}
	}
	res.Program = prog
	return &res, nil
}
