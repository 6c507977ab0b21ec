// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package algod provides the HTTP client for the algod REST API (v2).
//
// # Key Types
//
//   - Client: algod API client, safe for concurrent use
//   - ClientConfig: base URL, token, timeouts and polling rate
//   - ClientError: typed error with sentinel values
//
// # Usage
//
//	client := algod.NewClient(&algod.ClientConfig{
//	    BaseURL: "http://localhost:4001",
//	    Token:   strings.Repeat("a", 64),
//	})
//	params, err := client.SuggestedParams(ctx)
//	txid, err := client.SendRawTransaction(ctx, signedBytes)
//	info, err := client.WaitForConfirmation(ctx, txid, 10)
//
// # Error Handling
//
// Errors can be checked with the helper functions:
//
//	if algod.IsNotRunning(err) {
//	    // sandbox is down, suggest "algods startnet"
//	}
//	if errors.Is(err, algod.ErrNotFound) {
//	    // unknown app, asset or transaction
//	}
package algod
