// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algod

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// WaitForConfirmation polls the pending-transaction endpoint until txid is
// confirmed, rejected, or the node has advanced rounds past the round at
// which waiting began.
func (c *Client) WaitForConfirmation(ctx context.Context, txid string, rounds uint64) (*PendingTransaction, error) {
	if rounds == 0 {
		rounds = 10
	}
	st, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	deadline := st.LastRound + rounds

	limiter := rate.NewLimiter(rate.Limit(c.config.PollPerSec), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, &ClientError{
				Type:    ErrTypeConfirmationTimeout,
				Message: fmt.Sprintf("gave up waiting for %s", txid),
				Cause:   err,
			}
		}

		info, err := c.PendingTransaction(ctx, txid)
		if err != nil {
			return nil, err
		}
		if info.ConfirmedRound > 0 {
			return info, nil
		}
		if info.PoolError != "" {
			return nil, &ClientError{
				Type:    ErrTypeRejected,
				Message: fmt.Sprintf("transaction %s rejected: %s", txid, info.PoolError),
			}
		}

		st, err = c.Status(ctx)
		if err != nil {
			return nil, err
		}
		if st.LastRound >= deadline {
			return nil, &ClientError{
				Type:    ErrTypeConfirmationTimeout,
				Message: fmt.Sprintf("transaction %s not confirmed after %d rounds", txid, rounds),
			}
		}
	}
}
