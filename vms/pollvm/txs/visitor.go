// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

// Allow vm to execute custom logic against the underlying transaction types.
type Visitor interface {
	CreatePollTx(*CreatePollTx) error
	CastVoteTx(*CastVoteTx) error
}
