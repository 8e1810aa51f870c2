// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import "github.com/ava-labs/avalanchego/ids"

var _ UnsignedTx = (*CastVoteTx)(nil)

// CastVoteTx is the single vote of Voter on the poll at address Poll.
type CastVoteTx struct {
	Poll        ids.ID `serialize:"true" json:"poll"`
	Voter       ids.ID `serialize:"true" json:"voter"`
	ChoiceIndex uint8  `serialize:"true" json:"choiceIndex"`
}

func (tx *CastVoteTx) Signer() ids.ID {
	return tx.Voter
}

// SyntacticVerify has nothing to check without the poll.
func (tx *CastVoteTx) SyntacticVerify() error {
	if tx == nil {
		return ErrNilTx
	}
	return nil
}

func (tx *CastVoteTx) Visit(visitor Visitor) error {
	return visitor.CastVoteTx(tx)
}
