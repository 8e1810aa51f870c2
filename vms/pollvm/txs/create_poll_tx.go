// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"fmt"
	"unicode/utf8"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/chain4travel/caminopolls/vms/pollvm/dao"
)

var _ UnsignedTx = (*CreatePollTx)(nil)

// CreatePollTx opens a new poll owned by Creator.
type CreatePollTx struct {
	Creator   ids.ID   `serialize:"true" json:"creator"`
	Question  string   `serialize:"true" json:"question"`
	Options   []string `serialize:"true" json:"options"`
	StartSlot uint64   `serialize:"true" json:"startSlot"`
	EndSlot   uint64   `serialize:"true" json:"endSlot"`
}

func (tx *CreatePollTx) Signer() ids.ID {
	return tx.Creator
}

// SyntacticVerify checks the shape of the poll. The checks run in a fixed
// order and the first failing one decides the error.
func (tx *CreatePollTx) SyntacticVerify() error {
	switch {
	case tx == nil:
		return ErrNilTx
	case len(tx.Options) < dao.MinOptions:
		return dao.ErrNotEnoughOptions
	case len(tx.Options) > dao.MaxOptions:
		return dao.ErrTooManyOptions
	case tx.StartSlot >= tx.EndSlot:
		return fmt.Errorf("%w: start %d, end %d", dao.ErrInvalidTimeRange, tx.StartSlot, tx.EndSlot)
	case len(tx.Question) > dao.MaxQuestionLen:
		return fmt.Errorf("%w: %d bytes", dao.ErrInvalidQuestionLen, len(tx.Question))
	case !utf8.ValidString(tx.Question):
		return fmt.Errorf("%w: question", dao.ErrInvalidText)
	}
	for i, option := range tx.Options {
		switch {
		case len(option) > dao.MaxOptionLen:
			return fmt.Errorf("%w: option %d has %d bytes", dao.ErrInvalidOptionLen, i, len(option))
		case !utf8.ValidString(option):
			return fmt.Errorf("%w: option %d", dao.ErrInvalidText, i)
		}
	}
	return nil
}

func (tx *CreatePollTx) Visit(visitor Visitor) error {
	return visitor.CreatePollTx(tx)
}
