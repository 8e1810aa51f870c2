// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/chain4travel/caminopolls/vms/pollvm/dao"
	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
	"github.com/chain4travel/caminopolls/vms/pollvm/state"
	"github.com/chain4travel/caminopolls/vms/pollvm/txs"
)

var _ txs.Visitor = (*StandardTxExecutor)(nil)

// StandardTxExecutor validates a tx against the current slot and state and
// writes the record it creates. The signer of the tx must already have been
// authenticated.
type StandardTxExecutor struct {
	// inputs, to be filled before visitor methods are called
	*Backend
	State state.State
	Tx    *txs.Tx

	// outputs of visitor execution
	Address ids.ID
	Slot    uint64
	Poll    *dao.Poll       // set by CreatePollTx
	Vote    *dao.VoteRecord // set by CastVoteTx
}

func (e *StandardTxExecutor) CreatePollTx(tx *txs.CreatePollTx) error {
	if err := tx.SyntacticVerify(); err != nil {
		return err
	}

	addr, bump, err := pda.PollAddress(e.Config.ProgramID, tx.Creator, []byte(tx.Question))
	if err != nil {
		return fmt.Errorf("failed to derive poll address: %w", err)
	}

	poll, err := dao.NewPoll(tx.Creator, tx.Question, tx.Options, tx.StartSlot, tx.EndSlot, bump)
	if err != nil {
		return err
	}

	// an identical (creator, question) pair lands on the same address and is
	// refused by the store
	e.Slot = e.Clock.Slot()
	if err := e.State.CreatePoll(addr, poll, tx.Creator, e.Slot); err != nil {
		return err
	}

	e.Address = addr
	e.Poll = poll
	e.Log.Debug("created poll",
		zap.Stringer("txID", e.Tx.ID()),
		zap.String("address", pda.FormatKey(addr)),
		zap.String("creator", pda.FormatKey(tx.Creator)),
		zap.Uint8("numOptions", poll.NumOptions),
		zap.Uint64("startSlot", poll.StartSlot),
		zap.Uint64("endSlot", poll.EndSlot),
	)
	return nil
}

func (e *StandardTxExecutor) CastVoteTx(tx *txs.CastVoteTx) error {
	if err := tx.SyntacticVerify(); err != nil {
		return err
	}

	poll, err := e.State.GetPoll(tx.Poll)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w: %s", dao.ErrPollNotFound, pda.FormatKey(tx.Poll))
	case err != nil:
		return err
	}

	e.Slot = e.Clock.Slot()
	if !poll.IsActiveAt(e.Slot) {
		return fmt.Errorf(
			"%w: slot %d outside [%d, %d]",
			dao.ErrPollNotActive,
			e.Slot,
			poll.StartSlot,
			poll.EndSlot,
		)
	}
	if !poll.IsValidChoice(tx.ChoiceIndex) {
		return fmt.Errorf(
			"%w: index %d, poll has %d options",
			dao.ErrInvalidChoice,
			tx.ChoiceIndex,
			poll.NumOptions,
		)
	}

	addr, _, err := pda.VoteAddress(e.Config.ProgramID, tx.Poll, tx.Voter)
	if err != nil {
		return fmt.Errorf("failed to derive vote address: %w", err)
	}

	// the store refuses a second vote of the same voter on the same poll
	vote := dao.NewVoteRecord(tx.Poll, tx.Voter, tx.ChoiceIndex)
	if err := e.State.CreateVote(addr, vote, tx.Voter, e.Slot); err != nil {
		return err
	}

	e.Address = addr
	e.Vote = vote
	e.Log.Debug("cast vote",
		zap.Stringer("txID", e.Tx.ID()),
		zap.String("address", pda.FormatKey(addr)),
		zap.String("poll", pda.FormatKey(tx.Poll)),
		zap.String("voter", pda.FormatKey(tx.Voter)),
		zap.Uint8("choiceIndex", tx.ChoiceIndex),
		zap.Uint64("slot", e.Slot),
	)
	return nil
}
