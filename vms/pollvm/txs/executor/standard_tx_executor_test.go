// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminopolls/vms/pollvm/config"
	"github.com/chain4travel/caminopolls/vms/pollvm/dao"
	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
	"github.com/chain4travel/caminopolls/vms/pollvm/slot"
	"github.com/chain4travel/caminopolls/vms/pollvm/state"
	"github.com/chain4travel/caminopolls/vms/pollvm/txs"
)

var (
	testProgramID = ids.ID{0x50, 0x11}

	creator = ids.ID{0xc0}
	voter   = ids.ID{0xd0}
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestBackend(clock slot.Clock) *Backend {
	return &Backend{
		Config: &config.Config{
			ProgramID:     testProgramID,
			SlotDuration:  config.DefaultSlotDuration,
			PollCacheSize: state.DefaultPollCacheSize,
		},
		Clock: clock,
		Log:   logging.NoLog{},
	}
}

func newTestState(t *testing.T) state.State {
	t.Helper()
	s, err := state.New(memdb.New(), testProgramID, state.DefaultPollCacheSize, prometheus.NewRegistry())
	require.NoError(t, err)
	return s
}

func execute(backend *Backend, s state.State, unsigned txs.UnsignedTx) (*StandardTxExecutor, error) {
	e := &StandardTxExecutor{
		Backend: backend,
		State:   s,
		Tx:      &txs.Tx{Unsigned: unsigned},
	}
	return e, unsigned.Visit(e)
}

func createTestPoll(t *testing.T, backend *Backend, s state.State, options []string, start, end uint64) ids.ID {
	t.Helper()
	e, err := execute(backend, s, &txs.CreatePollTx{
		Creator:   creator,
		Question:  "Which option?",
		Options:   options,
		StartSlot: start,
		EndSlot:   end,
	})
	require.NoError(t, err)
	return e.Address
}

func TestCreatePoll(t *testing.T) {
	tests := map[string]struct {
		tx          *txs.CreatePollTx
		expectedErr error
	}{
		"OK: two options": {
			tx: &txs.CreatePollTx{Creator: creator, Question: "Lunch?", Options: []string{"pizza", "sushi"}, StartSlot: 1, EndSlot: 2},
		},
		"OK: texts at cap": {
			tx: &txs.CreatePollTx{
				Creator:   creator,
				Question:  strings.Repeat("q", dao.MaxQuestionLen),
				Options:   []string{strings.Repeat("a", dao.MaxOptionLen), "", "c", "d"},
				StartSlot: 100,
				EndSlot:   200,
			},
		},
		"one option": {
			tx:          &txs.CreatePollTx{Creator: creator, Question: "q", Options: []string{"a"}, StartSlot: 1, EndSlot: 2},
			expectedErr: dao.ErrNotEnoughOptions,
		},
		"five options": {
			tx:          &txs.CreatePollTx{Creator: creator, Question: "q", Options: []string{"a", "b", "c", "d", "e"}, StartSlot: 1, EndSlot: 2},
			expectedErr: dao.ErrTooManyOptions,
		},
		"empty window": {
			tx:          &txs.CreatePollTx{Creator: creator, Question: "q", Options: []string{"a", "b"}, StartSlot: 5, EndSlot: 5},
			expectedErr: dao.ErrInvalidTimeRange,
		},
		"question over cap": {
			tx:          &txs.CreatePollTx{Creator: creator, Question: strings.Repeat("q", dao.MaxQuestionLen+1), Options: []string{"a", "b"}, StartSlot: 1, EndSlot: 2},
			expectedErr: dao.ErrInvalidQuestionLen,
		},
		"option over cap": {
			tx:          &txs.CreatePollTx{Creator: creator, Question: "q", Options: []string{"a", strings.Repeat("b", dao.MaxOptionLen+1)}, StartSlot: 1, EndSlot: 2},
			expectedErr: dao.ErrInvalidOptionLen,
		},
		"question not utf8": {
			tx:          &txs.CreatePollTx{Creator: creator, Question: "q\xff", Options: []string{"a", "b"}, StartSlot: 1, EndSlot: 2},
			expectedErr: dao.ErrInvalidText,
		},
		"option not utf8": {
			tx:          &txs.CreatePollTx{Creator: creator, Question: "q", Options: []string{"\xc3", "b"}, StartSlot: 1, EndSlot: 2},
			expectedErr: dao.ErrInvalidText,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			backend := newTestBackend(slot.NewManualClock(0))
			s := newTestState(t)

			e, err := execute(backend, s, tt.tx)
			require.ErrorIs(err, tt.expectedErr)

			addr, bump, deriveErr := pda.PollAddress(testProgramID, tt.tx.Creator, []byte(tt.tx.Question))
			require.NoError(deriveErr)

			stored, getErr := s.GetPoll(addr)
			if tt.expectedErr != nil {
				// nothing was written
				require.ErrorIs(getErr, database.ErrNotFound)
				return
			}
			require.NoError(getErr)
			require.Equal(addr, e.Address)
			require.Equal(e.Poll, stored)

			require.Equal(tt.tx.Creator, stored.Creator)
			require.Equal(tt.tx.Question, stored.QuestionText())
			require.Equal(tt.tx.Options, stored.OptionTexts())
			require.Equal(uint8(len(tt.tx.Options)), stored.NumOptions)
			require.Equal(tt.tx.StartSlot, stored.StartSlot)
			require.Equal(tt.tx.EndSlot, stored.EndSlot)
			require.Equal(bump, stored.Bump)
			for i := len(tt.tx.Options); i < dao.MaxOptions; i++ {
				require.Equal(make([]byte, dao.MaxOptionLen), stored.Options[i][:])
			}
		})
	}
}

func TestCreatePollTwice(t *testing.T) {
	require := require.New(t)

	backend := newTestBackend(slot.NewManualClock(0))
	s := newTestState(t)

	tx := &txs.CreatePollTx{Creator: creator, Question: "Same?", Options: []string{"a", "b"}, StartSlot: 1, EndSlot: 9}
	first, err := execute(backend, s, tx)
	require.NoError(err)

	// different options, same (creator, question)
	_, err = execute(backend, s, &txs.CreatePollTx{Creator: creator, Question: "Same?", Options: []string{"x", "y", "z"}, StartSlot: 1, EndSlot: 9})
	require.ErrorIs(err, state.ErrAlreadyExists)

	stored, err := s.GetPoll(first.Address)
	require.NoError(err)
	require.Equal([]string{"a", "b"}, stored.OptionTexts())

	// another creator may ask the same question
	_, err = execute(backend, s, &txs.CreatePollTx{Creator: voter, Question: "Same?", Options: []string{"a", "b"}, StartSlot: 1, EndSlot: 9})
	require.NoError(err)
}

func TestCastVoteWindow(t *testing.T) {
	tests := map[string]struct {
		slot        uint64
		expectedErr error
	}{
		"pending":     {slot: 50, expectedErr: dao.ErrPollNotActive},
		"just before": {slot: 99, expectedErr: dao.ErrPollNotActive},
		"first slot":  {slot: 100},
		"middle":      {slot: 150},
		"last slot":   {slot: 200},
		"closed":      {slot: 201, expectedErr: dao.ErrPollNotActive},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			clock := slot.NewManualClock(0)
			backend := newTestBackend(clock)
			s := newTestState(t)
			poll := createTestPoll(t, backend, s, []string{"a", "b"}, 100, 200)

			clock.Set(tt.slot)
			e, err := execute(backend, s, &txs.CastVoteTx{Poll: poll, Voter: voter, ChoiceIndex: 0})
			require.ErrorIs(err, tt.expectedErr)

			votes, listErr := s.GetPollVotes(poll)
			require.NoError(listErr)
			if tt.expectedErr != nil {
				require.Empty(votes)
				return
			}
			require.Equal([]*dao.VoteRecord{e.Vote}, votes)
			require.Equal(tt.slot, e.Slot)
		})
	}
}

func TestCastVoteChoice(t *testing.T) {
	tests := map[string]struct {
		choice      uint8
		expectedErr error
	}{
		"first":        {choice: 0},
		"last":         {choice: 2},
		"one past end": {choice: 3, expectedErr: dao.ErrInvalidChoice},
		"max uint8":    {choice: 255, expectedErr: dao.ErrInvalidChoice},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			ctrl := gomock.NewController(t)
			clock := slot.NewMockClock(ctrl)
			clock.EXPECT().Slot().Return(uint64(0)).Times(1)
			clock.EXPECT().Slot().Return(uint64(150)).Times(1)

			backend := newTestBackend(clock)
			s := newTestState(t)
			poll := createTestPoll(t, backend, s, []string{"a", "b", "c"}, 100, 200)

			e, err := execute(backend, s, &txs.CastVoteTx{Poll: poll, Voter: voter, ChoiceIndex: tt.choice})
			require.ErrorIs(err, tt.expectedErr)
			if tt.expectedErr != nil {
				return
			}

			addr, _, err := pda.VoteAddress(testProgramID, poll, voter)
			require.NoError(err)
			require.Equal(addr, e.Address)

			stored, err := s.GetVote(addr)
			require.NoError(err)
			require.Equal(&dao.VoteRecord{
				Poll:        poll,
				Voter:       voter,
				ChoiceIndex: tt.choice,
				Weight:      1,
			}, stored)
		})
	}
}

func TestCastVotePollNotFound(t *testing.T) {
	backend := newTestBackend(slot.NewManualClock(150))
	s := newTestState(t)

	_, err := execute(backend, s, &txs.CastVoteTx{Poll: ids.GenerateTestID(), Voter: voter})
	require.ErrorIs(t, err, dao.ErrPollNotFound)
}

func TestCastVoteOnVoteRecord(t *testing.T) {
	require := require.New(t)

	clock := slot.NewManualClock(150)
	backend := newTestBackend(clock)
	s := newTestState(t)
	poll := createTestPoll(t, backend, s, []string{"a", "b"}, 100, 200)

	e, err := execute(backend, s, &txs.CastVoteTx{Poll: poll, Voter: voter})
	require.NoError(err)

	_, err = execute(backend, s, &txs.CastVoteTx{Poll: e.Address, Voter: voter})
	require.ErrorIs(err, state.ErrWrongAccountKind)
}

func TestCastVoteTwice(t *testing.T) {
	require := require.New(t)

	backend := newTestBackend(slot.NewManualClock(150))
	s := newTestState(t)
	poll := createTestPoll(t, backend, s, []string{"a", "b"}, 100, 200)

	first, err := execute(backend, s, &txs.CastVoteTx{Poll: poll, Voter: voter, ChoiceIndex: 1})
	require.NoError(err)

	// changing the choice doesn't help
	_, err = execute(backend, s, &txs.CastVoteTx{Poll: poll, Voter: voter, ChoiceIndex: 0})
	require.ErrorIs(err, state.ErrAlreadyExists)

	votes, err := s.GetPollVotes(poll)
	require.NoError(err)
	require.Equal([]*dao.VoteRecord{first.Vote}, votes)

	// the poll itself is untouched by votes
	stored, err := s.GetPoll(poll)
	require.NoError(err)
	require.Equal(uint8(2), stored.NumOptions)
}

func TestCastVoteIgnoresReaderMutation(t *testing.T) {
	require := require.New(t)

	clock := slot.NewManualClock(0)
	backend := newTestBackend(clock)
	s := newTestState(t)
	poll := createTestPoll(t, backend, s, []string{"a", "b"}, 100, 200)

	// a reader scribbling over its copy doesn't move the window
	read, err := s.GetPoll(poll)
	require.NoError(err)
	read.EndSlot = 120
	read.NumOptions = 1

	clock.Set(150)
	e, err := execute(backend, s, &txs.CastVoteTx{Poll: poll, Voter: voter, ChoiceIndex: 1})
	require.NoError(err)
	require.Equal(uint8(1), e.Vote.ChoiceIndex)
}

func TestCastVoteConcurrent(t *testing.T) {
	require := require.New(t)

	backend := newTestBackend(slot.NewManualClock(150))
	s := newTestState(t)
	poll := createTestPoll(t, backend, s, []string{"a", "b", "c", "d"}, 100, 200)

	const (
		voters  = 8
		retries = 4
	)
	results := make([][retries]error, voters)

	var eg errgroup.Group
	for v := 0; v < voters; v++ {
		for r := 0; r < retries; r++ {
			v, r := v, r
			eg.Go(func() error {
				_, err := execute(backend, s, &txs.CastVoteTx{
					Poll:        poll,
					Voter:       ids.ID{0xd0, byte(v)},
					ChoiceIndex: uint8(r),
				})
				results[v][r] = err
				return nil
			})
		}
	}
	require.NoError(eg.Wait())

	for v := range results {
		accepted := 0
		for _, err := range results[v] {
			if err == nil {
				accepted++
				continue
			}
			require.ErrorIs(err, state.ErrAlreadyExists)
		}
		require.Equal(1, accepted, "voter %d", v)
	}

	votes, err := s.GetPollVotes(poll)
	require.NoError(err)
	require.Len(votes, voters)
}
