// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package pollvm

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"

	"github.com/chain4travel/caminopolls/vms/pollvm/dao"
	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
	"github.com/chain4travel/caminopolls/vms/pollvm/slot"
	"github.com/chain4travel/caminopolls/vms/pollvm/state"
	"github.com/chain4travel/caminopolls/vms/pollvm/txs"
)

func TestServiceIssueTx(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t, memdb.New(), slot.NewManualClock(3))
	s := &Service{vm: vm}
	creatorID, creatorKey := newTestKey(t)

	tx := signTx(t, &txs.CreatePollTx{
		Creator:   creatorID,
		Question:  "Ship it?",
		Options:   []string{"yes", "no", "later"},
		StartSlot: 0,
		EndSlot:   10,
	}, creatorKey)
	txStr, err := formatting.Encode(formatting.Hex, tx.Bytes())
	require.NoError(err)

	reply := IssueTxReply{}
	require.NoError(s.IssueTx(nil, &api.FormattedTx{
		Tx:       txStr,
		Encoding: formatting.Hex,
	}, &reply))
	require.Equal(tx.ID(), reply.TxID)
	require.EqualValues(3, reply.Slot)

	addrReply := GetAddressReply{}
	require.NoError(s.GetPollAddress(nil, &GetPollAddressArgs{
		Creator:  pda.FormatKey(creatorID),
		Question: "Ship it?",
	}, &addrReply))
	require.Equal(addrReply.Address, reply.Address)

	pollReply := APIPoll{}
	require.NoError(s.GetPoll(nil, &AddressArgs{Address: reply.Address}, &pollReply))
	require.Equal("Ship it?", pollReply.Question)
	require.Equal([]string{"yes", "no", "later"}, pollReply.Options)
	require.EqualValues(3, pollReply.NumOptions)
	require.Equal(dao.Active.String(), pollReply.State)

	accountReply := GetAccountReply{}
	require.NoError(s.GetAccount(nil, &GetAccountArgs{
		JSONAddress: AddressArgs{Address: reply.Address},
	}, &accountReply))
	require.Equal(state.PollAccountName, accountReply.Kind)
	data, err := formatting.Decode(formatting.Hex, accountReply.Data)
	require.NoError(err)
	require.Len(data, dao.PollSize)
	require.Equal(pda.FormatKey(creatorID), accountReply.Payer)
	require.EqualValues(3, accountReply.CreatedSlot)
}

func TestServiceBadInput(t *testing.T) {
	vm := newTestVM(t, memdb.New(), slot.NewManualClock(0))
	s := &Service{vm: vm}
	missing := pda.FormatKey(ids.ID{0x01})

	tests := map[string]struct {
		call        func() error
		expectedErr error
	}{
		"undecodable tx": {
			call: func() error {
				return s.IssueTx(nil, &api.FormattedTx{Tx: "0xzz", Encoding: formatting.Hex}, &IssueTxReply{})
			},
		},
		"unparsable address": {
			call: func() error {
				return s.GetPoll(nil, &AddressArgs{Address: "not base58!"}, &APIPoll{})
			},
		},
		"missing poll": {
			call: func() error {
				return s.GetPoll(nil, &AddressArgs{Address: missing}, &APIPoll{})
			},
			expectedErr: errNoSuchPoll,
		},
		"missing vote": {
			call: func() error {
				return s.GetVote(nil, &GetVoteAddressArgs{Poll: missing, Voter: missing}, &APIVote{})
			},
			expectedErr: errNoSuchVote,
		},
		"votes of missing poll": {
			call: func() error {
				return s.GetPollVotes(nil, &AddressArgs{Address: missing}, &GetPollVotesReply{})
			},
			expectedErr: errNoSuchPoll,
		},
		"missing account": {
			call: func() error {
				return s.GetAccount(nil, &GetAccountArgs{JSONAddress: AddressArgs{Address: missing}}, &GetAccountReply{})
			},
			expectedErr: errNoSuchAccount,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			}
		})
	}
}

// TestClient drives the JSON-RPC handler end to end.
func TestClient(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	clock := slot.NewManualClock(0)
	vm := newTestVM(t, memdb.New(), clock)
	handlers, err := vm.CreateHandlers()
	require.NoError(err)

	router := mux.NewRouter()
	router.Handle("/ext/"+Name, handlers[""])
	server := httptest.NewServer(router)
	defer server.Close()

	c := NewClient(server.URL)

	creatorID, creatorKey := newTestKey(t)
	createTx := signTx(t, &txs.CreatePollTx{
		Creator:   creatorID,
		Question:  "Lunch?",
		Options:   []string{"pizza", "sushi"},
		StartSlot: 1,
		EndSlot:   5,
	}, creatorKey)
	reply, err := c.IssueTx(ctx, createTx.Bytes())
	require.NoError(err)
	require.Equal(createTx.ID(), reply.TxID)

	pollAddr, bump, err := c.GetPollAddress(ctx, creatorID, "Lunch?")
	require.NoError(err)
	require.Equal(pda.FormatKey(pollAddr), reply.Address)

	poll, err := c.GetPoll(ctx, pollAddr)
	require.NoError(err)
	require.EqualValues(bump, poll.Bump)
	require.Equal(dao.Pending.String(), poll.State)

	voterID, voterKey := newTestKey(t)
	voteTx := signTx(t, &txs.CastVoteTx{
		Poll:        pollAddr,
		Voter:       voterID,
		ChoiceIndex: 1,
	}, voterKey)

	_, err = c.IssueTx(ctx, voteTx.Bytes())
	require.ErrorContains(err, dao.ErrPollNotActive.Error())

	clock.Set(2)
	currentSlot, err := c.GetSlot(ctx)
	require.NoError(err)
	require.Equal(uint64(2), currentSlot)

	_, err = c.IssueTx(ctx, voteTx.Bytes())
	require.NoError(err)

	_, err = c.IssueTx(ctx, voteTx.Bytes())
	require.ErrorContains(err, state.ErrAlreadyExists.Error())

	vote, err := c.GetVote(ctx, pollAddr, voterID)
	require.NoError(err)
	require.EqualValues(1, vote.ChoiceIndex)
	require.EqualValues(dao.VoteWeight, vote.Weight)

	voteAddr, _, err := c.GetVoteAddress(ctx, pollAddr, voterID)
	require.NoError(err)
	require.Equal(pda.FormatKey(voteAddr), vote.Address)

	votes, err := c.GetPollVotes(ctx, pollAddr)
	require.NoError(err)
	require.Len(votes, 1)
	require.Equal(pda.FormatKey(voterID), votes[0].Voter)

	account, err := c.GetAccount(ctx, voteAddr, formatting.HexNC)
	require.NoError(err)
	require.Equal(state.VoteAccountName, account.Kind)
	require.Equal(pda.FormatKey(voterID), account.Payer)
	data, err := formatting.Decode(formatting.HexNC, account.Data)
	require.NoError(err)
	require.Len(data, dao.VoteRecordSize)
}
