// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package pollvm

import (
	"context"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	pollapi "github.com/chain4travel/caminopolls/api"
	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
)

var _ Client = (*client)(nil)

// Client interface for interacting with the poll VM endpoint
type Client interface {
	// IssueTx issues the signed tx and returns its ID together with the
	// address of the record it created
	IssueTx(ctx context.Context, txBytes []byte, options ...rpc.Option) (*IssueTxReply, error)
	// GetSlot returns the current slot of the node
	GetSlot(ctx context.Context, options ...rpc.Option) (uint64, error)
	GetPollAddress(ctx context.Context, creator ids.ID, question string, options ...rpc.Option) (ids.ID, uint8, error)
	GetVoteAddress(ctx context.Context, poll, voter ids.ID, options ...rpc.Option) (ids.ID, uint8, error)
	GetPoll(ctx context.Context, poll ids.ID, options ...rpc.Option) (*APIPoll, error)
	GetVote(ctx context.Context, poll, voter ids.ID, options ...rpc.Option) (*APIVote, error)
	GetPollVotes(ctx context.Context, poll ids.ID, options ...rpc.Option) ([]APIVote, error)
	// GetAccount returns the raw record stored at [addr]
	GetAccount(ctx context.Context, addr ids.ID, encoding formatting.Encoding, options ...rpc.Option) (*GetAccountReply, error)
}

// Client implementation for interacting with the poll VM endpoint
type client struct {
	requester rpc.EndpointRequester
}

// NewClient returns a Client for interacting with the poll VM served by the
// node at [uri]
func NewClient(uri string) Client {
	return &client{requester: rpc.NewEndpointRequester(
		uri + "/ext/" + Name,
	)}
}

func (c *client) IssueTx(ctx context.Context, txBytes []byte, options ...rpc.Option) (*IssueTxReply, error) {
	txStr, err := formatting.Encode(formatting.Hex, txBytes)
	if err != nil {
		return nil, err
	}

	res := &IssueTxReply{}
	err = c.requester.SendRequest(ctx, Name+".issueTx", &api.FormattedTx{
		Tx:       txStr,
		Encoding: formatting.Hex,
	}, res, options...)
	return res, err
}

func (c *client) GetSlot(ctx context.Context, options ...rpc.Option) (uint64, error) {
	res := &GetSlotReply{}
	err := c.requester.SendRequest(ctx, Name+".getSlot", struct{}{}, res, options...)
	return uint64(res.Slot), err
}

func (c *client) GetPollAddress(ctx context.Context, creator ids.ID, question string, options ...rpc.Option) (ids.ID, uint8, error) {
	res := &GetAddressReply{}
	err := c.requester.SendRequest(ctx, Name+".getPollAddress", &GetPollAddressArgs{
		Creator:  pda.FormatKey(creator),
		Question: question,
	}, res, options...)
	if err != nil {
		return ids.Empty, 0, err
	}
	addr, err := pda.ParseKey(res.Address)
	return addr, uint8(res.Bump), err
}

func (c *client) GetVoteAddress(ctx context.Context, poll, voter ids.ID, options ...rpc.Option) (ids.ID, uint8, error) {
	res := &GetAddressReply{}
	err := c.requester.SendRequest(ctx, Name+".getVoteAddress", &GetVoteAddressArgs{
		Poll:  pda.FormatKey(poll),
		Voter: pda.FormatKey(voter),
	}, res, options...)
	if err != nil {
		return ids.Empty, 0, err
	}
	addr, err := pda.ParseKey(res.Address)
	return addr, uint8(res.Bump), err
}

func (c *client) GetPoll(ctx context.Context, poll ids.ID, options ...rpc.Option) (*APIPoll, error) {
	res := &APIPoll{}
	err := c.requester.SendRequest(ctx, Name+".getPoll", &AddressArgs{
		Address: pda.FormatKey(poll),
	}, res, options...)
	return res, err
}

func (c *client) GetVote(ctx context.Context, poll, voter ids.ID, options ...rpc.Option) (*APIVote, error) {
	res := &APIVote{}
	err := c.requester.SendRequest(ctx, Name+".getVote", &GetVoteAddressArgs{
		Poll:  pda.FormatKey(poll),
		Voter: pda.FormatKey(voter),
	}, res, options...)
	return res, err
}

func (c *client) GetPollVotes(ctx context.Context, poll ids.ID, options ...rpc.Option) ([]APIVote, error) {
	res := &GetPollVotesReply{}
	err := c.requester.SendRequest(ctx, Name+".getPollVotes", &AddressArgs{
		Address: pda.FormatKey(poll),
	}, res, options...)
	return res.Votes, err
}

func (c *client) GetAccount(ctx context.Context, addr ids.ID, encoding formatting.Encoding, options ...rpc.Option) (*GetAccountReply, error) {
	res := &GetAccountReply{}
	err := c.requester.SendRequest(ctx, Name+".getAccount", &GetAccountArgs{
		JSONAddress:  pollapi.JSONAddress{Address: pda.FormatKey(addr)},
		JSONEncoding: pollapi.JSONEncoding{Encoding: encoding},
	}, res, options...)
	return res, err
}
