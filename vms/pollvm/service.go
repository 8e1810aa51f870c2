// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package pollvm

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"

	pollapi "github.com/chain4travel/caminopolls/api"
	"github.com/chain4travel/caminopolls/vms/pollvm/dao"
	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
	"github.com/chain4travel/caminopolls/vms/pollvm/state"
	"github.com/chain4travel/caminopolls/vms/pollvm/txs"
)

var (
	errNoSuchPoll    = errors.New("poll not found")
	errNoSuchVote    = errors.New("vote not found")
	errNoSuchAccount = errors.New("account not found")
)

// Service is the API service for this VM
type Service struct {
	vm *VM
}

// IssueTxReply is the reply from IssueTx
type IssueTxReply struct {
	TxID    ids.ID      `json:"txID"`
	Address string      `json:"address"`
	Slot    json.Uint64 `json:"slot"`
}

// IssueTx executes a signed tx and returns the address of the record it wrote
func (s *Service) IssueTx(_ *http.Request, args *api.FormattedTx, reply *IssueTxReply) error {
	s.vm.log.Debug("API called",
		zap.String("service", Name),
		zap.String("method", "issueTx"),
	)

	txBytes, err := formatting.Decode(args.Encoding, args.Tx)
	if err != nil {
		return fmt.Errorf("problem decoding transaction: %w", err)
	}
	tx, err := txs.Parse(txBytes)
	if err != nil {
		return fmt.Errorf("couldn't parse tx: %w", err)
	}

	receipt, err := s.vm.IssueTx(tx)
	if err != nil {
		return err
	}

	reply.TxID = receipt.TxID
	reply.Address = pda.FormatKey(receipt.Address)
	reply.Slot = json.Uint64(receipt.Slot)
	return nil
}

// GetSlotReply is the reply from GetSlot
type GetSlotReply struct {
	Slot json.Uint64 `json:"slot"`
}

// GetSlot returns the slot new txs are checked against
func (s *Service) GetSlot(_ *http.Request, _ *struct{}, reply *GetSlotReply) error {
	reply.Slot = json.Uint64(s.vm.CurrentSlot())
	return nil
}

type GetPollAddressArgs struct {
	Creator  string `json:"creator"`
	Question string `json:"question"`
}

type GetAddressReply struct {
	Address string     `json:"address"`
	Bump    json.Uint8 `json:"bump"`
}

// GetPollAddress derives the address a poll of [args.Creator] asking
// [args.Question] is, or would be, stored at
func (s *Service) GetPollAddress(_ *http.Request, args *GetPollAddressArgs, reply *GetAddressReply) error {
	creator, err := pda.ParseKey(args.Creator)
	if err != nil {
		return fmt.Errorf("couldn't parse creator: %w", err)
	}
	addr, bump, err := pda.PollAddress(s.vm.ProgramID, creator, []byte(args.Question))
	if err != nil {
		return err
	}
	reply.Address = pda.FormatKey(addr)
	reply.Bump = json.Uint8(bump)
	return nil
}

type GetVoteAddressArgs struct {
	Poll  string `json:"poll"`
	Voter string `json:"voter"`
}

// GetVoteAddress derives the address the vote of [args.Voter] on [args.Poll]
// is, or would be, stored at
func (s *Service) GetVoteAddress(_ *http.Request, args *GetVoteAddressArgs, reply *GetAddressReply) error {
	poll, voter, err := parsePollAndVoter(args)
	if err != nil {
		return err
	}
	addr, bump, err := pda.VoteAddress(s.vm.ProgramID, poll, voter)
	if err != nil {
		return err
	}
	reply.Address = pda.FormatKey(addr)
	reply.Bump = json.Uint8(bump)
	return nil
}

type AddressArgs = pollapi.JSONAddress

// APIPoll is the JSON representation of a poll
type APIPoll struct {
	Address    string      `json:"address"`
	Creator    string      `json:"creator"`
	Question   string      `json:"question"`
	Options    []string    `json:"options"`
	NumOptions json.Uint8  `json:"numOptions"`
	StartSlot  json.Uint64 `json:"startSlot"`
	EndSlot    json.Uint64 `json:"endSlot"`
	Bump       json.Uint8  `json:"bump"`
	// Lifecycle state at the current slot
	State string `json:"state"`
}

// GetPoll returns the poll stored at [args.Address]
func (s *Service) GetPoll(_ *http.Request, args *AddressArgs, reply *APIPoll) error {
	addr, err := pda.ParseKey(args.Address)
	if err != nil {
		return fmt.Errorf("couldn't parse address: %w", err)
	}
	poll, err := s.vm.State().GetPoll(addr)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return errNoSuchPoll
	case err != nil:
		return err
	}

	*reply = APIPoll{
		Address:    pda.FormatKey(addr),
		Creator:    pda.FormatKey(poll.Creator),
		Question:   poll.QuestionText(),
		Options:    poll.OptionTexts(),
		NumOptions: json.Uint8(poll.NumOptions),
		StartSlot:  json.Uint64(poll.StartSlot),
		EndSlot:    json.Uint64(poll.EndSlot),
		Bump:       json.Uint8(poll.Bump),
		State:      poll.StateAt(s.vm.CurrentSlot()).String(),
	}
	return nil
}

// APIVote is the JSON representation of a vote record
type APIVote struct {
	Address     string      `json:"address"`
	Poll        string      `json:"poll"`
	Voter       string      `json:"voter"`
	ChoiceIndex json.Uint8  `json:"choiceIndex"`
	Weight      json.Uint64 `json:"weight"`
}

// GetVote returns the vote of [args.Voter] on [args.Poll]
func (s *Service) GetVote(_ *http.Request, args *GetVoteAddressArgs, reply *APIVote) error {
	poll, voter, err := parsePollAndVoter(args)
	if err != nil {
		return err
	}
	addr, _, err := pda.VoteAddress(s.vm.ProgramID, poll, voter)
	if err != nil {
		return err
	}
	vote, err := s.vm.State().GetVote(addr)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return errNoSuchVote
	case err != nil:
		return err
	}
	*reply = toAPIVote(s.vm.ProgramID, vote)
	return nil
}

type GetPollVotesReply struct {
	Votes []APIVote `json:"votes"`
}

// GetPollVotes returns every vote cast on the poll at [args.Address], ordered
// by voter
func (s *Service) GetPollVotes(_ *http.Request, args *AddressArgs, reply *GetPollVotesReply) error {
	addr, err := pda.ParseKey(args.Address)
	if err != nil {
		return fmt.Errorf("couldn't parse address: %w", err)
	}
	if _, err := s.vm.State().GetPoll(addr); errors.Is(err, database.ErrNotFound) {
		return errNoSuchPoll
	} else if err != nil {
		return err
	}
	votes, err := s.vm.State().GetPollVotes(addr)
	if err != nil {
		return err
	}

	reply.Votes = make([]APIVote, len(votes))
	for i, vote := range votes {
		reply.Votes[i] = toAPIVote(s.vm.ProgramID, vote)
	}
	return nil
}

type GetAccountArgs struct {
	pollapi.JSONAddress
	pollapi.JSONEncoding
}

type GetAccountReply struct {
	Discriminator string      `json:"discriminator"`
	Data          string      `json:"data"`
	Payer         string      `json:"payer"`
	CreatedSlot   json.Uint64 `json:"createdSlot"`
	Kind          string      `json:"kind"`
}

// GetAccount returns the raw record stored at [args.Address], its data encoded
// with [args.Encoding]
func (s *Service) GetAccount(_ *http.Request, args *GetAccountArgs, reply *GetAccountReply) error {
	addr, err := pda.ParseKey(args.Address)
	if err != nil {
		return fmt.Errorf("couldn't parse address: %w", err)
	}
	account, err := s.vm.State().GetAccount(addr)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return errNoSuchAccount
	case err != nil:
		return err
	}

	reply.Discriminator, err = formatting.Encode(formatting.HexNC, account.Discriminator[:])
	if err != nil {
		return err
	}
	reply.Data, err = formatting.Encode(args.Encoding, account.Data)
	if err != nil {
		return err
	}
	reply.Payer = pda.FormatKey(account.Payer)
	reply.CreatedSlot = json.Uint64(account.CreatedSlot)
	reply.Kind = accountKind(account.Discriminator)
	return nil
}

func parsePollAndVoter(args *GetVoteAddressArgs) (ids.ID, ids.ID, error) {
	poll, err := pda.ParseKey(args.Poll)
	if err != nil {
		return ids.Empty, ids.Empty, fmt.Errorf("couldn't parse poll: %w", err)
	}
	voter, err := pda.ParseKey(args.Voter)
	if err != nil {
		return ids.Empty, ids.Empty, fmt.Errorf("couldn't parse voter: %w", err)
	}
	return poll, voter, nil
}

func toAPIVote(programID ids.ID, vote *dao.VoteRecord) APIVote {
	apiVote := APIVote{
		Poll:        pda.FormatKey(vote.Poll),
		Voter:       pda.FormatKey(vote.Voter),
		ChoiceIndex: json.Uint8(vote.ChoiceIndex),
		Weight:      json.Uint64(vote.Weight),
	}
	// derivation only fails when every bump lands on the curve, which a stored
	// vote rules out
	if addr, _, err := pda.VoteAddress(programID, vote.Poll, vote.Voter); err == nil {
		apiVote.Address = pda.FormatKey(addr)
	}
	return apiVote
}

func accountKind(discriminator [state.DiscriminatorLen]byte) string {
	switch discriminator {
	case state.PollDiscriminator:
		return state.PollAccountName
	case state.VoteDiscriminator:
		return state.VoteAccountName
	default:
		return "unknown"
	}
}
