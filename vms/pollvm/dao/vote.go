// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import "github.com/ava-labs/avalanchego/ids"

// VoteWeight is the weight of every vote, one address one vote.
const VoteWeight uint64 = 1

// VoteRecord is the vote itself. Its address is derived from (Poll, Voter),
// which is what keeps a voter from voting twice.
type VoteRecord struct {
	Poll        ids.ID
	Voter       ids.ID
	ChoiceIndex uint8
	Weight      uint64
}

func NewVoteRecord(poll, voter ids.ID, choiceIndex uint8) *VoteRecord {
	return &VoteRecord{
		Poll:        poll,
		Voter:       voter,
		ChoiceIndex: choiceIndex,
		Weight:      VoteWeight,
	}
}
