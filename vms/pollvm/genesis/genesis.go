// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	stdjson "encoding/json"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/json"

	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
	"github.com/chain4travel/caminopolls/vms/pollvm/txs"
)

const errCannotParseCreator = "cannot parse creator of genesis poll %d: %w"

// UnparsedPoll is a poll as written in a genesis file.
type UnparsedPoll struct {
	Creator   string      `json:"creator"`
	Question  string      `json:"question"`
	Options   []string    `json:"options"`
	StartSlot json.Uint64 `json:"startSlot"`
	EndSlot   json.Uint64 `json:"endSlot"`
}

// UnparsedGenesis is the JSON form of Genesis.
type UnparsedGenesis struct {
	Polls []UnparsedPoll `json:"polls"`
}

// Genesis lists the polls a fresh database starts with. They are trusted,
// so they are created without a creator signature.
type Genesis struct {
	Polls []*txs.CreatePollTx
}

func (ug UnparsedGenesis) Parse() (*Genesis, error) {
	g := &Genesis{
		Polls: make([]*txs.CreatePollTx, len(ug.Polls)),
	}
	for i, up := range ug.Polls {
		creator, err := pda.ParseKey(up.Creator)
		if err != nil {
			return nil, fmt.Errorf(errCannotParseCreator, i, err)
		}
		tx := &txs.CreatePollTx{
			Creator:   creator,
			Question:  up.Question,
			Options:   up.Options,
			StartSlot: uint64(up.StartSlot),
			EndSlot:   uint64(up.EndSlot),
		}
		if err := tx.SyntacticVerify(); err != nil {
			return nil, fmt.Errorf("invalid genesis poll %d: %w", i, err)
		}
		g.Polls[i] = tx
	}
	return g, nil
}

func (ug *UnparsedGenesis) Unparse(g *Genesis) {
	ug.Polls = make([]UnparsedPoll, len(g.Polls))
	for i, tx := range g.Polls {
		ug.Polls[i] = UnparsedPoll{
			Creator:   pda.FormatKey(tx.Creator),
			Question:  tx.Question,
			Options:   tx.Options,
			StartSlot: json.Uint64(tx.StartSlot),
			EndSlot:   json.Uint64(tx.EndSlot),
		}
	}
}

// Parse decodes and validates a JSON genesis.
func Parse(genesisBytes []byte) (*Genesis, error) {
	ug := UnparsedGenesis{}
	if err := stdjson.Unmarshal(genesisBytes, &ug); err != nil {
		return nil, fmt.Errorf("couldn't unmarshal genesis: %w", err)
	}
	return ug.Parse()
}
