// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

const (
	MaxQuestionLen = 256
	MaxOptionLen   = 64
	MaxOptions     = 4
	MinOptions     = 2
)

type PollState uint8

const (
	Pending PollState = iota // voting has not started yet
	Active                   // votes are accepted
	Closed                   // read-only forever
)

func (s PollState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Poll is created once and never modified afterwards.
type Poll struct {
	Creator    ids.ID
	Question   [MaxQuestionLen]byte
	Options    [MaxOptions][MaxOptionLen]byte
	NumOptions uint8
	StartSlot  uint64
	EndSlot    uint64
	// Bump re-derives the poll address together with its seeds.
	Bump uint8
}

// NewPoll packs the texts into a poll. Shape rules other than the text
// lengths are not checked here.
func NewPoll(
	creator ids.ID,
	question string,
	options []string,
	startSlot uint64,
	endSlot uint64,
	bump uint8,
) (*Poll, error) {
	if len(options) > MaxOptions {
		return nil, ErrTooManyOptions
	}
	q, err := PackQuestion(question)
	if err != nil {
		return nil, err
	}
	poll := &Poll{
		Creator:    creator,
		Question:   q,
		NumOptions: uint8(len(options)),
		StartSlot:  startSlot,
		EndSlot:    endSlot,
		Bump:       bump,
	}
	for i, option := range options {
		if poll.Options[i], err = PackOption(option); err != nil {
			return nil, err
		}
	}
	return poll, nil
}

func (p *Poll) QuestionText() string {
	return UnpackText(p.Question[:])
}

// OptionTexts returns the populated options, padding removed.
func (p *Poll) OptionTexts() []string {
	n := int(p.NumOptions)
	if n > MaxOptions {
		n = MaxOptions
	}
	options := make([]string, n)
	for i := range options {
		options[i] = UnpackText(p.Options[i][:])
	}
	return options
}

// StateAt returns the lifecycle state of the poll at [slot]. Both window
// bounds are inclusive.
func (p *Poll) StateAt(slot uint64) PollState {
	switch {
	case slot < p.StartSlot:
		return Pending
	case slot > p.EndSlot:
		return Closed
	default:
		return Active
	}
}

func (p *Poll) IsActiveAt(slot uint64) bool {
	return p.StateAt(slot) == Active
}

// IsValidChoice reports whether [choiceIndex] points to a populated option.
func (p *Poll) IsValidChoice(choiceIndex uint8) bool {
	return choiceIndex < p.NumOptions
}
