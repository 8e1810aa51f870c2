// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"encoding"
	"encoding/binary"
	"fmt"
)

// Record layouts read by external clients. Field order and widths must not
// change, integers are little-endian.
const (
	// creator | question | options | num_options | start_slot | end_slot | bump
	PollSize = 32 + MaxQuestionLen + MaxOptions*MaxOptionLen + 1 + 8 + 8 + 1

	// poll | voter | choice_index | weight
	VoteRecordSize = 32 + 32 + 1 + 8
)

var (
	_ encoding.BinaryMarshaler   = (*Poll)(nil)
	_ encoding.BinaryUnmarshaler = (*Poll)(nil)
	_ encoding.BinaryMarshaler   = (*VoteRecord)(nil)
	_ encoding.BinaryUnmarshaler = (*VoteRecord)(nil)
)

func (p *Poll) MarshalBinary() ([]byte, error) {
	b := make([]byte, PollSize)
	offset := copy(b, p.Creator[:])
	offset += copy(b[offset:], p.Question[:])
	for i := range p.Options {
		offset += copy(b[offset:], p.Options[i][:])
	}
	b[offset] = p.NumOptions
	offset++
	binary.LittleEndian.PutUint64(b[offset:], p.StartSlot)
	offset += 8
	binary.LittleEndian.PutUint64(b[offset:], p.EndSlot)
	offset += 8
	b[offset] = p.Bump
	return b, nil
}

func (p *Poll) UnmarshalBinary(b []byte) error {
	if len(b) != PollSize {
		return fmt.Errorf("%w: poll has %d bytes, expected %d", ErrInvalidRecordSize, len(b), PollSize)
	}
	offset := copy(p.Creator[:], b)
	offset += copy(p.Question[:], b[offset:])
	for i := range p.Options {
		offset += copy(p.Options[i][:], b[offset:])
	}
	p.NumOptions = b[offset]
	offset++
	p.StartSlot = binary.LittleEndian.Uint64(b[offset:])
	offset += 8
	p.EndSlot = binary.LittleEndian.Uint64(b[offset:])
	offset += 8
	p.Bump = b[offset]
	return nil
}

func (v *VoteRecord) MarshalBinary() ([]byte, error) {
	b := make([]byte, VoteRecordSize)
	offset := copy(b, v.Poll[:])
	offset += copy(b[offset:], v.Voter[:])
	b[offset] = v.ChoiceIndex
	offset++
	binary.LittleEndian.PutUint64(b[offset:], v.Weight)
	return b, nil
}

func (v *VoteRecord) UnmarshalBinary(b []byte) error {
	if len(b) != VoteRecordSize {
		return fmt.Errorf("%w: vote record has %d bytes, expected %d", ErrInvalidRecordSize, len(b), VoteRecordSize)
	}
	offset := copy(v.Poll[:], b)
	offset += copy(v.Voter[:], b[offset:])
	v.ChoiceIndex = b[offset]
	offset++
	v.Weight = binary.LittleEndian.Uint64(b[offset:])
	return nil
}
