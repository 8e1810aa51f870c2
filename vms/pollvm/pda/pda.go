// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pda derives deterministic record addresses from a program ID and
// a list of seeds. A derived address is never a valid ed25519 public key,
// so no signer can ever act as it.
package pda

import (
	"errors"

	"filippo.io/edwards25519"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

const (
	// PollSeedVersion is mixed into every poll address. Bumping it moves all
	// new polls to a fresh address space.
	PollSeedVersion = "v999"

	maxBump = 255
)

var (
	PollSeedPrefix = []byte("poll")
	VoteSeedPrefix = []byte("vote")

	pdaMarker = []byte("ProgramDerivedAddress")

	ErrOnCurve      = errors.New("derived address is a valid curve point")
	ErrNoViableBump = errors.New("unable to find a viable bump seed")
)

// CreateAddress hashes [seeds] together with [programID]. The result is
// rejected with ErrOnCurve if it decodes as an ed25519 point.
func CreateAddress(programID ids.ID, seeds ...[]byte) (ids.ID, error) {
	size := len(programID) + len(pdaMarker)
	for _, seed := range seeds {
		size += len(seed)
	}
	buf := make([]byte, 0, size)
	for _, seed := range seeds {
		buf = append(buf, seed...)
	}
	buf = append(buf, programID[:]...)
	buf = append(buf, pdaMarker...)

	addr := ids.ID(hashing.ComputeHash256Array(buf))
	if IsOnCurve(addr[:]) {
		return ids.Empty, ErrOnCurve
	}
	return addr, nil
}

// FindAddress returns the first off-curve address produced by appending a
// single bump byte, counting down from 255, to [seeds].
func FindAddress(programID ids.ID, seeds ...[]byte) (ids.ID, uint8, error) {
	bumped := make([][]byte, len(seeds)+1)
	copy(bumped, seeds)
	for bump := maxBump; bump >= 0; bump-- {
		bumped[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateAddress(programID, bumped...)
		switch {
		case err == nil:
			return addr, uint8(bump), nil
		case errors.Is(err, ErrOnCurve):
			continue
		default:
			return ids.Empty, 0, err
		}
	}
	return ids.Empty, 0, ErrNoViableBump
}

// IsOnCurve reports whether [b] is the encoding of a point on edwards25519.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

func PollSeeds(creator ids.ID, question []byte) [][]byte {
	return [][]byte{
		PollSeedPrefix,
		[]byte(PollSeedVersion),
		creator[:],
		question,
	}
}

func VoteSeeds(poll, voter ids.ID) [][]byte {
	return [][]byte{
		VoteSeedPrefix,
		poll[:],
		voter[:],
	}
}

// PollAddress is where the poll created by [creator] with the raw
// [question] bytes lives.
func PollAddress(programID, creator ids.ID, question []byte) (ids.ID, uint8, error) {
	return FindAddress(programID, PollSeeds(creator, question)...)
}

// VoteAddress is where the single vote of [voter] on [poll] lives.
func VoteAddress(programID, poll, voter ids.ID) (ids.ID, uint8, error) {
	return FindAddress(programID, VoteSeeds(poll, voter)...)
}
