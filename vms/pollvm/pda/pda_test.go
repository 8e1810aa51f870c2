// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package pda

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/ids"
)

var programID = ids.ID{0x01, 0x02, 0x03}

func TestFindAddressDeterministic(t *testing.T) {
	require := require.New(t)

	creator := ids.ID{7}
	addr1, bump1, err := PollAddress(programID, creator, []byte("Should we?"))
	require.NoError(err)
	addr2, bump2, err := PollAddress(programID, creator, []byte("Should we?"))
	require.NoError(err)

	require.Equal(addr1, addr2)
	require.Equal(bump1, bump2)
	require.False(IsOnCurve(addr1[:]))

	// the bump reproduces the address without searching
	recreated, err := CreateAddress(programID, append(PollSeeds(creator, []byte("Should we?")), []byte{bump1})...)
	require.NoError(err)
	require.Equal(addr1, recreated)
}

func TestAddressesDiffer(t *testing.T) {
	creator := ids.ID{7}
	poll, _, err := PollAddress(programID, creator, []byte("q"))
	require.NoError(t, err)

	tests := map[string]func() (ids.ID, uint8, error){
		"other creator": func() (ids.ID, uint8, error) {
			return PollAddress(programID, ids.ID{8}, []byte("q"))
		},
		"other question": func() (ids.ID, uint8, error) {
			return PollAddress(programID, creator, []byte("q2"))
		},
		"other program": func() (ids.ID, uint8, error) {
			return PollAddress(ids.ID{9}, creator, []byte("q"))
		},
		"vote of creator on poll": func() (ids.ID, uint8, error) {
			return VoteAddress(programID, poll, creator)
		},
		"vote of other voter on poll": func() (ids.ID, uint8, error) {
			return VoteAddress(programID, poll, ids.ID{8})
		},
	}
	seen := map[ids.ID]string{poll: "base poll"}
	for name, derive := range tests {
		t.Run(name, func(t *testing.T) {
			addr, _, err := derive()
			require.NoError(t, err)
			other, dup := seen[addr]
			require.False(t, dup, "collides with %s", other)
			seen[addr] = name
		})
	}
}

func TestIsOnCurve(t *testing.T) {
	// the identity element encodes as y = 1
	identity := make([]byte, 32)
	identity[0] = 1
	require.True(t, IsOnCurve(identity))

	require.False(t, IsOnCurve([]byte{1, 2, 3}))
}

func TestKeysRoundTrip(t *testing.T) {
	require := require.New(t)

	key := ids.GenerateTestID()
	parsed, err := ParseKey(FormatKey(key))
	require.NoError(err)
	require.Equal(key, parsed)

	_, err = ParseKey("3yZe7d")
	require.ErrorIs(err, errWrongKeyLen)

	_, err = ParseKey("0OIl")
	require.Error(err)
}

func TestVoteAddressProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("vote address is reproducible and off curve", prop.ForAll(
		func(pollBytes, voterBytes []byte) bool {
			var poll, voter ids.ID
			copy(poll[:], pollBytes)
			copy(voter[:], voterBytes)

			addr1, bump1, err := VoteAddress(programID, poll, voter)
			if err != nil {
				return false
			}
			addr2, bump2, err := VoteAddress(programID, poll, voter)
			if err != nil {
				return false
			}
			return addr1 == addr2 && bump1 == bump2 && !IsOnCurve(addr1[:])
		},
		gen.SliceOfN(32, gen.UInt8()),
		gen.SliceOfN(32, gen.UInt8()),
	))

	properties.TestingRun(t)
}
