// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

const (
	CodecVersion = 0

	DiscriminatorLen = 8

	PollAccountName = "Poll"
	VoteAccountName = "VoteRecord"
)

var (
	PollDiscriminator = NewDiscriminator(PollAccountName)
	VoteDiscriminator = NewDiscriminator(VoteAccountName)

	// Codec encodes account metadata, never record bodies.
	Codec codec.Manager

	errShortAccount = errors.New("account data shorter than discriminator")
)

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewDefaultManager()
	if err := Codec.RegisterCodec(CodecVersion, c); err != nil {
		panic(err)
	}
}

// NewDiscriminator returns the type tag stored in front of every record of
// kind [name].
func NewDiscriminator(name string) [DiscriminatorLen]byte {
	var d [DiscriminatorLen]byte
	copy(d[:], hashing.ComputeHash256([]byte("account:"+name)))
	return d
}

// Account is a record as the store sees it: a type tag, an opaque body and
// who paid for it.
type Account struct {
	Address       ids.ID
	Discriminator [DiscriminatorLen]byte
	Data          []byte
	Payer         ids.ID
	CreatedSlot   uint64
}

func (a *Account) Is(discriminator [DiscriminatorLen]byte) bool {
	return a.Discriminator == discriminator
}

type accountMetadata struct {
	Payer       ids.ID `serialize:"true"`
	CreatedSlot uint64 `serialize:"true"`
}

func encodeAccount(discriminator [DiscriminatorLen]byte, data []byte) []byte {
	b := make([]byte, DiscriminatorLen+len(data))
	copy(b, discriminator[:])
	copy(b[DiscriminatorLen:], data)
	return b
}

func decodeAccount(addr ids.ID, b []byte) (*Account, error) {
	if len(b) < DiscriminatorLen {
		return nil, fmt.Errorf("%w: account %s has %d bytes", errShortAccount, addr, len(b))
	}
	account := &Account{
		Address: addr,
		Data:    bytes.Clone(b[DiscriminatorLen:]),
	}
	copy(account.Discriminator[:], b)
	return account, nil
}
