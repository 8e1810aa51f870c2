// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

// Package slot provides the ledger time oracle.
package slot

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/ava-labs/avalanchego/utils/timer/mockable"
)

var (
	_ Clock = (*WallClock)(nil)
	_ Clock = (*ManualClock)(nil)

	ErrNonPositiveDuration = errors.New("slot duration must be positive")
)

// Clock returns the current ledger time in slots.
type Clock interface {
	Slot() uint64
}

// WallClock counts slots of fixed length since genesis.
type WallClock struct {
	genesis  time.Time
	duration time.Duration
	clock    *mockable.Clock
}

// NewWallClock returns a clock that reads the time from [clock]. Before
// [genesis] the slot is 0.
func NewWallClock(genesis time.Time, duration time.Duration, clock *mockable.Clock) (*WallClock, error) {
	if duration <= 0 {
		return nil, ErrNonPositiveDuration
	}
	if clock == nil {
		clock = &mockable.Clock{}
	}
	return &WallClock{
		genesis:  genesis,
		duration: duration,
		clock:    clock,
	}, nil
}

func (c *WallClock) Slot() uint64 {
	elapsed := c.clock.Time().Sub(c.genesis)
	if elapsed <= 0 {
		return 0
	}
	return uint64(elapsed / c.duration)
}

// SlotStart returns the wall time at which [slot] begins.
func (c *WallClock) SlotStart(slot uint64) time.Time {
	return c.genesis.Add(time.Duration(slot) * c.duration)
}

// ManualClock only moves when told to.
type ManualClock struct {
	slot atomic.Uint64
}

func NewManualClock(slot uint64) *ManualClock {
	c := &ManualClock{}
	c.slot.Store(slot)
	return c
}

func (c *ManualClock) Slot() uint64 {
	return c.slot.Load()
}

func (c *ManualClock) Set(slot uint64) {
	c.slot.Store(slot)
}

func (c *ManualClock) Advance(slots uint64) {
	c.slot.Add(slots)
}
