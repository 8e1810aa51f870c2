// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"time"

	"github.com/ava-labs/avalanchego/ids"
)

const (
	// DefaultProgramID is the base58 address the poll program was deployed at.
	DefaultProgramID    = "GYzboJk8vMriHVHHcVB1jkcgvjjx2E3p9taf6sMYtKAQ"
	DefaultSlotDuration = 400 * time.Millisecond
)

var (
	errNoProgramID      = errors.New("program ID is empty")
	errBadSlotDuration  = errors.New("slot duration must be positive")
	errBadPollCacheSize = errors.New("poll cache size must be positive")
)

type Config struct {
	// Mixed into every derived address
	ProgramID ids.ID

	// Wall time of slot 0
	GenesisTime time.Time
	// Length of one slot
	SlotDuration time.Duration

	PollCacheSize int
}

func (c *Config) Verify() error {
	switch {
	case c.ProgramID == ids.Empty:
		return errNoProgramID
	case c.SlotDuration <= 0:
		return errBadSlotDuration
	case c.PollCacheSize <= 0:
		return errBadPollCacheSize
	default:
		return nil
	}
}
