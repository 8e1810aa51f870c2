// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

const (
	IsInitializedKey byte = iota
	ProgramIDKey
	GenesisAppliedKey
)

var (
	isInitializedKey  = []byte{IsInitializedKey}
	programIDKey      = []byte{ProgramIDKey}
	genesisAppliedKey = []byte{GenesisAppliedKey}

	ErrProgramIDMismatch = errors.New("database belongs to another program")
)

// MetadataState remembers which program a database was initialized for.
type MetadataState struct {
	database.Database
}

func (s *MetadataState) IsInitialized() (bool, error) {
	return s.Has(isInitializedKey)
}

func (s *MetadataState) SetInitialized() error {
	return s.Put(isInitializedKey, nil)
}

func (s *MetadataState) IsGenesisApplied() (bool, error) {
	return s.Has(genesisAppliedKey)
}

func (s *MetadataState) SetGenesisApplied() error {
	return s.Put(genesisAppliedKey, nil)
}

func (s *MetadataState) GetProgramID() (ids.ID, error) {
	b, err := s.Get(programIDKey)
	if err != nil {
		return ids.Empty, err
	}
	return ids.ToID(b)
}

func (s *MetadataState) SetProgramID(programID ids.ID) error {
	return s.Put(programIDKey, programID[:])
}

// init marks a fresh database as owned by [programID], or checks that an
// initialized one already is.
func (s *MetadataState) init(programID ids.ID) error {
	initialized, err := s.IsInitialized()
	if err != nil {
		return err
	}
	if !initialized {
		if err := s.SetProgramID(programID); err != nil {
			return err
		}
		return s.SetInitialized()
	}

	stored, err := s.GetProgramID()
	if err != nil {
		return fmt.Errorf("failed to read program ID: %w", err)
	}
	if stored != programID {
		return fmt.Errorf("%w: stored %s, configured %s", ErrProgramIDMismatch, stored, programID)
	}
	return nil
}
