// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/chain4travel/caminopolls/vms/pollvm/dao"
)

const DefaultPollCacheSize = 2048

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	metadataPrefix        = []byte("metadata")
	accountPrefix         = []byte("account")
	accountMetadataPrefix = []byte("account metadata")

	_ State = (*state)(nil)

	ErrAlreadyExists    = errors.New("account already in use")
	ErrWrongAccountKind = errors.New("account has unexpected kind")
)

// ReadOnlyState is the read path used by services and by the vote caster.
type ReadOnlyState interface {
	// GetAccount returns database.ErrNotFound if nothing lives at [addr].
	GetAccount(addr ids.ID) (*Account, error)

	GetPoll(addr ids.ID) (*dao.Poll, error)
	GetVote(addr ids.ID) (*dao.VoteRecord, error)
	// GetPollVotes scans every vote record referencing [poll], ordered by
	// voter. Counting them is left to the caller.
	GetPollVotes(poll ids.ID) ([]*dao.VoteRecord, error)
}

// State is an arena of immutable accounts keyed by derived address.
type State interface {
	ReadOnlyState

	// CreateAccount writes a new account at [addr] or fails with
	// ErrAlreadyExists. Nothing is written on failure. Concurrent calls for
	// the same address have exactly one winner.
	CreateAccount(
		addr ids.ID,
		discriminator [DiscriminatorLen]byte,
		data []byte,
		payer ids.ID,
		slot uint64,
	) error

	CreatePoll(addr ids.ID, poll *dao.Poll, payer ids.ID, slot uint64) error
	CreateVote(addr ids.ID, vote *dao.VoteRecord, payer ids.ID, slot uint64) error

	// Genesis polls are created once per database.
	IsGenesisApplied() (bool, error)
	SetGenesisApplied() error

	Close() error
}

type state struct {
	// creations are serialized, reads never observe a half written account
	lock sync.RWMutex

	baseDB *versiondb.Database

	metadata          *MetadataState
	accountDB         database.Database
	accountMetadataDB database.Database

	// polls are immutable, so a cached poll never goes stale
	pollCache cache.Cacher[ids.ID, *dao.Poll]
}

// New opens the account arena stored in [db] for [programID].
func New(
	db database.Database,
	programID ids.ID,
	pollCacheSize int,
	metricsReg prometheus.Registerer,
) (State, error) {
	// create a new baseDB
	baseDB := versiondb.New(db)

	pollCache, err := metercacher.New[ids.ID, *dao.Poll](
		"poll_cache",
		metricsReg,
		&cache.LRU[ids.ID, *dao.Poll]{Size: pollCacheSize},
	)
	if err != nil {
		return nil, err
	}

	s := &state{
		baseDB:            baseDB,
		metadata:          &MetadataState{Database: prefixdb.New(metadataPrefix, baseDB)},
		accountDB:         prefixdb.New(accountPrefix, baseDB),
		accountMetadataDB: prefixdb.New(accountMetadataPrefix, baseDB),
		pollCache:         pollCache,
	}

	if err := s.metadata.init(programID); err != nil {
		s.baseDB.Abort()
		return nil, err
	}
	if err := s.baseDB.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit metadata: %w", err)
	}
	return s, nil
}

func (s *state) CreateAccount(
	addr ids.ID,
	discriminator [DiscriminatorLen]byte,
	data []byte,
	payer ids.ID,
	slot uint64,
) error {
	metaBytes, err := Codec.Marshal(CodecVersion, &accountMetadata{
		Payer:       payer,
		CreatedSlot: slot,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize account metadata: %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	exists, err := s.accountDB.Has(addr[:])
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, addr)
	}

	errs := wrappers.Errs{}
	errs.Add(
		s.accountDB.Put(addr[:], encodeAccount(discriminator, data)),
		s.accountMetadataDB.Put(addr[:], metaBytes),
	)
	if errs.Errored() {
		s.baseDB.Abort()
		return fmt.Errorf("failed to write account %s: %w", addr, errs.Err)
	}
	if err := s.baseDB.Commit(); err != nil {
		s.baseDB.Abort()
		return fmt.Errorf("failed to commit account %s: %w", addr, err)
	}
	return nil
}

func (s *state) IsGenesisApplied() (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.metadata.IsGenesisApplied()
}

func (s *state) SetGenesisApplied() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.metadata.SetGenesisApplied(); err != nil {
		s.baseDB.Abort()
		return err
	}
	return s.baseDB.Commit()
}

func (s *state) CreatePoll(addr ids.ID, poll *dao.Poll, payer ids.ID, slot uint64) error {
	pollBytes, err := poll.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.CreateAccount(addr, PollDiscriminator, pollBytes, payer, slot); err != nil {
		return err
	}
	cached := *poll
	s.pollCache.Put(addr, &cached)
	return nil
}

func (s *state) CreateVote(addr ids.ID, vote *dao.VoteRecord, payer ids.ID, slot uint64) error {
	voteBytes, err := vote.MarshalBinary()
	if err != nil {
		return err
	}
	return s.CreateAccount(addr, VoteDiscriminator, voteBytes, payer, slot)
}

func (s *state) GetAccount(addr ids.ID) (*Account, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	accountBytes, err := s.accountDB.Get(addr[:])
	if err != nil {
		return nil, err
	}
	account, err := decodeAccount(addr, accountBytes)
	if err != nil {
		return nil, err
	}

	metaBytes, err := s.accountMetadataDB.Get(addr[:])
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata of account %s: %w", addr, err)
	}
	meta := accountMetadata{}
	if _, err := Codec.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata of account %s: %w", addr, err)
	}
	account.Payer = meta.Payer
	account.CreatedSlot = meta.CreatedSlot
	return account, nil
}

// GetPoll returns a copy of the poll, the cached one is never handed out.
func (s *state) GetPoll(addr ids.ID) (*dao.Poll, error) {
	if poll, ok := s.pollCache.Get(addr); ok {
		p := *poll
		return &p, nil
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	accountBytes, err := s.accountDB.Get(addr[:])
	if err != nil {
		return nil, err
	}
	account, err := decodeAccount(addr, accountBytes)
	if err != nil {
		return nil, err
	}
	if !account.Is(PollDiscriminator) {
		return nil, fmt.Errorf("%w: %s is not a poll", ErrWrongAccountKind, addr)
	}

	poll := &dao.Poll{}
	if err := poll.UnmarshalBinary(account.Data); err != nil {
		return nil, fmt.Errorf("failed to parse poll %s: %w", addr, err)
	}
	cached := *poll
	s.pollCache.Put(addr, &cached)
	return poll, nil
}

func (s *state) GetVote(addr ids.ID) (*dao.VoteRecord, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	accountBytes, err := s.accountDB.Get(addr[:])
	if err != nil {
		return nil, err
	}
	account, err := decodeAccount(addr, accountBytes)
	if err != nil {
		return nil, err
	}
	if !account.Is(VoteDiscriminator) {
		return nil, fmt.Errorf("%w: %s is not a vote record", ErrWrongAccountKind, addr)
	}

	vote := &dao.VoteRecord{}
	if err := vote.UnmarshalBinary(account.Data); err != nil {
		return nil, fmt.Errorf("failed to parse vote record %s: %w", addr, err)
	}
	return vote, nil
}

func (s *state) GetPollVotes(poll ids.ID) ([]*dao.VoteRecord, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	it := s.accountDB.NewIterator()
	defer it.Release()

	votes := []*dao.VoteRecord{}
	for it.Next() {
		value := it.Value()
		if len(value) != DiscriminatorLen+dao.VoteRecordSize ||
			!bytes.Equal(value[:DiscriminatorLen], VoteDiscriminator[:]) {
			continue
		}
		vote := &dao.VoteRecord{}
		if err := vote.UnmarshalBinary(value[DiscriminatorLen:]); err != nil {
			return nil, err
		}
		if vote.Poll == poll {
			votes = append(votes, vote)
		}
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	slices.SortFunc(votes, func(a, b *dao.VoteRecord) bool {
		return bytes.Compare(a.Voter[:], b.Voter[:]) < 0
	})
	return votes, nil
}

// Close closes the state, the underlying database stays open
func (s *state) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	errs := wrappers.Errs{}
	errs.Add(
		s.accountMetadataDB.Close(),
		s.accountDB.Close(),
		s.metadata.Close(),
		s.baseDB.Close(),
	)
	return errs.Err
}
