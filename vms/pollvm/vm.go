// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package pollvm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/version"

	"github.com/chain4travel/caminopolls/vms/pollvm/config"
	"github.com/chain4travel/caminopolls/vms/pollvm/genesis"
	"github.com/chain4travel/caminopolls/vms/pollvm/metrics"
	"github.com/chain4travel/caminopolls/vms/pollvm/slot"
	"github.com/chain4travel/caminopolls/vms/pollvm/state"
	"github.com/chain4travel/caminopolls/vms/pollvm/txs"

	txexecutor "github.com/chain4travel/caminopolls/vms/pollvm/txs/executor"
)

const Name = "pollvm"

var (
	Version = &version.Semantic{
		Major: 0,
		Minor: 1,
		Patch: 0,
	}

	errNilClock      = errors.New("slot clock is nil")
	errInvalidConfig = errors.New("invalid config")
)

// Receipt describes the record written by an accepted tx.
type Receipt struct {
	TxID    ids.ID
	Address ids.ID
	Slot    uint64
}

// VM executes poll transactions against the account arena.
type VM struct {
	config.Config

	log     logging.Logger
	metrics metrics.Metrics
	backend *txexecutor.Backend

	// State of this VM
	state state.State
}

// New opens the poll state stored in [db]. [db] stays owned by the caller.
func New(
	cfg config.Config,
	db database.Database,
	clock slot.Clock,
	log logging.Logger,
	registerer prometheus.Registerer,
) (*VM, error) {
	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	if clock == nil {
		return nil, errNilClock
	}

	log.Info("initializing poll VM",
		zap.Stringer("version", Version),
		zap.Stringer("programID", cfg.ProgramID),
	)

	// Initialize metrics as soon as possible
	m, err := metrics.New(Name, registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	s, err := state.New(db, cfg.ProgramID, cfg.PollCacheSize, registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state: %w", err)
	}

	vm := &VM{
		Config:  cfg,
		log:     log,
		metrics: m,
		state:   s,
	}
	vm.backend = &txexecutor.Backend{
		Config: &vm.Config,
		Clock:  clock,
		Log:    log,
	}
	return vm, nil
}

// IssueTx authenticates the signer of [tx] and executes it. Every failure is
// final for this tx, nothing is retried.
func (vm *VM) IssueTx(tx *txs.Tx) (*Receipt, error) {
	receipt, err := vm.issueTx(tx)
	if err != nil {
		vm.metrics.MarkRejected(err)
		vm.log.Debug("rejected tx",
			zap.Error(err),
		)
		return nil, err
	}
	if err := vm.metrics.MarkAccepted(tx); err != nil {
		vm.log.Warn("failed to update metrics",
			zap.Error(err),
		)
	}
	vm.metrics.SetSlot(receipt.Slot)
	return receipt, nil
}

func (vm *VM) issueTx(tx *txs.Tx) (*Receipt, error) {
	if err := tx.VerifySignature(vm.ProgramID); err != nil {
		return nil, err
	}

	executor := &txexecutor.StandardTxExecutor{
		Backend: vm.backend,
		State:   vm.state,
		Tx:      tx,
	}
	if err := tx.Unsigned.Visit(executor); err != nil {
		return nil, fmt.Errorf("tx %s failed: %w", tx.ID(), err)
	}
	return &Receipt{
		TxID:    tx.ID(),
		Address: executor.Address,
		Slot:    executor.Slot,
	}, nil
}

// InitGenesis creates the polls of [g] on a database that has not seen a
// genesis yet. Genesis polls are not signed.
func (vm *VM) InitGenesis(g *genesis.Genesis) error {
	applied, err := vm.state.IsGenesisApplied()
	if err != nil {
		return err
	}
	if applied {
		vm.log.Debug("genesis already applied")
		return nil
	}

	for _, unsigned := range g.Polls {
		tx := &txs.Tx{Unsigned: unsigned}
		if err := tx.Initialize(); err != nil {
			return err
		}
		executor := &txexecutor.StandardTxExecutor{
			Backend: vm.backend,
			State:   vm.state,
			Tx:      tx,
		}
		err := tx.Unsigned.Visit(executor)
		switch {
		case errors.Is(err, state.ErrAlreadyExists):
			vm.log.Warn("skipping duplicate genesis poll",
				zap.String("question", unsigned.Question),
			)
		case err != nil:
			return fmt.Errorf("failed to create genesis poll %q: %w", unsigned.Question, err)
		}
	}

	vm.log.Info("applied genesis",
		zap.Int("numPolls", len(g.Polls)),
	)
	return vm.state.SetGenesisApplied()
}

// CurrentSlot returns the slot new txs are checked against.
func (vm *VM) CurrentSlot() uint64 {
	return vm.backend.Clock.Slot()
}

// State exposes the read path.
func (vm *VM) State() state.ReadOnlyState {
	return vm.state
}

// CreateHandlers returns the JSON-RPC handler of this VM keyed by its
// extension, "" being the VM endpoint itself.
func (vm *VM) CreateHandlers() (map[string]http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	server.RegisterInterceptFunc(vm.metrics.InterceptRequest)
	server.RegisterAfterFunc(vm.metrics.AfterRequest)
	if err := server.RegisterService(&Service{vm: vm}, Name); err != nil {
		return nil, err
	}
	return map[string]http.Handler{
		"": server,
	}, nil
}

// Shutdown closes the state. The database passed to New is left open.
func (vm *VM) Shutdown() error {
	vm.log.Info("shutting down poll VM")
	return vm.state.Close()
}
