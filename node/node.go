// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/chain4travel/caminopolls/api/server"
	"github.com/chain4travel/caminopolls/config"
	"github.com/chain4travel/caminopolls/vms/pollvm"
	"github.com/chain4travel/caminopolls/vms/pollvm/genesis"
	"github.com/chain4travel/caminopolls/vms/pollvm/slot"
)

const (
	metricsRoute = "metrics"

	shutdownTimeout = 10 * time.Second
)

// Node is a single process serving the poll VM over HTTP.
type Node struct {
	Log    logging.Logger
	Config config.NodeConfig

	// Database the poll state is kept in
	DB database.Database

	MetricsRegistry *prometheus.Registry

	Clock slot.Clock
	VM    *pollvm.VM

	APIServer server.Server

	shutdownOnce sync.Once
	shutdownErr  error
}

// New initializes every component of the node. The API server is bound but
// doesn't serve until Dispatch is called.
func New(cfg config.NodeConfig, log logging.Logger) (*Node, error) {
	n := &Node{
		Log:             log,
		Config:          cfg,
		MetricsRegistry: prometheus.NewRegistry(),
	}

	if err := n.initMetrics(); err != nil {
		return nil, fmt.Errorf("couldn't initialize metrics: %w", err)
	}
	if err := n.initDatabase(); err != nil {
		return nil, fmt.Errorf("couldn't initialize database: %w", err)
	}
	if err := n.initVM(); err != nil {
		_ = n.DB.Close()
		return nil, fmt.Errorf("couldn't initialize poll VM: %w", err)
	}
	if err := n.initAPIServer(); err != nil {
		_ = n.VM.Shutdown()
		_ = n.DB.Close()
		return nil, fmt.Errorf("couldn't initialize API server: %w", err)
	}
	return n, nil
}

func (n *Node) initMetrics() error {
	errs := wrappers.Errs{}
	errs.Add(
		n.MetricsRegistry.Register(collectors.NewGoCollector()),
		n.MetricsRegistry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
	)
	return errs.Err
}

func (n *Node) initDatabase() error {
	var err error
	switch n.Config.DBType {
	case leveldb.Name:
		n.DB, err = leveldb.New(n.Config.DBPath, nil, n.Log, "db", n.MetricsRegistry)
	case memdb.Name:
		n.DB = memdb.New()
	default:
		err = fmt.Errorf("unknown database type %q", n.Config.DBType)
	}
	if err != nil {
		return err
	}

	n.Log.Info("initialized database",
		zap.String("type", n.Config.DBType),
		zap.String("path", n.Config.DBPath),
	)
	return nil
}

func (n *Node) initVM() error {
	clock, err := slot.NewWallClock(
		n.Config.VMConfig.GenesisTime,
		n.Config.VMConfig.SlotDuration,
		&mockable.Clock{},
	)
	if err != nil {
		return err
	}
	n.Clock = clock

	n.VM, err = pollvm.New(n.Config.VMConfig, n.DB, n.Clock, n.Log, n.MetricsRegistry)
	if err != nil {
		return err
	}
	if n.Config.GenesisBytes == nil {
		return nil
	}

	g, err := genesis.Parse(n.Config.GenesisBytes)
	if err == nil {
		err = n.VM.InitGenesis(g)
	}
	if err != nil {
		_ = n.VM.Shutdown()
		return fmt.Errorf("couldn't apply genesis: %w", err)
	}
	return nil
}

func (n *Node) initAPIServer() error {
	var tlsConfig *tls.Config
	if n.Config.HTTPSEnabled {
		if err := server.InitKeyPair(n.Config.HTTPSKeyFile, n.Config.HTTPSCertFile); err != nil {
			return fmt.Errorf("couldn't create TLS key pair: %w", err)
		}
		var err error
		tlsConfig, err = server.LoadTLSConfig(n.Config.HTTPSKeyFile, n.Config.HTTPSCertFile)
		if err != nil {
			return fmt.Errorf("couldn't load TLS key pair: %w", err)
		}
	}

	var err error
	n.APIServer, err = server.New(
		n.Log,
		n.Config.HTTPHost,
		n.Config.HTTPPort,
		n.Config.HTTPAllowedOrigins,
		tlsConfig,
	)
	if err != nil {
		return err
	}

	handlers, err := n.VM.CreateHandlers()
	if err != nil {
		return err
	}
	for endpoint, handler := range handlers {
		if err := n.APIServer.AddRoute(handler, pollvm.Name, endpoint); err != nil {
			return err
		}
	}

	metricsHandler := promhttp.HandlerFor(n.MetricsRegistry, promhttp.HandlerOpts{})
	return n.APIServer.AddRoute(metricsHandler, metricsRoute, "")
}

// Dispatch serves the APIs until Shutdown is called.
func (n *Node) Dispatch() error {
	return n.APIServer.Dispatch()
}

// Shutdown stops the API server, then closes the VM and the database. Safe to
// call more than once.
func (n *Node) Shutdown() error {
	n.shutdownOnce.Do(func() {
		n.Log.Info("shutting down node")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		errs := wrappers.Errs{}
		errs.Add(
			n.APIServer.Shutdown(ctx),
			n.VM.Shutdown(),
			n.DB.Close(),
		)
		n.shutdownErr = errs.Err
	})
	return n.shutdownErr
}
