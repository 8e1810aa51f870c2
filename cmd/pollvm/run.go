// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminopolls/config"
	"github.com/chain4travel/caminopolls/node"
	"github.com/chain4travel/caminopolls/vms/pollvm"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Serve the poll VM over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := getViper(cmd)
			if err != nil {
				return err
			}
			nodeConfig, err := config.GetNodeConfig(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), nodeConfig)
		},
	}
}

func run(ctx context.Context, nodeConfig config.NodeConfig) error {
	logFactory := logging.NewFactory(nodeConfig.LoggingConfig)
	defer logFactory.Close()

	log, err := logFactory.Make(pollvm.Name)
	if err != nil {
		return fmt.Errorf("couldn't initialize log: %w", err)
	}

	n, err := node.New(nodeConfig, log)
	if err != nil {
		log.Fatal("couldn't start node",
			zap.Error(err),
		)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(n.Dispatch)
	g.Go(func() error {
		<-ctx.Done()
		return n.Shutdown()
	})
	err = g.Wait()
	log.Info("node stopped",
		zap.Error(err),
	)
	return err
}
