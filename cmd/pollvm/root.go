// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chain4travel/caminopolls/config"
	"github.com/chain4travel/caminopolls/vms/pollvm"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pollvm",
		Short:         "Polls and one-vote-per-voter ballots kept in a slot-timed account store",
		Version:       pollvm.Version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().AddFlagSet(config.BuildFlagSet())

	cmd.AddCommand(
		newRunCommand(),
		newKeygenCommand(),
		newCreatePollCommand(),
		newVoteCommand(),
		newGetPollCommand(),
		newGetVoteCommand(),
		newGetVotesCommand(),
		newGetAccountCommand(),
	)
	return cmd
}

// getViper binds the flags cobra parsed for [cmd].
func getViper(cmd *cobra.Command) (*viper.Viper, error) {
	return config.BindViper(cmd.Flags())
}
