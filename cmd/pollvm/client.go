// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"

	"github.com/chain4travel/caminopolls/config"
	"github.com/chain4travel/caminopolls/vms/pollvm"
	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
	"github.com/chain4travel/caminopolls/vms/pollvm/txs"
)

const (
	questionFlag  = "question"
	optionFlag    = "option"
	startSlotFlag = "start-slot"
	endSlotFlag   = "end-slot"
	pollFlag      = "poll"
	voterFlag     = "voter"
	choiceFlag    = "choice"
	addressFlag   = "address"

	requestTimeout = 30 * time.Second
)

// clientEnv is what every client command needs: a connection to the node and
// optionally the identity signing txs.
type clientEnv struct {
	config config.ClientConfig
	client pollvm.Client
}

func newClientEnv(cmd *cobra.Command) (*clientEnv, error) {
	v, err := getViper(cmd)
	if err != nil {
		return nil, err
	}
	clientConfig, err := config.GetClientConfig(v)
	if err != nil {
		return nil, err
	}
	return &clientEnv{
		config: clientConfig,
		client: pollvm.NewClient(clientConfig.NodeURI),
	}, nil
}

func (e *clientEnv) issue(ctx context.Context, cmd *cobra.Command, unsigned func(signer ids.ID) txs.UnsignedTx) error {
	signer, key, err := loadKey(e.config.KeyFile)
	if err != nil {
		return err
	}
	tx, err := txs.NewSigned(e.config.ProgramID, unsigned(signer), key)
	if err != nil {
		return err
	}
	reply, err := e.client.IssueTx(ctx, tx.Bytes())
	if err != nil {
		return err
	}
	return printJSON(cmd, reply)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), requestTimeout)
}

func parseKeyFlag(cmd *cobra.Command, name string) (ids.ID, error) {
	s, err := cmd.Flags().GetString(name)
	if err != nil {
		return ids.Empty, err
	}
	key, err := pda.ParseKey(s)
	if err != nil {
		return ids.Empty, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return key, nil
}

func newCreatePollCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-poll",
		Short: "Create a poll signed by the key file identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			question, err := flags.GetString(questionFlag)
			if err != nil {
				return err
			}
			options, err := flags.GetStringArray(optionFlag)
			if err != nil {
				return err
			}
			startSlot, err := flags.GetUint64(startSlotFlag)
			if err != nil {
				return err
			}
			endSlot, err := flags.GetUint64(endSlotFlag)
			if err != nil {
				return err
			}

			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			return env.issue(ctx, cmd, func(signer ids.ID) txs.UnsignedTx {
				return &txs.CreatePollTx{
					Creator:   signer,
					Question:  question,
					Options:   options,
					StartSlot: startSlot,
					EndSlot:   endSlot,
				}
			})
		},
	}
	flags := cmd.Flags()
	flags.String(questionFlag, "", "Poll question")
	flags.StringArray(optionFlag, nil, "Poll option, repeat for every option")
	flags.Uint64(startSlotFlag, 0, "First slot votes are accepted in")
	flags.Uint64(endSlotFlag, 0, "Last slot votes are accepted in")
	return cmd
}

func newVoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Vote on a poll as the key file identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			poll, err := parseKeyFlag(cmd, pollFlag)
			if err != nil {
				return err
			}
			choice, err := cmd.Flags().GetUint8(choiceFlag)
			if err != nil {
				return err
			}

			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			return env.issue(ctx, cmd, func(signer ids.ID) txs.UnsignedTx {
				return &txs.CastVoteTx{
					Poll:        poll,
					Voter:       signer,
					ChoiceIndex: choice,
				}
			})
		},
	}
	cmd.Flags().String(pollFlag, "", "Address of the poll")
	cmd.Flags().Uint8(choiceFlag, 0, "Index of the chosen option")
	return cmd
}

func newGetPollCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-poll",
		Short: "Print a poll and its state at the current slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := parseKeyFlag(cmd, addressFlag)
			if err != nil {
				return err
			}
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			poll, err := env.client.GetPoll(ctx, addr)
			if err != nil {
				return err
			}
			return printJSON(cmd, poll)
		},
	}
	cmd.Flags().String(addressFlag, "", "Address of the poll")
	return cmd
}

func newGetVoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-vote",
		Short: "Print the vote of a voter on a poll",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			poll, err := parseKeyFlag(cmd, pollFlag)
			if err != nil {
				return err
			}
			voter, err := parseKeyFlag(cmd, voterFlag)
			if err != nil {
				return err
			}
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			vote, err := env.client.GetVote(ctx, poll, voter)
			if err != nil {
				return err
			}
			return printJSON(cmd, vote)
		},
	}
	cmd.Flags().String(pollFlag, "", "Address of the poll")
	cmd.Flags().String(voterFlag, "", "Identity of the voter")
	return cmd
}

func newGetVotesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-votes",
		Short: "Print every vote cast on a poll",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			poll, err := parseKeyFlag(cmd, pollFlag)
			if err != nil {
				return err
			}
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			votes, err := env.client.GetPollVotes(ctx, poll)
			if err != nil {
				return err
			}
			return printJSON(cmd, votes)
		},
	}
	cmd.Flags().String(pollFlag, "", "Address of the poll")
	return cmd
}

func newGetAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-account",
		Short: "Print the raw record stored at an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := parseKeyFlag(cmd, addressFlag)
			if err != nil {
				return err
			}
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			account, err := env.client.GetAccount(ctx, addr, formatting.Hex)
			if err != nil {
				return err
			}
			return printJSON(cmd, account)
		},
	}
	cmd.Flags().String(addressFlag, "", "Address of the record")
	return cmd
}
