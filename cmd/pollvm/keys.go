// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"

	"github.com/chain4travel/caminopolls/config"
	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
	"github.com/chain4travel/caminopolls/vms/pollvm/txs"
)

var (
	errNoKeyFile   = errors.New("no key file configured")
	errWrongKeyLen = errors.New("wrong private key length")
)

func newKeygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ed25519 identity and write it to the key file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := getViper(cmd)
			if err != nil {
				return err
			}
			clientConfig, err := config.GetClientConfig(v)
			if err != nil {
				return err
			}
			if clientConfig.KeyFile == "" {
				return errNoKeyFile
			}

			pub, key, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return err
			}
			if err := writeKey(clientConfig.KeyFile, key); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), pda.FormatKey(txs.PublicKeyToID(pub)))
			return err
		},
	}
}

func writeKey(path string, key ed25519.PrivateKey) error {
	keyStr, err := formatting.Encode(formatting.HexNC, key)
	if err != nil {
		return err
	}
	// never overwrite an existing identity
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(keyStr + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// loadKey reads the private key at [path] and returns it with the identity
// it signs for.
func loadKey(path string) (ids.ID, ed25519.PrivateKey, error) {
	if path == "" {
		return ids.Empty, nil, errNoKeyFile
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return ids.Empty, nil, err
	}
	keyBytes, err := formatting.Decode(formatting.HexNC, strings.TrimSpace(string(b)))
	if err != nil {
		return ids.Empty, nil, fmt.Errorf("couldn't decode key file %s: %w", path, err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return ids.Empty, nil, fmt.Errorf("%w: %d", errWrongKeyLen, len(keyBytes))
	}
	key := ed25519.PrivateKey(keyBytes)
	return txs.PublicKeyToID(key.Public().(ed25519.PublicKey)), key, nil
}

