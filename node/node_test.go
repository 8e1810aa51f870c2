// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminopolls/config"
	"github.com/chain4travel/caminopolls/vms/pollvm"
	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
	"github.com/chain4travel/caminopolls/vms/pollvm/txs"

	vmconfig "github.com/chain4travel/caminopolls/vms/pollvm/config"
)

func testConfig() config.NodeConfig {
	return config.NodeConfig{
		DBType:             memdb.Name,
		HTTPHost:           "127.0.0.1",
		HTTPAllowedOrigins: []string{"*"},
		VMConfig: vmconfig.Config{
			ProgramID:     ids.ID{0x90},
			GenesisTime:   time.Now().Add(-time.Hour),
			SlotDuration:  time.Second,
			PollCacheSize: 16,
		},
	}
}

func TestNode(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	n, err := New(testConfig(), logging.NoLog{})
	require.NoError(err)

	dispatched := make(chan error, 1)
	go func() {
		dispatched <- n.Dispatch()
	}()

	uri := "http://" + n.APIServer.Addr().String()
	c := pollvm.NewClient(uri)

	// an hour after genesis with one second slots
	currentSlot, err := c.GetSlot(ctx)
	require.NoError(err)
	require.GreaterOrEqual(currentSlot, uint64(3600))

	pub, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(err)
	tx, err := txs.NewSigned(n.Config.VMConfig.ProgramID, &txs.CreatePollTx{
		Creator:   txs.PublicKeyToID(pub),
		Question:  "Node up?",
		Options:   []string{"yes", "no"},
		StartSlot: currentSlot,
		EndSlot:   currentSlot + 1000,
	}, key)
	require.NoError(err)
	_, err = c.IssueTx(ctx, tx.Bytes())
	require.NoError(err)

	res, err := http.Get(uri + "/ext/" + metricsRoute)
	require.NoError(err)
	body, err := io.ReadAll(res.Body)
	require.NoError(err)
	require.NoError(res.Body.Close())
	require.Contains(string(body), "pollvm_create_poll_txs_accepted 1")

	require.NoError(n.Shutdown())
	require.NoError(n.Shutdown())
	require.NoError(<-dispatched)
}

func TestNewUnknownDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.DBType = "rocksdb"
	_, err := New(cfg, logging.NoLog{})
	require.Error(t, err)
}

func TestNodeTLS(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	cfg := testConfig()
	cfg.HTTPSEnabled = true
	cfg.HTTPSKeyFile = filepath.Join(dir, "api.key")
	cfg.HTTPSCertFile = filepath.Join(dir, "api.crt")

	n, err := New(cfg, logging.NoLog{})
	require.NoError(err)

	dispatched := make(chan error, 1)
	go func() {
		dispatched <- n.Dispatch()
	}()

	certPEMBytes, err := os.ReadFile(cfg.HTTPSCertFile)
	require.NoError(err)
	roots := x509.NewCertPool()
	require.True(roots.AppendCertsFromPEM(certPEMBytes))
	transport := &http.Transport{TLSClientConfig: &tls.Config{
		RootCAs:    roots,
		MinVersion: tls.VersionTLS12,
	}}
	client := &http.Client{Transport: transport}

	res, err := client.Get("https://" + n.APIServer.Addr().String() + "/ext/" + metricsRoute)
	require.NoError(err)
	require.NoError(res.Body.Close())
	require.Equal(http.StatusOK, res.StatusCode)
	transport.CloseIdleConnections()

	require.NoError(n.Shutdown())
	require.NoError(<-dispatched)
}

func TestNodeGenesis(t *testing.T) {
	require := require.New(t)

	creator := ids.ID{0x42}
	cfg := testConfig()
	cfg.GenesisBytes = []byte(`{"polls":[{
		"creator":"` + pda.FormatKey(creator) + `",
		"question":"Genesis?",
		"options":["yes","no"],
		"startSlot":"0",
		"endSlot":"100"
	}]}`)

	n, err := New(cfg, logging.NoLog{})
	require.NoError(err)

	addr, _, err := pda.PollAddress(cfg.VMConfig.ProgramID, creator, []byte("Genesis?"))
	require.NoError(err)
	poll, err := n.VM.State().GetPoll(addr)
	require.NoError(err)
	require.Equal("Genesis?", poll.QuestionText())
	require.NoError(n.Shutdown())
}

func TestNewInvalidGenesis(t *testing.T) {
	cfg := testConfig()
	cfg.GenesisBytes = []byte(`{"polls":[{"creator":"abc"}]}`)
	_, err := New(cfg, logging.NoLog{})
	require.Error(t, err)
}
