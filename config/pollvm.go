// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/chain4travel/caminopolls/vms/pollvm/config"
	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
	"github.com/chain4travel/caminopolls/vms/pollvm/state"
)

// DefaultGenesisTime is the wall time of slot 0 unless configured otherwise.
const DefaultGenesisTime = "2024-01-01T00:00:00Z"

func addPollVMFlags(fs *flag.FlagSet) {
	// Address the poll program lives at, mixed into every derived address
	fs.String(ProgramIDKey, config.DefaultProgramID, "Base58 program ID every poll and vote address is derived from")
	fs.String(GenesisTimeKey, DefaultGenesisTime, "RFC3339 wall time of slot 0")
	fs.String(GenesisFileKey, "", "JSON file listing the polls a fresh database starts with")
	fs.Duration(SlotDurationKey, config.DefaultSlotDuration, "Length of one slot")
	fs.Int(PollCacheSizeKey, state.DefaultPollCacheSize, "Number of decoded polls kept in memory")
}

func getPollVMConfig(v *viper.Viper) (config.Config, error) {
	programID, err := pda.ParseKey(v.GetString(ProgramIDKey))
	if err != nil {
		return config.Config{}, fmt.Errorf("couldn't parse %q: %w", ProgramIDKey, err)
	}
	genesisTime, err := time.Parse(time.RFC3339, v.GetString(GenesisTimeKey))
	if err != nil {
		return config.Config{}, fmt.Errorf("couldn't parse %q: %w", GenesisTimeKey, err)
	}

	conf := config.Config{
		ProgramID:     programID,
		GenesisTime:   genesisTime,
		SlotDuration:  v.GetDuration(SlotDurationKey),
		PollCacheSize: v.GetInt(PollCacheSizeKey),
	}
	return conf, conf.Verify()
}

// getGenesisData returns the content of the configured genesis file, or nil
// when none is set.
func getGenesisData(v *viper.Viper) ([]byte, error) {
	if !v.IsSet(GenesisFileKey) || v.GetString(GenesisFileKey) == "" {
		return nil, nil
	}
	genesisBytes, err := os.ReadFile(getExpandedArg(v, GenesisFileKey))
	if err != nil {
		return nil, fmt.Errorf("couldn't read %q: %w", GenesisFileKey, err)
	}
	return genesisBytes, nil
}
