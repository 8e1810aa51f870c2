// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminopolls/vms/pollvm/config"
	"github.com/chain4travel/caminopolls/vms/pollvm/pda"
)

var (
	errInvalidDBType = errors.New("invalid database type")
	errInvalidPort   = errors.New("invalid http port")
)

// NodeConfig is everything the run command needs to serve the poll VM.
type NodeConfig struct {
	DBType string
	DBPath string

	HTTPHost           string
	HTTPPort           uint16
	HTTPAllowedOrigins []string
	HTTPSEnabled       bool
	HTTPSKeyFile       string
	HTTPSCertFile      string

	LoggingConfig logging.Config

	VMConfig config.Config
	// JSON genesis, nil when no genesis file is configured
	GenesisBytes []byte
}

// ClientConfig is what the client commands need to reach a node.
type ClientConfig struct {
	NodeURI string
	KeyFile string
	// Program the signed txs are bound to, must match the node's
	ProgramID ids.ID
}

// BuildViper parses [args] into [fs] and binds the result.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return BindViper(fs)
}

// BindViper binds the already parsed [fs], the environment and the optional
// config file into one viper instance.
func BindViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(envPrefix)
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if v.IsSet(ConfigFileKey) {
		v.SetConfigFile(getExpandedArg(v, ConfigFileKey))
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// getExpandedArg gets the string in viper corresponding to [key] and expands
// any variables using the OS env.
func getExpandedArg(v *viper.Viper, key string) string {
	return os.ExpandEnv(v.GetString(key))
}

func getDatabaseConfig(v *viper.Viper) (string, string, error) {
	dbType := v.GetString(DBTypeKey)
	switch dbType {
	case leveldb.Name, memdb.Name:
	default:
		return "", "", fmt.Errorf("%w: %q", errInvalidDBType, dbType)
	}
	return dbType, getExpandedArg(v, DBPathKey), nil
}

func getLoggingConfig(v *viper.Viper) (logging.Config, error) {
	loggingConfig := logging.Config{}
	loggingConfig.Directory = getExpandedArg(v, LogsDirKey)
	var err error
	loggingConfig.LogLevel, err = logging.ToLevel(v.GetString(LogLevelKey))
	if err != nil {
		return loggingConfig, err
	}
	logDisplayLevel := v.GetString(LogLevelKey)
	if v.IsSet(LogDisplayLevelKey) {
		logDisplayLevel = v.GetString(LogDisplayLevelKey)
	}
	loggingConfig.DisplayLevel, err = logging.ToLevel(logDisplayLevel)
	if err != nil {
		return loggingConfig, err
	}
	loggingConfig.LogFormat, err = logging.ToFormat(v.GetString(LogFormatKey), os.Stdout.Fd())
	loggingConfig.MaxSize = int(v.GetUint(LogRotaterMaxSizeKey))
	loggingConfig.MaxFiles = int(v.GetUint(LogRotaterMaxFilesKey))
	loggingConfig.MaxAge = int(v.GetUint(LogRotaterMaxAgeKey))
	loggingConfig.Compress = v.GetBool(LogRotaterCompressEnabledKey)
	return loggingConfig, err
}

// GetNodeConfig reads the node configuration out of [v].
func GetNodeConfig(v *viper.Viper) (NodeConfig, error) {
	nodeConfig := NodeConfig{
		HTTPHost:           v.GetString(HTTPHostKey),
		HTTPAllowedOrigins: strings.Fields(v.GetString(HTTPAllowedOriginsKey)),
		HTTPSEnabled:       v.GetBool(HTTPSEnabledKey),
		HTTPSKeyFile:       getExpandedArg(v, HTTPSKeyFileKey),
		HTTPSCertFile:      getExpandedArg(v, HTTPSCertFileKey),
	}

	port := v.GetUint(HTTPPortKey)
	if port > math.MaxUint16 {
		return NodeConfig{}, fmt.Errorf("%w: %d", errInvalidPort, port)
	}
	nodeConfig.HTTPPort = uint16(port)

	var err error
	nodeConfig.DBType, nodeConfig.DBPath, err = getDatabaseConfig(v)
	if err != nil {
		return NodeConfig{}, err
	}

	nodeConfig.LoggingConfig, err = getLoggingConfig(v)
	if err != nil {
		return NodeConfig{}, err
	}

	nodeConfig.VMConfig, err = getPollVMConfig(v)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("invalid poll VM config: %w", err)
	}

	nodeConfig.GenesisBytes, err = getGenesisData(v)
	if err != nil {
		return NodeConfig{}, err
	}
	return nodeConfig, nil
}

// GetClientConfig reads the client configuration out of [v].
func GetClientConfig(v *viper.Viper) (ClientConfig, error) {
	programID, err := pda.ParseKey(v.GetString(ProgramIDKey))
	if err != nil {
		return ClientConfig{}, fmt.Errorf("couldn't parse %q: %w", ProgramIDKey, err)
	}
	return ClientConfig{
		NodeURI:   v.GetString(NodeURIKey),
		KeyFile:   getExpandedArg(v, KeyFileKey),
		ProgramID: programID,
	}, nil
}
