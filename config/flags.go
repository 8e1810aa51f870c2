// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/utils/logging"
)

const (
	DefaultHTTPHost = "127.0.0.1"
	DefaultHTTPPort = 9750

	envPrefix = "pollvm"
)

var (
	defaultDataDir = filepath.Join("$HOME", ".pollvm")
	defaultDBDir   = filepath.Join(defaultDataDir, "db")
	defaultLogDir  = filepath.Join(defaultDataDir, "logs")
	defaultTLSDir  = filepath.Join(defaultDataDir, "tls")
)

func addNodeFlags(fs *flag.FlagSet) {
	// Config file
	fs.String(ConfigFileKey, "", "Specifies a config file. Flags and environment variables take precedence over it")

	// Database
	fs.String(DBTypeKey, leveldb.Name, "Database type to use. Should be one of {leveldb, memdb}")
	fs.String(DBPathKey, defaultDBDir, "Path to database directory")

	// HTTP APIs
	fs.String(HTTPHostKey, DefaultHTTPHost, "Address of the HTTP server")
	fs.Uint(HTTPPortKey, DefaultHTTPPort, "Port of the HTTP server")
	fs.String(HTTPAllowedOriginsKey, "*", "Origins to allow on the HTTP port. Defaults to * which allows all origins. Example: https://*.camino.network https://*.camino.foundation")
	fs.Bool(HTTPSEnabledKey, false, "Upgrade the HTTP server to HTTPs")
	fs.String(HTTPSKeyFileKey, filepath.Join(defaultTLSDir, "api.key"), "TLS private key file for the HTTPs server. Generated together with the cert if missing")
	fs.String(HTTPSCertFileKey, filepath.Join(defaultTLSDir, "api.crt"), "TLS certificate file for the HTTPs server")

	// Logging
	fs.String(LogsDirKey, defaultLogDir, "Logging directory")
	fs.String(LogLevelKey, logging.Info.String(), "The log level. Should be one of {verbo, debug, trace, info, warn, error, fatal, off}")
	fs.String(LogDisplayLevelKey, "", "The log display level. If left blank, will inherit the value of log-level. Otherwise, should be one of {verbo, debug, trace, info, warn, error, fatal, off}")
	fs.String(LogFormatKey, logging.AutoString, logging.FormatDescription)
	fs.Uint(LogRotaterMaxSizeKey, 8, "The maximum file size in megabytes of the log file before it gets rotated.")
	fs.Uint(LogRotaterMaxFilesKey, 7, "The maximum number of old log files to retain. 0 means retain all old log files.")
	fs.Uint(LogRotaterMaxAgeKey, 0, "The maximum number of days to retain old log files based on the timestamp encoded in their filename. 0 means retain all old log files.")
	fs.Bool(LogRotaterCompressEnabledKey, false, "Enables the compression of rotated log files through gzip.")

	// Client
	fs.String(NodeURIKey, fmt.Sprintf("http://%s:%d", DefaultHTTPHost, DefaultHTTPPort), "URI of the node the client commands talk to")
	fs.String(KeyFileKey, "", "Path to the hex encoded ed25519 private key signing client txs")

	addPollVMFlags(fs)
}

// BuildFlagSet returns a complete set of flags for the node and the client
// commands.
func BuildFlagSet() *pflag.FlagSet {
	fs := flag.NewFlagSet(envPrefix, flag.ContinueOnError)
	addNodeFlags(fs)

	pfs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	pfs.AddGoFlagSet(fs)
	return pfs
}
