// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	ConfigFileKey = "config-file"

	DBTypeKey = "db-type"
	DBPathKey = "db-dir"

	HTTPHostKey           = "http-host"
	HTTPPortKey           = "http-port"
	HTTPAllowedOriginsKey = "http-allowed-origins"
	HTTPSEnabledKey       = "http-tls-enabled"
	HTTPSKeyFileKey       = "http-tls-key-file"
	HTTPSCertFileKey      = "http-tls-cert-file"

	LogsDirKey                   = "log-dir"
	LogLevelKey                  = "log-level"
	LogDisplayLevelKey           = "log-display-level"
	LogFormatKey                 = "log-format"
	LogRotaterMaxSizeKey         = "log-rotater-max-size"
	LogRotaterMaxFilesKey        = "log-rotater-max-files"
	LogRotaterMaxAgeKey          = "log-rotater-max-age"
	LogRotaterCompressEnabledKey = "log-rotater-compress-enabled"

	ProgramIDKey     = "program-id"
	GenesisTimeKey   = "genesis-time"
	GenesisFileKey   = "genesis-file"
	SlotDurationKey  = "slot-duration"
	PollCacheSizeKey = "poll-cache-size"

	// Used by the client subcommands
	NodeURIKey = "node-uri"
	KeyFileKey = "key-file"
)
