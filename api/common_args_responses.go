// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import "github.com/ava-labs/avalanchego/utils/formatting"

// JSONEncoding contains encoding type
type JSONEncoding struct {
	Encoding formatting.Encoding `json:"encoding"`
}

// JSONAddress contains a base58 encoded address
type JSONAddress struct {
	Address string `json:"address"`
}
