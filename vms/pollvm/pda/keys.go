// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package pda

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/ava-labs/avalanchego/ids"
)

var errWrongKeyLen = errors.New("key must be 32 bytes")

// FormatKey returns the base58 form of an identity or address.
func FormatKey(key ids.ID) string {
	return base58.Encode(key[:])
}

// ParseKey is the inverse of FormatKey.
func ParseKey(s string) (ids.ID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return ids.Empty, fmt.Errorf("couldn't decode key %q: %w", s, err)
	}
	if len(b) != len(ids.Empty) {
		return ids.Empty, fmt.Errorf("%w, got %d", errWrongKeyLen, len(b))
	}
	return ids.ToID(b)
}
