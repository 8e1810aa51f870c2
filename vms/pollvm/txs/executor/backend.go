// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminopolls/vms/pollvm/config"
	"github.com/chain4travel/caminopolls/vms/pollvm/slot"
)

type Backend struct {
	Config *config.Config
	Clock  slot.Clock
	Log    logging.Logger
}
