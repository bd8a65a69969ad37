// Copyright (c) 2013-2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"github.com/pythnetwork/pythd/logger"
)

var log, _ = logger.Get(logger.SubsystemTags.PYTD)
