// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package economics implements the monetary policy of the network: the block
// reward curve and the supply models it can follow. The policy a node
// enforces is the one carried by the genesis block of the chain being
// validated; the node's own configuration fills only the fields the genesis
// omits, so differently configured nodes agree on reward totals for the fields
// the genesis carries.
package economics

import "github.com/pythnetwork/pythd/chainparams"

// Policy captures the monetary-policy parameters a chain commits to in its
// genesis transaction.
type Policy struct {
	// StartReward is the block reward at height 1 in smallest units. Zero
	// means unknown; chain validation then infers it from the first block.
	StartReward int64

	// HalvingInterval is the number of blocks between halvings.
	HalvingInterval int64

	// SupplyModel selects the reward curve.
	SupplyModel chainparams.SupplyModel
}

// PolicyFromParams derives a Policy from local network parameters.
func PolicyFromParams(params *chainparams.Params) Policy {
	return Policy{
		StartReward:     params.StartingReward,
		HalvingInterval: params.HalvingInterval,
		SupplyModel:     params.SupplyModel,
	}
}

// BlockReward computes the minted reward for the block at the given height.
// Height is zero-based with genesis at 0; genesis mints nothing. Collected
// fees are not part of the minted reward and are added by the caller.
func BlockReward(height int64, policy Policy) int64 {
	if height <= 0 {
		return 0
	}

	switch policy.SupplyModel {
	case chainparams.SupplyModelFixed, chainparams.SupplyModelInflationary:
		return policy.StartReward
	}

	halving := policy.HalvingInterval
	if halving < 1 {
		halving = 1
	}
	era := (height - 1) / halving
	if era < 0 {
		era = 0
	}

	// Shifting by 63 or more would be undefined for int64; by then the
	// reward has long hit its one-unit floor anyway.
	if era > 62 {
		return 1
	}
	reward := policy.StartReward >> uint(era)
	if reward < 1 {
		reward = 1
	}
	return reward
}
