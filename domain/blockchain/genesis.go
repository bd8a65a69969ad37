// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/domain/economics"
	"github.com/pythnetwork/pythd/domain/tx"
)

// Fixed genesis block fields. Two nodes must agree on the whole genesis
// block, including the policy carried by its allocation transaction, to
// interoperate.
const (
	genesisTimestamp = 1
	genesisLastHash  = "genesis_last_hash"
	genesisHash      = "genesis_hash"
	genesisNonce     = "genesis_nonce"

	// GenesisDifficulty seeds the difficulty schedule.
	GenesisDifficulty = 3

	genesisAllocationID = "genesis-allocation"
)

// Genesis returns the genesis block for the given network parameters. The
// allocation transaction funds the treasury with the initial supply and
// embeds the monetary policy every validator of this chain will enforce.
func Genesis(params *chainparams.Params) *Block {
	allocation := &tx.Transaction{
		ID:     genesisAllocationID,
		Input:  tx.NewGenesisInput(params),
		Output: tx.Output{params.TreasuryAddress: params.InitialSupply},
	}

	return &Block{
		Timestamp:  genesisTimestamp,
		LastHash:   genesisLastHash,
		Hash:       genesisHash,
		Data:       []*tx.Transaction{allocation},
		Difficulty: GenesisDifficulty,
		Nonce:      MarkerNonce(genesisNonce),
	}
}

// PolicyFromGenesis extracts the monetary policy committed to by a genesis
// block. Missing fields fall back to the local parameters, except the start
// reward, which is left unset (zero) so chain validation can infer it from
// the first block's reward output.
func PolicyFromGenesis(genesis *Block, params *chainparams.Params) economics.Policy {
	policy := economics.Policy{
		HalvingInterval: params.HalvingInterval,
		SupplyModel:     params.SupplyModel,
	}
	if len(genesis.Data) == 0 {
		return policy
	}

	input := genesis.Data[0].Input
	policy.StartReward = input.StartReward
	if input.HalvingInterval > 0 {
		policy.HalvingInterval = input.HalvingInterval
	}
	if input.SupplyModel != "" {
		policy.SupplyModel = chainparams.SupplyModel(input.SupplyModel)
	}
	return policy
}
