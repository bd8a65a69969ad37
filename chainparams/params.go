// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainparams

import "time"

// Timestamp units. Block timestamps and MineRate are expressed in
// nanoseconds.
const (
	Nanosecond  int64 = 1
	Microsecond       = 1000 * Nanosecond
	Millisecond       = 1000 * Microsecond
	Second            = 1000 * Millisecond
)

// Coin denomination.
const (
	// CoinName is the display name of the native coin.
	CoinName = "PYTH"

	// UnitName is the name of the smallest unit of the native coin.
	UnitName = "pipu"

	// UnitsPerCoin is the number of smallest units in one coin. Display
	// amounts divide by this; everything on the wire is smallest units.
	UnitsPerCoin int64 = 100_000_000
)

// MiningRewardAddress is the sentinel input address that marks a block
// reward transaction. A transaction whose input carries only this address is
// a reward and is exempt from signature and balance rules.
const MiningRewardAddress = "+--official-mining-reward--+"

// SupplyModel selects how the block reward evolves over time.
type SupplyModel string

// The supported supply models.
const (
	// SupplyModelHalving halves the starting reward every HalvingInterval
	// blocks, with a floor of one smallest unit.
	SupplyModelHalving SupplyModel = "halving"

	// SupplyModelFixed pays the starting reward forever.
	SupplyModelFixed SupplyModel = "fixed"

	// SupplyModelInflationary also pays the starting reward forever. It is
	// kept distinct from fixed so chains can later diverge the two curves
	// without changing their genesis blocks.
	SupplyModelInflationary SupplyModel = "inflationary"
)

// Params defines a PYTH network by its parameters. Every field in the
// consensus section affects block validity; two nodes must agree on all of
// them (via a shared genesis block) to stay on the same chain.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// MineRate is the target block interval in nanoseconds. Difficulty
	// adjusts by one in whichever direction moves the observed interval
	// toward this target.
	MineRate int64

	// StartingReward is the block reward at height 1, in smallest units.
	StartingReward int64

	// HalvingInterval is the number of blocks between reward halvings when
	// the supply model is halving.
	HalvingInterval int64

	// SupplyModel selects the reward curve.
	SupplyModel SupplyModel

	// InitialSupply is the amount allocated to the treasury address in the
	// genesis block.
	InitialSupply int64

	// TreasuryAddress receives the genesis allocation.
	TreasuryAddress string

	// GenesisMessage is embedded in the genesis transaction input.
	GenesisMessage string

	// FoundationAddress receives a cut of every block reward. An empty
	// address disables the cut.
	FoundationAddress string

	// FoundationFeeRate is the fraction of each block reward diverted to
	// the foundation address, in [0, 1].
	FoundationFeeRate float64

	// MinRelayFeePerByte is the baseline minimum per-byte fee in smallest
	// units.
	MinRelayFeePerByte int64

	// DynamicFeeBasePerByte is the per-byte fee that grows with mempool
	// congestion.
	DynamicFeeBasePerByte int64

	// FeeCongestionTargetTxs is the mempool size at which the congestion
	// multiplier reaches 2.
	FeeCongestionTargetTxs int64

	// FeeMaxMultiplier caps the congestion multiplier.
	FeeMaxMultiplier float64

	// MinAbsoluteFee is the absolute fee floor in smallest units.
	MinAbsoluteFee int64

	// TxSizeInputOverhead is the byte overhead added to the serialized
	// output size when estimating transaction size for fee purposes.
	TxSizeInputOverhead int64

	// MaxTxsPerBlock bounds how many mempool transactions a miner drains
	// into one block.
	MaxTxsPerBlock int

	// DefaultP2PPort defines the default peer-to-peer port for the network.
	DefaultP2PPort int

	// DefaultSyncInterval is how often a node asks a random peer for blocks
	// it may be missing.
	DefaultSyncInterval time.Duration
}

// MainnetParams defines the network parameters for the main PYTH network.
var MainnetParams = Params{
	Name: "mainnet",

	MineRate: 15 * Second,

	// Supply: 12 coins per block, halving roughly every two years at the
	// 15 second target rate.
	StartingReward:  12 * UnitsPerCoin,
	HalvingInterval: 4_204_800,
	SupplyModel:     SupplyModelHalving,

	InitialSupply:   0,
	TreasuryAddress: "treasury",
	GenesisMessage:  "network-genesis",

	FoundationAddress: "c8102ec9be0227ce30dbf77fec8a4e19b9e701ea",
	FoundationFeeRate: 0.01,

	// Fee policy with congestion-aware scaling, all values in smallest
	// units. A 250-byte transaction at minimum congestion pays the
	// 10000-unit floor (0.0001 coin).
	MinRelayFeePerByte:     10,
	DynamicFeeBasePerByte:  20,
	FeeCongestionTargetTxs: 5000,
	FeeMaxMultiplier:       8,
	MinAbsoluteFee:         10_000,
	TxSizeInputOverhead:    100,
	MaxTxsPerBlock:         500,

	DefaultP2PPort:      6000,
	DefaultSyncInterval: 10 * time.Second,
}

// SimnetParams defines the network parameters for the simulation test
// network. It keeps the mainnet fee schedule but uses a short halving
// interval so reward-curve behavior shows up within a few blocks.
var SimnetParams = Params{
	Name: "simnet",

	MineRate: 15 * Second,

	StartingReward:  12 * UnitsPerCoin,
	HalvingInterval: 10,
	SupplyModel:     SupplyModelHalving,

	InitialSupply:   0,
	TreasuryAddress: "treasury",
	GenesisMessage:  "simnet-genesis",

	FoundationAddress: "c8102ec9be0227ce30dbf77fec8a4e19b9e701ea",
	FoundationFeeRate: 0.01,

	MinRelayFeePerByte:     10,
	DynamicFeeBasePerByte:  20,
	FeeCongestionTargetTxs: 5000,
	FeeMaxMultiplier:       8,
	MinAbsoluteFee:         10_000,
	TxSizeInputOverhead:    100,
	MaxTxsPerBlock:         500,

	DefaultP2PPort:      16000,
	DefaultSyncInterval: 2 * time.Second,
}
