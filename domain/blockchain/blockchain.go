// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain implements the block and chain data model: proof of
// work mining, difficulty adjustment, full chain validation including the
// transaction and reward rules, balance derivation by chain scan, and chain
// replacement under the longest-valid-chain-with-most-work fork choice.
package blockchain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/domain/economics"
	"github.com/pythnetwork/pythd/domain/tx"
)

// Blockchain is an ordered list of blocks rooted at the genesis block. All
// methods are safe for concurrent use; the chain slice itself is treated as
// immutable and replaced wholesale on mutation.
type Blockchain struct {
	chainLock sync.RWMutex
	params    *chainparams.Params
	blocks    []*Block
}

// New returns a chain holding only the genesis block for params.
func New(params *chainparams.Params) *Blockchain {
	return &Blockchain{
		params: params,
		blocks: []*Block{Genesis(params)},
	}
}

// Params returns the network parameters the chain was created with.
func (bc *Blockchain) Params() *chainparams.Params {
	return bc.params
}

// Blocks returns a snapshot of the chain. The returned slice is the
// caller's; the blocks themselves are shared and must not be mutated.
func (bc *Blockchain) Blocks() []*Block {
	bc.chainLock.RLock()
	defer bc.chainLock.RUnlock()

	snapshot := make([]*Block, len(bc.blocks))
	copy(snapshot, bc.blocks)
	return snapshot
}

// Tip returns the most recent block.
func (bc *Blockchain) Tip() *Block {
	bc.chainLock.RLock()
	defer bc.chainLock.RUnlock()
	return bc.blocks[len(bc.blocks)-1]
}

// Len returns the number of blocks in the chain.
func (bc *Blockchain) Len() int {
	bc.chainLock.RLock()
	defer bc.chainLock.RUnlock()
	return len(bc.blocks)
}

// Height returns the height of the tip, with genesis at height 0.
func (bc *Blockchain) Height() int64 {
	return int64(bc.Len() - 1)
}

// AddBlock mines a block holding data on top of the current tip and appends
// it. Mining happens outside the chain lock; if the tip moves while the
// proof-of-work search runs, the stale block is discarded with an error and
// the caller may retry against the new tip.
func (bc *Blockchain) AddBlock(data []*tx.Transaction) (*Block, error) {
	parent := bc.Tip()
	block := MineBlock(parent, data, bc.params)

	bc.chainLock.Lock()
	defer bc.chainLock.Unlock()

	if tip := bc.blocks[len(bc.blocks)-1]; tip.Hash != parent.Hash {
		return nil, ruleError(ErrBadLastHash, "chain tip changed while mining")
	}
	bc.blocks = append(bc.blocks, block)
	log.Debugf("Appended block %s at height %d with %d transactions",
		block.Hash[:8], len(bc.blocks)-1, len(block.Data))
	return block, nil
}

// ReplaceChain swaps the local chain for candidate when the fork-choice rule
// prefers it: the candidate must be at least as long, must be strictly
// longer or carry strictly more cumulative work, and must validate fully.
func (bc *Blockchain) ReplaceChain(candidate []*Block) error {
	bc.chainLock.Lock()
	defer bc.chainLock.Unlock()

	if len(candidate) < len(bc.blocks) {
		return ruleError(ErrChainShorter, "cannot replace: the incoming chain must be longer")
	}
	if len(candidate) == len(bc.blocks) {
		incomingWork := TotalWork(candidate)
		localWork := TotalWork(bc.blocks)
		if incomingWork.Cmp(localWork) <= 0 {
			return ruleError(ErrChainNoMoreWork, "cannot replace: incoming chain has no more work")
		}
	}

	if err := ValidateChain(candidate, bc.params); err != nil {
		return errors.Wrap(err, "cannot replace: the incoming chain is invalid")
	}

	replacement := make([]*Block, len(candidate))
	copy(replacement, candidate)
	bc.blocks = replacement
	log.Infof("Chain replaced; new height %d, tip %s", len(bc.blocks)-1,
		bc.blocks[len(bc.blocks)-1].Hash[:8])
	return nil
}

// TotalWork sums 2^difficulty over blocks. Cumulative work breaks ties
// between equal-length chains during fork choice.
func TotalWork(blocks []*Block) *big.Int {
	work := new(big.Int)
	one := big.NewInt(1)
	for _, block := range blocks {
		difficulty := block.Difficulty
		if difficulty < 0 {
			difficulty = 0
		}
		work.Add(work, new(big.Int).Lsh(one, uint(difficulty)))
	}
	return work
}

// TotalWork returns the cumulative work of the local chain.
func (bc *Blockchain) TotalWork() *big.Int {
	bc.chainLock.RLock()
	defer bc.chainLock.RUnlock()
	return TotalWork(bc.blocks)
}

// Policy returns the monetary policy committed to by the local genesis
// block.
func (bc *Blockchain) Policy() economics.Policy {
	bc.chainLock.RLock()
	defer bc.chainLock.RUnlock()
	return PolicyFromGenesis(bc.blocks[0], bc.params)
}

// BalanceOf returns the address balance at the current tip.
func (bc *Blockchain) BalanceOf(address string) int64 {
	return CalculateBalance(bc.Blocks(), address)
}

// CalculateBalance derives an address balance by scanning every transaction
// in blocks: the full input amount is subtracted when the address is the
// sender, and every output to the address is added. Fees are implicitly
// spent because they are part of the input amount and never return as
// change.
func CalculateBalance(blocks []*Block, address string) int64 {
	var balance int64
	for _, block := range blocks {
		for _, transaction := range block.Data {
			if transaction.Input.Address == address {
				balance -= transaction.Input.Amount
			}
			if value, ok := transaction.Output[address]; ok {
				balance += value
			}
		}
	}
	return balance
}

// ValidateChain checks a whole chain: the canonical genesis, block-by-block
// linkage and proof of work, and the transaction rules across the chain.
func ValidateChain(blocks []*Block, params *chainparams.Params) error {
	if len(blocks) == 0 {
		return ruleError(ErrGenesisMismatch, "chain is empty")
	}

	genesis := Genesis(params)
	encodedFirst, err := json.Marshal(blocks[0])
	if err != nil {
		return errors.Wrap(err, "couldn't marshal first block")
	}
	encodedGenesis, err := json.Marshal(genesis)
	if err != nil {
		return errors.Wrap(err, "couldn't marshal genesis block")
	}
	if string(encodedFirst) != string(encodedGenesis) {
		return ruleError(ErrGenesisMismatch, "the genesis block must be valid")
	}

	for i := 1; i < len(blocks); i++ {
		if err := ValidateBlock(blocks[i-1], blocks[i]); err != nil {
			return errors.Wrapf(err, "block at height %d is invalid", i)
		}
	}

	return validateTransactionChain(blocks, params)
}

// validateTransactionChain enforces the chain-context transaction rules:
// globally unique ids, balance coverage with in-block deltas applied in
// order, per-transaction validity, and exactly one reward per block whose
// total equals the block reward plus that block's fees under the policy
// carried by the genesis block.
func validateTransactionChain(blocks []*Block, params *chainparams.Params) error {
	seenIDs := make(map[string]struct{})
	policy := PolicyFromGenesis(blocks[0], params)

	for height := 1; height < len(blocks); height++ {
		block := blocks[height]

		hasReward := false
		var blockFees int64
		var rewardTotal int64
		inBlockDeltas := make(map[string]int64)

		for _, transaction := range block.Data {
			if _, seen := seenIDs[transaction.ID]; seen {
				return txRuleError(ErrDuplicateTransaction, fmt.Sprintf(
					"transaction %s is not unique", transaction.ID), transaction.ID)
			}
			seenIDs[transaction.ID] = struct{}{}

			switch transaction.Kind() {
			case tx.KindReward:
				if hasReward {
					return ruleError(ErrMultipleRewards, fmt.Sprintf(
						"there can only be one mining reward per block; check block %s", block.Hash))
				}
				hasReward = true
				rewardTotal = transaction.Output.Total()

			case tx.KindGenesis:
				// Genesis allocations are exempt from the balance rule
				// below, in any block; their outputs count toward the
				// recipients' balances like any other output.

			default:
				sender := transaction.Input.Address
				historicBalance := CalculateBalance(blocks[:height], sender)
				available := historicBalance + inBlockDeltas[sender]
				if transaction.Input.Amount > available {
					return txRuleError(ErrBadInputAmount, fmt.Sprintf(
						"transaction %s has an invalid input amount", transaction.ID),
						transaction.ID)
				}
				blockFees += transaction.Input.Fee
			}

			if err := tx.Validate(transaction, params); err != nil {
				return txRuleError(ErrBadTransaction, fmt.Sprintf(
					"transaction %s is invalid: %s", transaction.ID, err), transaction.ID)
			}

			// Apply in-block balance deltas so later transactions in the
			// same block see money that already moved within it.
			if transaction.Kind() == tx.KindTransfer {
				inBlockDeltas[transaction.Input.Address] -= transaction.Input.Amount
				for address, value := range transaction.Output {
					inBlockDeltas[address] += value
				}
			}
		}

		if !hasReward {
			return ruleError(ErrMissingReward, fmt.Sprintf(
				"missing mining reward at height %d", height))
		}

		// A foreign genesis may omit the start reward; infer it from the
		// first block so the rest of the chain can still be checked.
		if policy.StartReward == 0 && height == 1 {
			if inferred := rewardTotal - blockFees; inferred > 0 {
				policy.StartReward = inferred
			} else {
				policy.StartReward = params.StartingReward
			}
		}

		expectedReward := economics.BlockReward(int64(height), policy) + blockFees
		if rewardTotal != expectedReward {
			return ruleError(ErrBadRewardTotal, fmt.Sprintf(
				"mining reward incorrect at height %d: expected %d, got %d",
				height, expectedReward, rewardTotal))
		}
	}

	return nil
}

// ToJSON serializes the chain as a JSON array of blocks.
func (bc *Blockchain) ToJSON() ([]byte, error) {
	encoded, err := json.Marshal(bc.Blocks())
	if err != nil {
		return nil, errors.Wrap(err, "couldn't marshal chain")
	}
	return encoded, nil
}

// FromJSON deserializes a chain from a JSON array of blocks. The result is
// not validated; callers replace into a live chain to enforce the rules.
func FromJSON(data []byte, params *chainparams.Params) (*Blockchain, error) {
	var blocks []*Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, errors.Wrap(err, "couldn't unmarshal chain")
	}
	return &Blockchain{params: params, blocks: blocks}, nil
}
