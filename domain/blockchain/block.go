// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/domain/tx"
	"github.com/pythnetwork/pythd/util"
)

// Nonce is a block's proof-of-work value: a numeric counter for mined blocks
// and a fixed string marker for the genesis block. On the wire it is encoded
// as a JSON number or string accordingly.
type Nonce struct {
	marker  string
	counter uint64
}

// CounterNonce returns a numeric nonce.
func CounterNonce(counter uint64) Nonce {
	return Nonce{counter: counter}
}

// MarkerNonce returns a fixed string nonce.
func MarkerNonce(marker string) Nonce {
	return Nonce{marker: marker}
}

// MarshalJSON implements json.Marshaler.
func (n Nonce) MarshalJSON() ([]byte, error) {
	if n.marker != "" {
		return json.Marshal(n.marker)
	}
	return json.Marshal(n.counter)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nonce) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &n.marker)
	}
	return json.Unmarshal(data, &n.counter)
}

// String returns the nonce in the form it is hashed in.
func (n Nonce) String() string {
	if n.marker != "" {
		return n.marker
	}
	return fmt.Sprintf("%d", n.counter)
}

// Block is one element of the chain: an ordered batch of transactions tied
// to its parent by hash and secured by proof of work.
type Block struct {
	Timestamp  int64             `json:"timestamp"`
	LastHash   string            `json:"last_hash"`
	Hash       string            `json:"hash"`
	Data       []*tx.Transaction `json:"data"`
	Difficulty int64             `json:"difficulty"`
	Nonce      Nonce             `json:"nonce"`
}

// HashBlock computes the canonical hash over a block's consensus fields.
func HashBlock(timestamp int64, lastHash string, data []*tx.Transaction,
	difficulty int64, nonce Nonce) string {

	return util.Hash(timestamp, lastHash, data, difficulty, nonce)
}

// MineBlock performs the proof-of-work search for a block holding data on
// top of parent. The timestamp is re-read every attempt so the difficulty
// adjustment can react to wall time during the search.
func MineBlock(parent *Block, data []*tx.Transaction, params *chainparams.Params) *Block {
	timestamp := time.Now().UnixNano()
	difficulty := AdjustDifficulty(parent, timestamp, params)
	var counter uint64
	nonce := CounterNonce(counter)
	hash := HashBlock(timestamp, parent.Hash, data, difficulty, nonce)

	for !hasProofOfWork(hash, difficulty) {
		counter++
		nonce = CounterNonce(counter)
		timestamp = time.Now().UnixNano()
		difficulty = AdjustDifficulty(parent, timestamp, params)
		hash = HashBlock(timestamp, parent.Hash, data, difficulty, nonce)
	}

	return &Block{
		Timestamp:  timestamp,
		LastHash:   parent.Hash,
		Hash:       hash,
		Data:       data,
		Difficulty: difficulty,
		Nonce:      nonce,
	}
}

// AdjustDifficulty derives the difficulty of a block mined at timestamp on
// top of parent: one harder when blocks arrive faster than the target mine
// rate, one easier otherwise, never below one.
func AdjustDifficulty(parent *Block, timestamp int64, params *chainparams.Params) int64 {
	if timestamp-parent.Timestamp < params.MineRate {
		return parent.Difficulty + 1
	}
	if parent.Difficulty > 1 {
		return parent.Difficulty - 1
	}
	return 1
}

// hasProofOfWork reports whether the binary expansion of the hex hash begins
// with difficulty zero bits.
func hasProofOfWork(hash string, difficulty int64) bool {
	binary, err := util.HexToBinary(hash)
	if err != nil {
		return false
	}
	if difficulty < 0 || difficulty > int64(len(binary)) {
		return false
	}
	return strings.HasPrefix(binary, strings.Repeat("0", int(difficulty)))
}

// ValidateBlock checks that block correctly extends parent: linkage,
// proof of work, bounded difficulty movement, and hash integrity.
func ValidateBlock(parent, block *Block) error {
	if block.LastHash != parent.Hash {
		return ruleError(ErrBadLastHash, "block last_hash must match the hash of its parent")
	}

	if !hasProofOfWork(block.Hash, block.Difficulty) {
		return ruleError(ErrInsufficientProofOfWork, "proof of work requirement not met")
	}

	difficultyDelta := block.Difficulty - parent.Difficulty
	if difficultyDelta > 1 || difficultyDelta < -1 {
		return ruleError(ErrUnexpectedDifficulty, fmt.Sprintf(
			"block difficulty %d moved by more than 1 from parent difficulty %d",
			block.Difficulty, parent.Difficulty))
	}

	reconstructed := HashBlock(block.Timestamp, block.LastHash, block.Data,
		block.Difficulty, block.Nonce)
	if block.Hash != reconstructed {
		return ruleError(ErrBadHash, "block hash must be correct")
	}

	return nil
}

// ToJSON serializes the block to its wire form.
func (b *Block) ToJSON() ([]byte, error) {
	encoded, err := json.Marshal(b)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't marshal block")
	}
	return encoded, nil
}

// BlockFromJSON deserializes a block from its wire form.
func BlockFromJSON(data []byte) (*Block, error) {
	var block Block
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, errors.Wrap(err, "couldn't unmarshal block")
	}
	return &block, nil
}
