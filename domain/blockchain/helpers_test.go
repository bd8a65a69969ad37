package blockchain_test

import (
	"strings"
	"testing"

	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/domain/blockchain"
	"github.com/pythnetwork/pythd/domain/economics"
	"github.com/pythnetwork/pythd/domain/tx"
	"github.com/pythnetwork/pythd/util"
)

// solveBlock searches for a nonce satisfying exactly the given difficulty at
// a fixed timestamp. Tests use it to build chains with chosen difficulty
// sequences, which the wall-clock mining path cannot produce on demand.
func solveBlock(t *testing.T, parent *blockchain.Block, data []*tx.Transaction,
	difficulty int64, timestamp int64) *blockchain.Block {
	t.Helper()

	prefix := strings.Repeat("0", int(difficulty))
	for counter := uint64(0); ; counter++ {
		nonce := blockchain.CounterNonce(counter)
		hash := blockchain.HashBlock(timestamp, parent.Hash, data, difficulty, nonce)
		binary, err := util.HexToBinary(hash)
		if err != nil {
			t.Fatalf("HexToBinary: %v", err)
		}
		if strings.HasPrefix(binary, prefix) {
			return &blockchain.Block{
				Timestamp:  timestamp,
				LastHash:   parent.Hash,
				Hash:       hash,
				Data:       data,
				Difficulty: difficulty,
				Nonce:      nonce,
			}
		}
	}
}

// rewardOnlyData builds the minimal valid data for a block at the given
// height: a single reward transaction paying the exact block reward plus
// the fees of the included transfers.
func rewardOnlyData(params *chainparams.Params, height int64, minerAddress string,
	transfers ...*tx.Transaction) []*tx.Transaction {

	var fees int64
	for _, transfer := range transfers {
		fees += transfer.Input.Fee
	}
	reward := economics.BlockReward(height, economics.PolicyFromParams(params)) + fees

	data := make([]*tx.Transaction, 0, len(transfers)+1)
	data = append(data, transfers...)
	return append(data, tx.NewRewardTransaction(tx.Output{minerAddress: reward}))
}

// buildChain assembles a valid chain on top of genesis with the given
// difficulty per block and reward-only data.
func buildChain(t *testing.T, params *chainparams.Params, minerAddress string,
	difficulties []int64) []*blockchain.Block {
	t.Helper()

	blocks := []*blockchain.Block{blockchain.Genesis(params)}
	for i, difficulty := range difficulties {
		height := int64(i + 1)
		data := rewardOnlyData(params, height, minerAddress)
		parent := blocks[len(blocks)-1]
		blocks = append(blocks, solveBlock(t, parent, data, difficulty, parent.Timestamp+1))
	}
	return blocks
}
