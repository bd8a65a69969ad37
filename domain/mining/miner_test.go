package mining_test

import (
	"testing"

	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/domain/blockchain"
	"github.com/pythnetwork/pythd/domain/economics"
	"github.com/pythnetwork/pythd/domain/mempool"
	"github.com/pythnetwork/pythd/domain/mining"
	"github.com/pythnetwork/pythd/domain/tx"
	"github.com/pythnetwork/pythd/wallet"
)

// recordingBroadcaster captures the blocks the miner announces.
type recordingBroadcaster struct {
	blocks []*blockchain.Block
}

func (b *recordingBroadcaster) BroadcastBlock(block *blockchain.Block) {
	b.blocks = append(b.blocks, block)
}

func newTestMiner(t *testing.T) (*mining.Miner, *blockchain.Blockchain, *mempool.Pool,
	*wallet.Wallet, *recordingBroadcaster) {
	t.Helper()

	params := &chainparams.MainnetParams
	chain := blockchain.New(params)
	pool := mempool.New(chain, params)
	w, err := wallet.New(chain)
	if err != nil {
		t.Fatalf("wallet.New: %v", err)
	}
	broadcaster := &recordingBroadcaster{}

	miner := mining.New(mining.Config{
		Chain:         chain,
		Pool:          pool,
		Params:        params,
		RewardAddress: w.Address,
		Broadcaster:   broadcaster,
	})
	return miner, chain, pool, w, broadcaster
}

// TestMineOnceEmptyPool mines a block holding only the reward transaction
// and checks the foundation split.
func TestMineOnceEmptyPool(t *testing.T) {
	params := &chainparams.MainnetParams
	miner, chain, _, w, broadcaster := newTestMiner(t)

	block, err := miner.MineOnce()
	if err != nil {
		t.Fatalf("MineOnce: %v", err)
	}

	if chain.Height() != 1 {
		t.Fatalf("chain height: got %d, want 1", chain.Height())
	}
	if len(block.Data) != 1 {
		t.Fatalf("block transactions: got %d, want 1", len(block.Data))
	}

	reward := block.Data[0]
	if reward.Kind() != tx.KindReward {
		t.Fatalf("expected a reward transaction, got %s", reward.Kind())
	}

	total := params.StartingReward
	foundationCut := int64(float64(total) * params.FoundationFeeRate)
	if got := reward.Output[params.FoundationAddress]; got != foundationCut {
		t.Errorf("foundation cut: got %d, want %d", got, foundationCut)
	}
	if got := reward.Output[w.Address()]; got != total-foundationCut {
		t.Errorf("miner take: got %d, want %d", got, total-foundationCut)
	}
	if got := reward.Output.Total(); got != total {
		t.Errorf("reward total: got %d, want %d", got, total)
	}

	// The mined chain satisfies full validation, reward totals included.
	if err := blockchain.ValidateChain(chain.Blocks(), params); err != nil {
		t.Errorf("mined chain invalid: %v", err)
	}

	if len(broadcaster.blocks) != 1 || broadcaster.blocks[0].Hash != block.Hash {
		t.Errorf("mined block was not broadcast")
	}
}

// TestMineOnceCollectsFees funds a wallet, queues a transfer, and checks
// the fee lands in the reward.
func TestMineOnceCollectsFees(t *testing.T) {
	params := &chainparams.MainnetParams
	miner, chain, pool, w, _ := newTestMiner(t)

	// First block funds the wallet with the miner take.
	if _, err := miner.MineOnce(); err != nil {
		t.Fatalf("funding MineOnce: %v", err)
	}

	transfer, err := tx.NewTransaction(w, "recipient", chainparams.UnitsPerCoin, 0, params)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := pool.Add(transfer); err != nil {
		t.Fatalf("Add: %v", err)
	}

	block, err := miner.MineOnce()
	if err != nil {
		t.Fatalf("MineOnce: %v", err)
	}

	if len(block.Data) != 2 {
		t.Fatalf("block transactions: got %d, want 2", len(block.Data))
	}

	var reward *tx.Transaction
	for _, transaction := range block.Data {
		if transaction.Kind() == tx.KindReward {
			reward = transaction
		}
	}
	if reward == nil {
		t.Fatalf("no reward transaction in block")
	}

	wantTotal := economics.BlockReward(2, chain.Policy()) + transfer.Input.Fee
	if got := reward.Output.Total(); got != wantTotal {
		t.Errorf("reward total: got %d, want %d", got, wantTotal)
	}

	if pool.Size() != 0 {
		t.Errorf("pool not cleared after mining: %d pending", pool.Size())
	}
	if err := blockchain.ValidateChain(chain.Blocks(), params); err != nil {
		t.Errorf("mined chain invalid: %v", err)
	}
}

// TestMineOnceDropsOverspenders queues two transfers whose combined spend
// exceeds the sender's balance by bypassing pool admission, and expects the
// miner to include only the better-paying one and evict the other.
func TestMineOnceDropsOverspenders(t *testing.T) {
	params := &chainparams.MainnetParams
	chain := blockchain.New(params)
	w, err := wallet.New(chain)
	if err != nil {
		t.Fatalf("wallet.New: %v", err)
	}

	// A pool without a chain skips the aggregate balance check on
	// admission, which is exactly how a conflicting pair can coexist as
	// pending; the miner's budget walk has to resolve it.
	pool := mempool.New(nil, params)
	miner := mining.New(mining.Config{
		Chain:         chain,
		Pool:          pool,
		Params:        params,
		RewardAddress: w.Address,
	})

	if _, err := miner.MineOnce(); err != nil {
		t.Fatalf("funding MineOnce: %v", err)
	}

	spendAmount := w.Balance()/2 + w.Balance()/10
	first, err := tx.NewTransaction(w, "first-recipient", spendAmount, 0, params)
	if err != nil {
		t.Fatalf("first transfer: %v", err)
	}
	second, err := tx.NewTransaction(w, "second-recipient", spendAmount,
		int(params.FeeCongestionTargetTxs)*8, params)
	if err != nil {
		t.Fatalf("second transfer: %v", err)
	}
	if err := pool.Add(first); err != nil {
		t.Fatalf("Add first: %v", err)
	}
	if err := pool.Add(second); err != nil {
		t.Fatalf("Add second: %v", err)
	}

	block, err := miner.MineOnce()
	if err != nil {
		t.Fatalf("MineOnce: %v", err)
	}

	// The higher fee-rate transfer wins the budget; the other is dropped.
	var included []string
	for _, transaction := range block.Data {
		if transaction.Kind() == tx.KindTransfer {
			included = append(included, transaction.ID)
		}
	}
	if len(included) != 1 || included[0] != second.ID {
		t.Errorf("included transfers: got %v, want just %s", included, second.ID)
	}
	if pool.Size() != 0 {
		t.Errorf("loser transaction not evicted: %d pending", pool.Size())
	}
	if err := blockchain.ValidateChain(chain.Blocks(), params); err != nil {
		t.Errorf("mined chain invalid: %v", err)
	}
}
