// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mining assembles candidate blocks from the mempool, mines them,
// and runs the automatic mining loop.
package mining

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/domain/blockchain"
	"github.com/pythnetwork/pythd/domain/economics"
	"github.com/pythnetwork/pythd/domain/mempool"
	"github.com/pythnetwork/pythd/domain/tx"
)

// autoMineInterval is how often the automatic miner attempts a block.
const autoMineInterval = 5 * time.Second

// BlockBroadcaster announces freshly mined blocks to the network.
type BlockBroadcaster interface {
	BroadcastBlock(block *blockchain.Block)
}

// Config holds the pieces a Miner needs.
type Config struct {
	Chain  *blockchain.Blockchain
	Pool   *mempool.Pool
	Params *chainparams.Params

	// RewardAddress resolves the address mining rewards are paid to. It is
	// consulted at mine time so runtime overrides take effect immediately.
	RewardAddress func() string

	// Broadcaster may be nil on a node with no network.
	Broadcaster BlockBroadcaster

	// RequireSync gates the automatic loop on the node's sync state. Nodes
	// started with seed peers must not mine on a stale chain.
	RequireSync bool
}

// Miner drains the mempool into blocks. MineOnce is serialized by a mutex so
// only one block is produced at a time no matter how many callers race.
type Miner struct {
	cfg Config

	mineMtx sync.Mutex

	enabled int32
	synced  int32

	wg   sync.WaitGroup
	quit chan struct{}

	started, shutdown int32
}

// New returns a miner for the given configuration. The automatic loop does
// not run until Start is called.
func New(cfg Config) *Miner {
	m := &Miner{
		cfg:  cfg,
		quit: make(chan struct{}),
	}
	m.SetEnabled(true)
	if !cfg.RequireSync {
		m.SetSynced(true)
	}
	return m
}

// SetEnabled turns the automatic mining loop on or off. MineOnce is not
// affected; an explicit mine request always runs.
func (m *Miner) SetEnabled(enabled bool) {
	if enabled {
		atomic.StoreInt32(&m.enabled, 1)
	} else {
		atomic.StoreInt32(&m.enabled, 0)
	}
}

// Enabled reports whether the automatic loop is allowed to mine.
func (m *Miner) Enabled() bool {
	return atomic.LoadInt32(&m.enabled) == 1
}

// SetSynced records the node's sync state. Wired to the p2p sync observer.
func (m *Miner) SetSynced(synced bool) {
	was := atomic.LoadInt32(&m.synced) == 1
	if synced {
		atomic.StoreInt32(&m.synced, 1)
		if !was && m.cfg.RequireSync {
			log.Infof("Chain synced; automatic mining may proceed")
		}
	} else {
		atomic.StoreInt32(&m.synced, 0)
		if was && m.cfg.RequireSync {
			log.Infof("Chain desynced; automatic mining paused")
		}
	}
}

func (m *Miner) mayAutoMine() bool {
	if !m.Enabled() {
		return false
	}
	if m.cfg.RequireSync && atomic.LoadInt32(&m.synced) != 1 {
		return false
	}
	return true
}

// Start launches the automatic mining loop.
func (m *Miner) Start() {
	if atomic.AddInt32(&m.started, 1) != 1 {
		return
	}

	log.Infof("Automatic miner started; reward address %s", m.cfg.RewardAddress())
	m.wg.Add(1)
	spawn(func() {
		defer m.wg.Done()

		ticker := time.NewTicker(autoMineInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !m.mayAutoMine() {
					continue
				}
				if _, err := m.MineOnce(); err != nil {
					log.Warnf("Automatic mine attempt skipped: %s", err)
				}
			case <-m.quit:
				return
			}
		}
	})
}

// Stop terminates the automatic mining loop and waits for it to exit.
func (m *Miner) Stop() {
	if atomic.AddInt32(&m.shutdown, 1) != 1 {
		return
	}
	close(m.quit)
	m.wg.Wait()
	log.Infof("Automatic miner stopped")
}

// MineOnce assembles a block from the highest-paying mempool transactions,
// mines it, appends it to the chain, broadcasts it, and prunes the mempool.
//
// Transactions are taken in fee-per-byte order under a per-sender budget:
// each sender's aggregate net spend within the block must fit the sender's
// balance at the parent tip. Transactions that do not fit, and any stray
// reward or genesis transactions, are dropped from the pool.
func (m *Miner) MineOnce() (*blockchain.Block, error) {
	m.mineMtx.Lock()
	defer m.mineMtx.Unlock()

	chain := m.cfg.Chain
	pool := m.cfg.Pool
	params := m.cfg.Params

	prioritized := pool.Prioritized(params.MaxTxsPerBlock)
	accepted := make([]*tx.Transaction, 0, len(prioritized))
	pendingSpent := make(map[string]int64)
	var droppedIDs []string

	for _, candidate := range prioritized {
		// Reward or genesis transactions have no business in the pool.
		if candidate.Kind() != tx.KindTransfer {
			droppedIDs = append(droppedIDs, candidate.ID)
			continue
		}
		sender := candidate.Input.Address
		if sender == "" {
			droppedIDs = append(droppedIDs, candidate.ID)
			continue
		}

		available := chain.BalanceOf(sender) - pendingSpent[sender]
		netSpend := mempool.NetSpend(candidate)
		if netSpend > available {
			log.Warnf("Dropping transaction %s: input exceeds current balance of %s",
				candidate.ID, sender)
			droppedIDs = append(droppedIDs, candidate.ID)
			continue
		}

		accepted = append(accepted, candidate)
		pendingSpent[sender] += netSpend
	}

	// Evict what was dropped so known-bad transactions are not retried
	// forever.
	for _, id := range droppedIDs {
		pool.Remove(id)
	}

	var fees int64
	for _, transaction := range accepted {
		fees += transaction.Input.Fee
	}

	policy := chain.Policy()
	if policy.StartReward == 0 {
		policy.StartReward = params.StartingReward
	}
	rewardAmount := economics.BlockReward(int64(chain.Len()), policy) + fees

	rewardAddress := m.cfg.RewardAddress()
	var foundationCut int64
	if params.FoundationAddress != "" && params.FoundationFeeRate > 0 {
		foundationCut = int64(float64(rewardAmount) * params.FoundationFeeRate)
		if foundationCut > rewardAmount {
			foundationCut = rewardAmount
		}
		if foundationCut < 0 {
			foundationCut = 0
		}
	}
	minerTake := rewardAmount - foundationCut

	rewardOutput := tx.Output{}
	if minerTake > 0 {
		rewardOutput[rewardAddress] = minerTake
	}
	if foundationCut > 0 {
		rewardOutput[params.FoundationAddress] = foundationCut
	}

	data := append(accepted, tx.NewRewardTransaction(rewardOutput))
	block, err := chain.AddBlock(data)
	if err != nil {
		return nil, err
	}

	log.Infof("Mined block height=%d txs=%d reward=%d to=%s foundation=%d",
		chain.Height(), len(data), rewardAmount, rewardAddress, foundationCut)

	if m.cfg.Broadcaster != nil {
		m.cfg.Broadcaster.BroadcastBlock(block)
	}
	pool.ClearConfirmed(chain.Blocks())
	return block, nil
}
