// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node wires the chain, mempool, wallet, miner, and peer-to-peer
// overlay into one service and exposes the operations outer surfaces (HTTP
// facade, CLI) call. Nothing in this package is part of the consensus
// boundary.
package node

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/config"
	"github.com/pythnetwork/pythd/domain/blockchain"
	"github.com/pythnetwork/pythd/domain/mempool"
	"github.com/pythnetwork/pythd/domain/mining"
	"github.com/pythnetwork/pythd/domain/tx"
	"github.com/pythnetwork/pythd/network/p2p"
	"github.com/pythnetwork/pythd/wallet"
)

// Node is a running pythd instance.
type Node struct {
	cfg    *config.Config
	params *chainparams.Params

	chain  *blockchain.Blockchain
	pool   *mempool.Pool
	wallet *wallet.Wallet
	peers  *p2p.Node
	miner  *mining.Miner

	settingsMtx          sync.RWMutex
	autoMine             bool
	minerAddressOverride string
	minerName            string
	autoRefreshSeconds   int

	started, shutdown int32
}

// New assembles a node from the given configuration.
func New(cfg *config.Config) (*Node, error) {
	params := cfg.NetParams()
	chain := blockchain.New(params)

	var nodeWallet *wallet.Wallet
	var err error
	if cfg.PrivateKey != "" {
		nodeWallet, err = wallet.FromPrivateKey(cfg.PrivateKey, chain)
	} else {
		nodeWallet, err = wallet.New(chain)
	}
	if err != nil {
		return nil, errors.Wrap(err, "couldn't set up the node wallet")
	}

	pool := mempool.New(chain, params)

	p2pPort := cfg.P2PPort
	if cfg.PeerMode {
		// Ephemeral peers shift to a random port so several can share a
		// host during development.
		p2pPort += 1 + rand.Intn(1000)
	}
	seeds := cfg.SeedList()

	peers := p2p.New(p2p.Config{
		Host:         cfg.P2PHost,
		Port:         p2pPort,
		Chain:        chain,
		Pool:         pool,
		Seeds:        seeds,
		SyncInterval: time.Duration(cfg.SyncInterval) * time.Second,
	})

	n := &Node{
		cfg:                  cfg,
		params:               params,
		chain:                chain,
		pool:                 pool,
		wallet:               nodeWallet,
		peers:                peers,
		autoMine:             !cfg.DisableAutoMine,
		minerAddressOverride: cfg.MinerAddressOverride,
		minerName:            cfg.MinerName,
		autoRefreshSeconds:   cfg.AutoRefreshSeconds,
	}

	// Nodes started with seeds must not mine on a stale chain.
	requireSync := cfg.PeerMode || len(seeds) > 0
	n.miner = mining.New(mining.Config{
		Chain:         chain,
		Pool:          pool,
		Params:        params,
		RewardAddress: n.rewardAddress,
		Broadcaster:   peers,
		RequireSync:   requireSync,
	})
	n.miner.SetEnabled(n.autoMine)
	peers.OnSyncChange(n.miner.SetSynced)

	return n, nil
}

// rewardAddress resolves where block rewards go: the runtime override when
// set, the node wallet otherwise.
func (n *Node) rewardAddress() string {
	n.settingsMtx.RLock()
	defer n.settingsMtx.RUnlock()
	if n.minerAddressOverride != "" {
		return n.minerAddressOverride
	}
	return n.wallet.Address()
}

// Start launches the peer-to-peer overlay and the automatic miner.
func (n *Node) Start() error {
	if atomic.AddInt32(&n.started, 1) != 1 {
		return nil
	}

	if err := n.peers.Start(); err != nil {
		return errors.Wrap(err, "couldn't start the p2p node")
	}
	n.miner.Start()

	log.Infof("Node online | wallet=%s | p2p=%s | chain height=%d",
		n.wallet.Address(), n.peers.SelfAddress(), n.chain.Height())
	return nil
}

// Stop shuts the node down. In-flight state is disposable by design.
func (n *Node) Stop() {
	if atomic.AddInt32(&n.shutdown, 1) != 1 {
		return
	}
	log.Warnf("Node shutting down")
	n.miner.Stop()
	n.peers.Stop()
}

// Wallet returns the node's own wallet.
func (n *Node) Wallet() *wallet.Wallet {
	return n.wallet
}

// Chain returns the node's blockchain.
func (n *Node) Chain() *blockchain.Blockchain {
	return n.chain
}

// Pool returns the node's mempool.
func (n *Node) Pool() *mempool.Pool {
	return n.pool
}

// Peers returns the node's p2p endpoint.
func (n *Node) Peers() *p2p.Node {
	return n.peers
}

// ChainJSON serializes the full chain for explorer views.
func (n *Node) ChainJSON() ([]byte, error) {
	return n.chain.ToJSON()
}

// MineOnce mines a single block immediately, regardless of the auto-mine
// switch.
func (n *Node) MineOnce() (*blockchain.Block, error) {
	return n.miner.MineOnce()
}

// SubmitTransaction admits an externally built transaction and gossips it.
func (n *Node) SubmitTransaction(rawTx []byte) (*tx.Transaction, error) {
	transaction, err := tx.FromJSON(rawTx)
	if err != nil {
		return nil, err
	}
	if err := n.pool.Add(transaction); err != nil {
		return nil, err
	}
	n.peers.BroadcastTransaction(transaction)
	return transaction, nil
}

// CreateTransaction builds a transfer from the node wallet, reusing and
// updating the wallet's pending transaction when one exists, then admits
// and gossips it.
func (n *Node) CreateTransaction(recipient string, amount int64) (*tx.Transaction, error) {
	poolSize := n.pool.Size()

	transaction := n.pool.ExistingTransaction(n.wallet.Address())
	if transaction != nil {
		if err := transaction.Update(n.wallet, recipient, amount, poolSize, n.params); err != nil {
			return nil, err
		}
	} else {
		var err error
		transaction, err = tx.NewTransaction(n.wallet, recipient, amount, poolSize, n.params)
		if err != nil {
			return nil, err
		}
	}

	if err := n.pool.Add(transaction); err != nil {
		return nil, err
	}
	n.peers.BroadcastTransaction(transaction)
	return transaction, nil
}

// EstimateFee quotes the relay fee for an output set at the given mempool
// size. A negative size means "the current mempool".
func (n *Node) EstimateFee(output tx.Output, mempoolSize int) int64 {
	if mempoolSize < 0 {
		mempoolSize = n.pool.Size()
	}
	return tx.ComputeFee(output, mempoolSize, n.params)
}

// WalletBalance returns the on-chain balance of any address.
func (n *Node) WalletBalance(address string) int64 {
	return n.chain.BalanceOf(address)
}

// TxStatus describes where a transaction currently lives.
type TxStatus struct {
	Status      string `json:"status"`
	BlockHeight int64  `json:"block_height,omitempty"`
	BlockHash   string `json:"block_hash,omitempty"`
}

// TransactionStatus reports whether a transaction is pending in the
// mempool, confirmed on the chain, or unknown.
func (n *Node) TransactionStatus(id string) TxStatus {
	if n.pool.Get(id) != nil {
		return TxStatus{Status: "pending"}
	}
	for height, block := range n.chain.Blocks() {
		for _, transaction := range block.Data {
			if transaction.ID == id {
				return TxStatus{
					Status:      "confirmed",
					BlockHeight: int64(height),
					BlockHash:   block.Hash,
				}
			}
		}
	}
	return TxStatus{Status: "unknown"}
}

// Settings is the runtime-mutable configuration exposed to outer surfaces.
type Settings struct {
	AutoMine             bool   `json:"auto_mine"`
	MinerAddressOverride string `json:"miner_address_override"`
	MinerName            string `json:"miner_name"`
	AutoRefreshSeconds   int    `json:"auto_refresh_seconds"`
}

// ConfigRead returns the current runtime settings.
func (n *Node) ConfigRead() Settings {
	n.settingsMtx.RLock()
	defer n.settingsMtx.RUnlock()
	return Settings{
		AutoMine:             n.autoMine,
		MinerAddressOverride: n.minerAddressOverride,
		MinerName:            n.minerName,
		AutoRefreshSeconds:   n.autoRefreshSeconds,
	}
}

// ConfigWrite applies runtime settings and propagates the auto-mine switch
// to the miner.
func (n *Node) ConfigWrite(settings Settings) {
	n.settingsMtx.Lock()
	n.autoMine = settings.AutoMine
	n.minerAddressOverride = settings.MinerAddressOverride
	n.minerName = settings.MinerName
	n.autoRefreshSeconds = settings.AutoRefreshSeconds
	n.settingsMtx.Unlock()

	n.miner.SetEnabled(settings.AutoMine)
}
