// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool maintains the set of validated, unconfirmed transactions
// waiting to be mined. Admission is gated on transaction validity and on the
// sender's on-chain balance covering the aggregate of that sender's pending
// spends, so the pool can never hold more promises than the chain can pay.
package mempool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/domain/blockchain"
	"github.com/pythnetwork/pythd/domain/tx"
)

// Pool is the mempool. All methods are safe for concurrent use.
type Pool struct {
	mtx sync.RWMutex

	// chain backs balance checks at admission time. A nil chain disables
	// them, which only standalone tests use.
	chain  *blockchain.Blockchain
	params *chainparams.Params

	pool map[string]*tx.Transaction
}

// New returns an empty mempool backed by the given chain.
func New(chain *blockchain.Blockchain, params *chainparams.Params) *Pool {
	return &Pool{
		chain:  chain,
		params: params,
		pool:   make(map[string]*tx.Transaction),
	}
}

// NetSpend returns the coins a transaction moves away from its sender: the
// input amount minus whatever comes back as change.
func NetSpend(transaction *tx.Transaction) int64 {
	spend := transaction.Input.Amount - transaction.Output[transaction.Input.Address]
	if spend < 0 {
		return 0
	}
	return spend
}

// Add validates transaction and admits it to the pool. Transfers are
// additionally checked against the sender's on-chain balance net of the
// sender's already-pending spends.
func (p *Pool) Add(transaction *tx.Transaction) error {
	if err := tx.Validate(transaction, p.params); err != nil {
		return err
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.chain != nil && transaction.Kind() == tx.KindTransfer {
		sender := transaction.Input.Address
		balance := p.chain.BalanceOf(sender)

		var pendingSpend int64
		for _, pending := range p.pool {
			if pending.Input.Address == sender {
				pendingSpend += NetSpend(pending)
			}
		}
		if pendingSpend+NetSpend(transaction) > balance {
			return ruleError(ErrInsufficientFunds, fmt.Sprintf(
				"transaction %s exceeds the current on-chain balance of %s",
				transaction.ID, sender))
		}
	}

	p.pool[transaction.ID] = transaction
	log.Debugf("Admitted transaction %s; pool size %d", transaction.ID, len(p.pool))
	return nil
}

// Get returns the pending transaction with the given id, or nil.
func (p *Pool) Get(id string) *tx.Transaction {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.pool[id]
}

// Size returns the number of pending transactions.
func (p *Pool) Size() int {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return len(p.pool)
}

// Transactions returns all pending transactions in no particular order.
func (p *Pool) Transactions() []*tx.Transaction {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	transactions := make([]*tx.Transaction, 0, len(p.pool))
	for _, transaction := range p.pool {
		transactions = append(transactions, transaction)
	}
	return transactions
}

// ExistingTransaction returns a pending transaction sent by address, or nil.
// Wallets use it to update an in-flight transfer instead of creating a
// conflicting one.
func (p *Pool) ExistingTransaction(address string) *tx.Transaction {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	for _, transaction := range p.pool {
		if transaction.Input.Address == address {
			return transaction
		}
	}
	return nil
}

// Prioritized returns up to limit pending transactions ordered by fee per
// byte, highest first. A non-positive limit returns all of them.
func (p *Pool) Prioritized(limit int) []*tx.Transaction {
	transactions := p.Transactions()

	feeRate := func(transaction *tx.Transaction) float64 {
		size := transaction.Size()
		if size < 1 {
			size = 1
		}
		return float64(transaction.Input.Fee) / float64(size)
	}
	sort.SliceStable(transactions, func(i, j int) bool {
		return feeRate(transactions[i]) > feeRate(transactions[j])
	})

	if limit > 0 && len(transactions) > limit {
		transactions = transactions[:limit]
	}
	return transactions
}

// Remove deletes the transaction with the given id, if present.
func (p *Pool) Remove(id string) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	delete(p.pool, id)
}

// ClearConfirmed removes every pending transaction that appears anywhere in
// blocks. Called after the chain grows or is replaced.
func (p *Pool) ClearConfirmed(blocks []*blockchain.Block) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	before := len(p.pool)
	for _, block := range blocks {
		for _, transaction := range block.Data {
			delete(p.pool, transaction.ID)
		}
	}
	if cleared := before - len(p.pool); cleared > 0 {
		log.Debugf("Cleared %d confirmed transactions; pool size %d", cleared, len(p.pool))
	}
}

// Purge drops every pending transaction. Used as a conservative recovery
// when chain validation or sync fails, so known-bad transactions are not
// re-mined into diverging chains.
func (p *Pool) Purge() {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if len(p.pool) > 0 {
		log.Warnf("Purging %d pending transactions", len(p.pool))
	}
	p.pool = make(map[string]*tx.Transaction)
}
