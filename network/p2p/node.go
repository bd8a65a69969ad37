// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package p2p implements the peer-to-peer overlay: a WebSocket listener and
// dialer exchanging JSON frames, a peer registry with gossip-driven
// discovery, chain synchronization with fork choice, reconnect with
// exponential backoff and quarantine, and a sync-state observer registry
// that gates mining.
package p2p

import (
	"encoding/json"
	"errors"
	"math/big"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pythnetwork/pythd/domain/blockchain"
	"github.com/pythnetwork/pythd/domain/mempool"
	"github.com/pythnetwork/pythd/domain/tx"
)

const (
	// maxConnectFailures is how many consecutive failed dials an address is
	// allowed before it is quarantined.
	maxConnectFailures = 6

	// maxReconnectDelay caps the exponential reconnect backoff.
	maxReconnectDelay = 30 * time.Second

	// fullSyncMinInterval rate-limits full-chain sync requests triggered by
	// validation failures.
	fullSyncMinInterval = 5 * time.Second

	defaultSyncInterval = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	// Peers are other nodes, not browsers; the origin header is noise.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Config holds the pieces a Node needs.
type Config struct {
	Host string
	Port int

	Chain *blockchain.Blockchain
	Pool  *mempool.Pool

	// Seeds are the addresses dialed at startup.
	Seeds []string

	// SyncInterval is how often a random peer is asked for missing blocks.
	SyncInterval time.Duration
}

// Node is one participant in the overlay. All exported methods are safe for
// concurrent use.
type Node struct {
	cfg         Config
	selfAddress string
	seeds       []string

	listener net.Listener
	server   *http.Server

	peerMtx        sync.Mutex
	peers          map[*peer]struct{}
	peerAddresses  map[string]struct{}
	connecting     map[string]struct{}
	failedAttempts map[string]int

	syncMtx             sync.Mutex
	synced              bool
	lastFullSyncRequest time.Time
	syncedCallbacks     []func()
	syncChangeCallbacks []func(bool)

	quit              chan struct{}
	started, shutdown int32
}

// New returns a node ready to Start. Seed addresses that are invalid or
// point back at this node are discarded up front.
func New(cfg Config) *Node {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaultSyncInterval
	}

	n := &Node{
		cfg:            cfg,
		selfAddress:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		peers:          make(map[*peer]struct{}),
		peerAddresses:  make(map[string]struct{}),
		connecting:     make(map[string]struct{}),
		failedAttempts: make(map[string]int),
		quit:           make(chan struct{}),
	}

	for _, seed := range cfg.Seeds {
		if isValidPeerAddress(seed) && !n.isSelf(seed) {
			n.seeds = append(n.seeds, seed)
			n.peerAddresses[seed] = struct{}{}
		}
	}

	// A node with nothing to sync from is synced by definition.
	n.synced = len(n.seeds) == 0
	return n
}

// SelfAddress returns the host:port this node advertises.
func (n *Node) SelfAddress() string {
	return n.selfAddress
}

func (n *Node) isSelf(address string) bool {
	return address == n.selfAddress || isSelfAddress(address, n.cfg.Host, n.cfg.Port)
}

// Start begins listening, dials the seeds, and launches the periodic sync
// loop.
func (n *Node) Start() error {
	if atomic.AddInt32(&n.started, 1) != 1 {
		return nil
	}

	listener, err := net.Listen("tcp", n.selfAddress)
	if err != nil {
		return err
	}
	n.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", n.handleInbound)
	n.server = &http.Server{Handler: mux}

	spawn(func() {
		if err := n.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Errorf("P2P listener stopped: %s", err)
		}
	})
	log.Infof("Listening on ws://%s seeds=%v", n.selfAddress, n.seeds)

	for _, seed := range n.seeds {
		seed := seed
		spawn(func() { n.ensureOutboundConnection(seed) })
	}
	spawn(n.periodicSync)
	return nil
}

// Stop closes the listener and every peer connection.
func (n *Node) Stop() {
	if atomic.AddInt32(&n.shutdown, 1) != 1 {
		return
	}
	close(n.quit)
	if n.server != nil {
		n.server.Close()
	}

	n.peerMtx.Lock()
	for p := range n.peers {
		p.close()
	}
	n.peers = make(map[*peer]struct{})
	n.peerMtx.Unlock()
}

func (n *Node) stopping() bool {
	select {
	case <-n.quit:
		return true
	default:
		return false
	}
}

// handleInbound upgrades an HTTP request to a websocket and serves it for
// the lifetime of the connection.
func (n *Node) handleInbound(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("Rejected inbound connection from %s: %s", r.RemoteAddr, err)
		return
	}

	p := newPeer(conn, false, "")
	if !n.registerPeer(p) {
		conn.Close()
		return
	}
	n.sendHello(p)
	n.readLoop(p)
}

// registerPeer adds a connection to the peer set. A second connection from
// the same socket address is refused in favor of the existing one; the
// stronger advertised-address check happens when the HELLO arrives.
func (n *Node) registerPeer(p *peer) bool {
	n.peerMtx.Lock()
	defer n.peerMtx.Unlock()

	remote := p.remoteAddress()
	for existing := range n.peers {
		if existing.remoteAddress() == remote {
			log.Debugf("Dropping duplicate connection from %s", remote)
			return false
		}
	}
	n.peers[p] = struct{}{}
	log.Infof("Connected peer %s (%s)", p.identity(), directionString(p.outbound))
	return true
}

func directionString(outbound bool) string {
	if outbound {
		return "outbound"
	}
	return "inbound"
}

// unregisterPeer removes a connection from the peer set. Losing the last
// peer on a seeded node means the chain can no longer be trusted as current.
func (n *Node) unregisterPeer(p *peer) {
	n.peerMtx.Lock()
	_, present := n.peers[p]
	delete(n.peers, p)
	lastPeerGone := len(n.peers) == 0 && len(n.seeds) > 0
	n.peerMtx.Unlock()

	if !present {
		return
	}
	log.Warnf("Peer disconnected %s", p.identity())
	if lastPeerGone {
		n.setSynced(false)
	}
}

// readLoop processes frames from a peer in arrival order until the
// connection drops, then schedules a reconnect for outbound peers.
func (n *Node) readLoop(p *peer) {
	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			break
		}
		n.handleMessage(p, raw)
	}

	p.close()
	n.unregisterPeer(p)

	if p.outbound && p.dialAddress != "" && !n.stopping() {
		log.Warnf("Lost outbound peer %s; scheduling reconnect", p.dialAddress)
		address := p.dialAddress
		spawn(func() { n.ensureOutboundConnection(address) })
	}
}

// ensureOutboundConnection dials an address unless it is invalid, already
// connected, already being dialed, or quarantined. Failures back off
// exponentially and give up after maxConnectFailures in a row.
func (n *Node) ensureOutboundConnection(address string) {
	if n.stopping() || n.isSelf(address) || !isValidPeerAddress(address) {
		return
	}

	n.peerMtx.Lock()
	if _, dialing := n.connecting[address]; dialing {
		n.peerMtx.Unlock()
		return
	}
	if n.hasPeerLocked(address) {
		n.peerMtx.Unlock()
		return
	}
	failures := n.failedAttempts[address]
	if failures >= maxConnectFailures {
		n.peerMtx.Unlock()
		log.Warnf("Giving up on %s after %d failures", address, failures)
		return
	}
	n.connecting[address] = struct{}{}
	n.peerMtx.Unlock()

	defer func() {
		n.peerMtx.Lock()
		delete(n.connecting, address)
		n.peerMtx.Unlock()
	}()

	log.Debugf("Dialing peer %s", address)
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+address, nil)
	if err != nil {
		n.peerMtx.Lock()
		failures = n.failedAttempts[address] + 1
		n.failedAttempts[address] = failures
		n.peerMtx.Unlock()

		delay := reconnectDelay(failures)
		log.Warnf("Failed to connect %s (%s); retrying in %s (attempt %d)",
			address, err, delay, failures)
		spawnAfter(delay, func() { n.ensureOutboundConnection(address) })
		return
	}

	p := newPeer(conn, true, address)
	if !n.registerPeer(p) {
		conn.Close()
		return
	}

	n.peerMtx.Lock()
	n.failedAttempts[address] = 0
	n.peerAddresses[address] = struct{}{}
	n.peerMtx.Unlock()

	n.sendHello(p)
	spawn(func() { n.readLoop(p) })
}

// reconnectDelay returns min(30s, 2^min(failures, 5) seconds).
func reconnectDelay(failures int) time.Duration {
	exponent := failures
	if exponent > 5 {
		exponent = 5
	}
	delay := time.Duration(1<<uint(exponent)) * time.Second
	if delay > maxReconnectDelay {
		delay = maxReconnectDelay
	}
	return delay
}

// hasPeerLocked reports whether a live peer already answers to address.
// Callers must hold peerMtx.
func (n *Node) hasPeerLocked(address string) bool {
	for p := range n.peers {
		if p.identity() == address || p.dialAddress == address {
			return true
		}
	}
	return false
}

// safeSend writes a frame to a peer and drops the connection on failure.
// Only the failing peer is affected; broadcasts carry on.
func (n *Node) safeSend(p *peer, message interface{}) {
	if err := p.send(message); err != nil {
		log.Errorf("Failed to send to %s; dropping connection: %s", p.identity(), err)
		p.close()
		n.unregisterPeer(p)
	}
}

func (n *Node) sendHello(p *peer) {
	n.safeSend(p, msgHello{
		Type:     TypeHello,
		Address:  n.selfAddress,
		Height:   n.cfg.Chain.Height(),
		LastHash: n.cfg.Chain.Tip().Hash,
		Work:     n.cfg.Chain.TotalWork(),
	})
}

func (n *Node) sendPeers(p *peer) {
	n.peerMtx.Lock()
	addresses := make([]string, 0, len(n.peerAddresses))
	for address := range n.peerAddresses {
		addresses = append(addresses, address)
	}
	n.peerMtx.Unlock()

	n.safeSend(p, msgPeers{Type: TypePeers, Peers: addresses})
}

func (n *Node) requestChain(p *peer, start int) {
	n.safeSend(p, msgRequestChain{Type: TypeRequestChain, Start: start})
}

// handleMessage dispatches one frame. Unparseable frames are dropped
// without affecting the connection.
func (n *Node) handleMessage(p *peer, raw []byte) {
	msgType, err := decodeEnvelope(raw)
	if err != nil {
		log.Debugf("Dropping unparseable frame from %s: %s", p.identity(), err)
		return
	}

	switch msgType {
	case TypeHello:
		var msg msgHello
		if json.Unmarshal(raw, &msg) != nil {
			return
		}
		n.handleHello(p, &msg)

	case TypePeers:
		var msg msgPeers
		if json.Unmarshal(raw, &msg) != nil {
			return
		}
		n.handlePeers(&msg)

	case TypeRequestChain:
		var msg msgRequestChain
		if json.Unmarshal(raw, &msg) != nil {
			return
		}
		n.handleRequestChain(p, msg.Start)

	case TypeChainSegment:
		var msg msgChainSegment
		if json.Unmarshal(raw, &msg) != nil {
			return
		}
		n.handleChainSegment(&msg)

	case TypeBlock:
		var msg msgBlock
		if json.Unmarshal(raw, &msg) != nil || msg.Block == nil {
			return
		}
		n.handleBlock(p, msg.Block)

	case TypeTransaction:
		var msg msgTransaction
		if json.Unmarshal(raw, &msg) != nil || msg.Transaction == nil {
			return
		}
		if err := n.cfg.Pool.Add(msg.Transaction); err != nil {
			log.Warnf("Rejected incoming transaction: %s", err)
			return
		}
		log.Debugf("Received transaction %s from peer", msg.Transaction.ID)

	case TypePing:
		n.safeSend(p, msgPong{Type: TypePong})

	case TypePong:
		// Liveness acknowledged; nothing to do.

	default:
		log.Debugf("Ignoring unknown message type %q from %s", msgType, p.identity())
	}
}

func (n *Node) handleHello(p *peer, msg *msgHello) {
	if msg.Address != "" && isValidPeerAddress(msg.Address) && !n.isSelf(msg.Address) {
		n.peerMtx.Lock()
		duplicate := false
		for other := range n.peers {
			if other != p && other.identity() == msg.Address {
				duplicate = true
				break
			}
		}
		if !duplicate {
			p.advertisedAddress = msg.Address
			n.peerAddresses[msg.Address] = struct{}{}
		}
		n.peerMtx.Unlock()

		if duplicate {
			log.Debugf("Closing duplicate connection advertising %s", msg.Address)
			p.close()
			n.unregisterPeer(p)
			return
		}
		log.Debugf("HELLO from %s height=%d", msg.Address, msg.Height)
	}

	localHeight := n.cfg.Chain.Height()
	localWork := n.cfg.Chain.TotalWork()
	remoteWork := msg.Work
	if remoteWork == nil {
		remoteWork = new(big.Int)
	}

	if msg.Height > localHeight ||
		(msg.Height == localHeight && remoteWork.Cmp(localWork) > 0) {
		log.Infof("Remote chain ahead (height=%d work=%s), local (height=%d work=%s); requesting full sync",
			msg.Height, remoteWork, localHeight, localWork)
		n.requestChain(p, 0)
	} else if msg.Height == localHeight && msg.LastHash == n.cfg.Chain.Tip().Hash {
		n.setSynced(true)
	}

	n.sendPeers(p)
}

func (n *Node) handlePeers(msg *msgPeers) {
	for _, address := range msg.Peers {
		if address == n.selfAddress || n.isSelf(address) || !isValidPeerAddress(address) {
			continue
		}
		n.peerMtx.Lock()
		n.peerAddresses[address] = struct{}{}
		n.peerMtx.Unlock()

		address := address
		spawn(func() { n.ensureOutboundConnection(address) })
	}
}

func (n *Node) handleRequestChain(p *peer, start int) {
	blocks := n.cfg.Chain.Blocks()
	if start < 0 || start > len(blocks) {
		start = 0
	}
	log.Debugf("Peer %s requested chain from height %d", p.identity(), start)
	n.safeSend(p, msgChainSegment{
		Type:   TypeChainSegment,
		Start:  start,
		Blocks: blocks[start:],
	})
}

func (n *Node) handleChainSegment(msg *msgChainSegment) {
	n.tryReplaceChain(msg.Start, msg.Blocks)

	// An empty segment starting exactly at our height means the peer has
	// nothing we lack.
	if msg.Start == n.cfg.Chain.Len() && len(msg.Blocks) == 0 {
		n.setSynced(true)
	}
}

// tryReplaceChain splices a received segment onto the local prefix and runs
// fork choice. Segments that cannot win are ignored without penalty; a
// losing segment whose tip matches ours still proves we are current.
func (n *Node) tryReplaceChain(start int, blocks []*blockchain.Block) {
	local := n.cfg.Chain.Blocks()
	if start < 0 || start > len(local) {
		return
	}

	candidate := make([]*blockchain.Block, 0, start+len(blocks))
	candidate = append(candidate, local[:start]...)
	candidate = append(candidate, blocks...)

	if len(candidate) < len(local) {
		return
	}
	if len(candidate) == len(local) {
		incomingWork := blockchain.TotalWork(candidate)
		localWork := blockchain.TotalWork(local)
		if incomingWork.Cmp(localWork) <= 0 {
			if len(candidate) > 0 && candidate[len(candidate)-1].Hash == local[len(local)-1].Hash {
				n.setSynced(true)
			}
			return
		}
	}

	if err := n.cfg.Chain.ReplaceChain(candidate); err != nil {
		log.Warnf("Failed to replace chain from %d: %s", start, err)
		n.recordInvalid(nil, err)
		return
	}
	n.cfg.Pool.ClearConfirmed(n.cfg.Chain.Blocks())
	log.Infof("Replaced chain from height %d; new height %d", start, n.cfg.Chain.Height())
	n.setSynced(true)
}

func (n *Node) handleBlock(p *peer, block *blockchain.Block) {
	local := n.cfg.Chain.Blocks()
	candidate := make([]*blockchain.Block, 0, len(local)+1)
	candidate = append(candidate, local...)
	candidate = append(candidate, block)

	if err := n.cfg.Chain.ReplaceChain(candidate); err != nil {
		n.recordInvalid(p, err)
		return
	}
	n.cfg.Pool.ClearConfirmed(n.cfg.Chain.Blocks())
	log.Infof("Added new block height=%d hash=%s", n.cfg.Chain.Height(), block.Hash[:8])
	n.setSynced(true)
}

// recordInvalid is the recovery path for invalid blocks and chains from
// peers: evict the offending transaction when one is identified, purge the
// mempool so junk is not re-mined, mark the node desynced, and ask for a
// full chain, rate limited.
func (n *Node) recordInvalid(p *peer, cause error) {
	if p != nil {
		log.Warnf("Invalid data from %s: %s", p.identity(), cause)
	} else {
		log.Warnf("Invalid data: %s", cause)
	}

	n.maybeDropBadTransaction(cause)
	n.cfg.Pool.Purge()
	n.setSynced(false)
	n.requestFullSyncAny(p)
}

// maybeDropBadTransaction evicts the transaction a chain validation error
// points at, so the miner does not keep re-mining it.
func (n *Node) maybeDropBadTransaction(cause error) {
	var ruleErr blockchain.RuleError
	if !errors.As(cause, &ruleErr) || ruleErr.TxID == "" {
		return
	}
	if n.cfg.Pool.Get(ruleErr.TxID) == nil {
		return
	}
	n.cfg.Pool.Remove(ruleErr.TxID)
	log.Warnf("Dropped bad transaction %s from mempool after validation error", ruleErr.TxID)
}

// requestFullSyncAny asks a peer for the whole chain, preferring the peer
// that triggered the request. At most one request goes out every
// fullSyncMinInterval.
func (n *Node) requestFullSyncAny(p *peer) {
	n.syncMtx.Lock()
	now := time.Now()
	if now.Sub(n.lastFullSyncRequest) < fullSyncMinInterval {
		n.syncMtx.Unlock()
		return
	}
	n.lastFullSyncRequest = now
	n.syncMtx.Unlock()

	target := p
	if target != nil {
		n.peerMtx.Lock()
		_, stillConnected := n.peers[target]
		n.peerMtx.Unlock()
		if !stillConnected {
			target = nil
		}
	}
	if target == nil {
		target = n.randomPeer()
	}
	if target != nil {
		n.requestChain(target, 0)
	}
}

// periodicSync asks a random peer for the blocks past our tip on every
// tick.
func (n *Node) periodicSync() {
	ticker := time.NewTicker(n.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p := n.randomPeer()
			if p == nil {
				continue
			}
			log.Debugf("Sync timer triggered; requesting chain from %s", p.identity())
			n.requestChain(p, n.cfg.Chain.Len())
		case <-n.quit:
			return
		}
	}
}

func (n *Node) randomPeer() *peer {
	n.peerMtx.Lock()
	defer n.peerMtx.Unlock()

	if len(n.peers) == 0 {
		return nil
	}
	pick := rand.Intn(len(n.peers))
	for p := range n.peers {
		if pick == 0 {
			return p
		}
		pick--
	}
	return nil
}

// PeerCount returns the number of live connections.
func (n *Node) PeerCount() int {
	n.peerMtx.Lock()
	defer n.peerMtx.Unlock()
	return len(n.peers)
}

// KnownAddresses returns the gossip-learned peer addresses.
func (n *Node) KnownAddresses() []string {
	n.peerMtx.Lock()
	defer n.peerMtx.Unlock()

	addresses := make([]string, 0, len(n.peerAddresses))
	for address := range n.peerAddresses {
		addresses = append(addresses, address)
	}
	return addresses
}

// BroadcastBlock announces a freshly mined block to every peer.
func (n *Node) BroadcastBlock(block *blockchain.Block) {
	n.broadcast(msgBlock{Type: TypeBlock, Block: block})
}

// BroadcastTransaction announces a pending transaction to every peer.
func (n *Node) BroadcastTransaction(transaction *tx.Transaction) {
	n.broadcast(msgTransaction{Type: TypeTransaction, Transaction: transaction})
}

// broadcast sends a message to a snapshot of the peer set. A failing send
// drops only that peer.
func (n *Node) broadcast(message interface{}) {
	n.peerMtx.Lock()
	snapshot := make([]*peer, 0, len(n.peers))
	for p := range n.peers {
		snapshot = append(snapshot, p)
	}
	n.peerMtx.Unlock()

	for _, p := range snapshot {
		n.safeSend(p, message)
	}
}

// Synced reports whether this node believes its chain matches the best peer
// observed, or that it never had seeds to sync from.
func (n *Node) Synced() bool {
	n.syncMtx.Lock()
	defer n.syncMtx.Unlock()
	return n.synced
}

// OnSynced registers a callback fired each time the node transitions into
// the synced state.
func (n *Node) OnSynced(callback func()) {
	n.syncMtx.Lock()
	defer n.syncMtx.Unlock()
	n.syncedCallbacks = append(n.syncedCallbacks, callback)
}

// OnSyncChange registers a callback fired on every sync state transition
// with the new state.
func (n *Node) OnSyncChange(callback func(bool)) {
	n.syncMtx.Lock()
	defer n.syncMtx.Unlock()
	n.syncChangeCallbacks = append(n.syncChangeCallbacks, callback)
}

func (n *Node) setSynced(value bool) {
	n.syncMtx.Lock()
	previous := n.synced
	n.synced = value

	var changeCallbacks []func(bool)
	var edgeCallbacks []func()
	if previous != value {
		changeCallbacks = append(changeCallbacks, n.syncChangeCallbacks...)
		if value {
			edgeCallbacks = append(edgeCallbacks, n.syncedCallbacks...)
		}
	}
	n.syncMtx.Unlock()

	if previous == value {
		return
	}
	log.Infof("Sync state changed: synced=%t", value)

	for _, callback := range changeCallbacks {
		callback := callback
		invokeSyncCallback(func() { callback(value) })
	}
	for _, callback := range edgeCallbacks {
		invokeSyncCallback(callback)
	}
}

// invokeSyncCallback shields the node from observer panics; a failing
// observer must not bring down the event loop.
func invokeSyncCallback(callback func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("Sync callback failed: %v", r)
		}
	}()
	callback()
}
