// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"github.com/pythnetwork/pythd/domain/blockchain"
	"github.com/pythnetwork/pythd/domain/tx"
)

// Message types used on the peer-to-peer wire. Every frame is a JSON object
// carrying a "type" field plus the payload fields of its message struct.
const (
	TypeHello        = "HELLO"
	TypePeers        = "PEERS"
	TypeRequestChain = "REQUEST_CHAIN"
	TypeChainSegment = "CHAIN_SEGMENT"
	TypeBlock        = "BLOCK"
	TypeTransaction  = "TRANSACTION"
	TypePing         = "PING"
	TypePong         = "PONG"
)

// msgEnvelope peeks at the type of an incoming frame before the full
// payload is decoded.
type msgEnvelope struct {
	Type string `json:"type"`
}

// msgHello identifies a node and advertises its chain tip so both sides can
// decide whether to sync.
type msgHello struct {
	Type     string   `json:"type"`
	Address  string   `json:"address"`
	Height   int64    `json:"height"`
	LastHash string   `json:"last_hash"`
	Work     *big.Int `json:"work"`
}

// msgPeers gossips known peer addresses.
type msgPeers struct {
	Type  string   `json:"type"`
	Peers []string `json:"peers"`
}

// msgRequestChain asks for the blocks from index start to the tip.
type msgRequestChain struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
}

// msgChainSegment replies with a contiguous run of blocks beginning at
// index start.
type msgChainSegment struct {
	Type   string              `json:"type"`
	Start  int                 `json:"start"`
	Blocks []*blockchain.Block `json:"blocks"`
}

// msgBlock announces a freshly mined tip.
type msgBlock struct {
	Type  string            `json:"type"`
	Block *blockchain.Block `json:"block"`
}

// msgTransaction announces a pending transaction.
type msgTransaction struct {
	Type        string          `json:"type"`
	Transaction *tx.Transaction `json:"transaction"`
}

// msgPing and msgPong carry no payload.
type msgPing struct {
	Type string `json:"type"`
}

type msgPong struct {
	Type string `json:"type"`
}

// decodeEnvelope extracts the message type from a raw frame.
func decodeEnvelope(raw []byte) (string, error) {
	var envelope msgEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", errors.Wrap(err, "unparseable frame")
	}
	return envelope.Type, nil
}
