// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// peer is one live websocket connection. Writes are serialized by sendMtx
// because the websocket package allows only one concurrent writer.
type peer struct {
	conn     *websocket.Conn
	outbound bool

	// dialAddress is the address this node dialed, empty for inbound
	// connections. Reconnects go back to it.
	dialAddress string

	// advertisedAddress is the listen address the remote announced in its
	// HELLO. It is the preferred identity for duplicate detection.
	advertisedAddress string

	sendMtx sync.Mutex
}

func newPeer(conn *websocket.Conn, outbound bool, dialAddress string) *peer {
	return &peer{
		conn:        conn,
		outbound:    outbound,
		dialAddress: dialAddress,
	}
}

// send writes a JSON frame to the peer.
func (p *peer) send(message interface{}) error {
	p.sendMtx.Lock()
	defer p.sendMtx.Unlock()
	return p.conn.WriteJSON(message)
}

// remoteAddress returns the socket-level address of the connection.
func (p *peer) remoteAddress() string {
	return p.conn.RemoteAddr().String()
}

// identity returns the best known stable address for the peer: the
// HELLO-advertised address once seen, the socket address before that.
func (p *peer) identity() string {
	if p.advertisedAddress != "" {
		return p.advertisedAddress
	}
	if p.dialAddress != "" {
		return p.dialAddress
	}
	return p.remoteAddress()
}

func (p *peer) close() {
	p.conn.Close()
}

// isValidPeerAddress rejects malformed and wildcard host:port addresses so
// nothing ever dials garbage or 0.0.0.0.
func isValidPeerAddress(address string) bool {
	host, portString, err := net.SplitHostPort(address)
	if err != nil {
		return false
	}
	if strings.TrimSpace(host) == "" || host == "0.0.0.0" {
		return false
	}
	if _, err := strconv.Atoi(portString); err != nil {
		return false
	}
	return true
}

// localHosts are host names that may refer to this machine.
var localHosts = map[string]struct{}{
	"0.0.0.0":   {},
	"127.0.0.1": {},
	"localhost": {},
}

// isSelfAddress reports whether address points back at a node listening on
// selfHost:selfPort, accounting for the interchangeable local host names.
func isSelfAddress(address, selfHost string, selfPort int) bool {
	host, portString, err := net.SplitHostPort(address)
	if err != nil {
		return false
	}
	port, err := strconv.Atoi(portString)
	if err != nil {
		return false
	}
	if port != selfPort {
		return false
	}

	normalizedHost := strings.ToLower(strings.TrimSpace(host))
	normalizedSelf := strings.ToLower(strings.TrimSpace(selfHost))
	if normalizedHost == normalizedSelf {
		return true
	}
	_, hostIsLocal := localHosts[normalizedHost]
	_, selfIsLocal := localHosts[normalizedSelf]
	return hostIsLocal && selfIsLocal
}
