// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet implements secp256k1 keypairs, address derivation, payload
// signing, and balance derivation by chain scan.
package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"

	"github.com/pythnetwork/pythd/domain/blockchain"
	"github.com/pythnetwork/pythd/domain/tx"
)

// addressLength is the number of hex characters kept from the public key
// hash when deriving an address.
const addressLength = 40

// Wallet holds a private key and derives everything else from it. A wallet
// optionally references a chain so it can report its spendable balance.
type Wallet struct {
	privateKey *secp256k1.PrivateKey
	publicKey  string
	address    string
	chain      *blockchain.Blockchain
}

// New generates a wallet with a fresh random keypair.
func New(chain *blockchain.Blockchain) (*Wallet, error) {
	privateKey, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "couldn't generate private key")
	}
	return fromKey(privateKey, chain), nil
}

func fromKey(privateKey *secp256k1.PrivateKey, chain *blockchain.Blockchain) *Wallet {
	publicKey := hex.EncodeToString(privateKey.PubKey().SerializeUncompressed())
	return &Wallet{
		privateKey: privateKey,
		publicKey:  publicKey,
		address:    DeriveAddress(publicKey),
		chain:      chain,
	}
}

// DeriveAddress derives a chain address from an uncompressed hex public key:
// the first 40 hex characters of its SHA-256 digest.
func DeriveAddress(publicKeyHex string) string {
	publicKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		// Only locally produced keys reach here.
		panic(err)
	}
	digest := sha256.Sum256(publicKeyBytes)
	return hex.EncodeToString(digest[:])[:addressLength]
}

// Address returns the wallet's chain address.
func (w *Wallet) Address() string {
	return w.address
}

// PublicKeyHex returns the hex encoding of the wallet's uncompressed public
// key point.
func (w *Wallet) PublicKeyHex() string {
	return w.publicKey
}

// Sign signs the canonical JSON encoding of payload and returns the (r, s)
// pair.
func (w *Wallet) Sign(payload interface{}) (*tx.Signature, error) {
	digest, err := tx.SigningDigest(payload)
	if err != nil {
		return nil, err
	}
	signature := ecdsa.Sign(w.privateKey, digest)

	r := signature.R()
	s := signature.S()
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	return tx.NewSignature(
		new(big.Int).SetBytes(rBytes[:]),
		new(big.Int).SetBytes(sBytes[:]),
	), nil
}

// Balance returns the wallet's balance at the tip of its chain. A wallet
// without a chain has no balance.
func (w *Wallet) Balance() int64 {
	if w.chain == nil {
		return 0
	}
	return w.chain.BalanceOf(w.address)
}
