// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package tx implements value-transfer, reward, and genesis transactions:
// their construction, signing, dynamic fees, serialization, and stateless
// validation.
package tx

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/util"
)

// genesisInputType tags the input of the genesis allocation transaction.
const genesisInputType = "GENESIS"

// Output maps recipient addresses to amounts in smallest units. The sender's
// change is an ordinary entry keyed by the sender's own address.
type Output map[string]int64

// Total returns the sum of all output values.
func (o Output) Total() int64 {
	var total int64
	for _, value := range o {
		total += value
	}
	return total
}

// Input describes where the value of a transaction comes from and carries
// the authorization for spending it. Reward inputs hold only the sentinel
// address; genesis inputs additionally embed the chain's monetary policy.
type Input struct {
	Timestamp int64      `json:"timestamp,omitempty"`
	Amount    int64      `json:"amount,omitempty"`
	Address   string     `json:"address"`
	PublicKey string     `json:"public_key,omitempty"`
	Signature *Signature `json:"signature,omitempty"`
	Fee       int64      `json:"fee,omitempty"`
	Type      string     `json:"type,omitempty"`

	// Genesis-only fields.
	Note            string `json:"note,omitempty"`
	SupplyModel     string `json:"supply_model,omitempty"`
	StartReward     int64  `json:"start_reward,omitempty"`
	HalvingInterval int64  `json:"halving_interval,omitempty"`
}

// Kind is the variant tag of a transaction, derived from its encoded form so
// transactions arriving off the wire classify themselves.
type Kind int

// The transaction variants.
const (
	KindTransfer Kind = iota
	KindReward
	KindGenesis
)

// String returns the Kind as a human-readable name.
func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindReward:
		return "reward"
	case KindGenesis:
		return "genesis"
	}
	return fmt.Sprintf("Unknown Kind (%d)", int(k))
}

// Transaction is a signed transfer of value, a mining reward, or the genesis
// allocation.
type Transaction struct {
	ID     string `json:"id"`
	Input  Input  `json:"input"`
	Output Output `json:"output"`
}

// Signer produces signatures on behalf of an address. Wallets implement it;
// the transaction package deliberately does not know about key storage.
type Signer interface {
	// Address returns the signer's chain address.
	Address() string

	// PublicKeyHex returns the hex encoding of the signer's uncompressed
	// public key point.
	PublicKeyHex() string

	// Sign signs the canonical JSON encoding of payload.
	Sign(payload interface{}) (*Signature, error)

	// Balance returns the signer's spendable on-chain balance.
	Balance() int64
}

// NewID returns a fresh 8-character hex transaction id.
func NewID() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// The platform CSPRNG is unavailable; nothing sensible to do.
		panic(err)
	}
	return hex.EncodeToString(buf[:])
}

// NewTransaction builds and signs a transfer from sender to recipient. The
// fee is computed from the provisional output set and current mempool
// congestion, and the change output is reduced to cover it, so the input
// amount always equals outputs plus fee.
func NewTransaction(sender Signer, recipient string, amount int64,
	mempoolSize int, params *chainparams.Params) (*Transaction, error) {

	if amount <= 0 {
		return nil, ruleError(ErrNonPositiveAmount, "amount must be positive")
	}

	balance := sender.Balance()
	if amount > balance {
		return nil, ruleError(ErrAmountExceedsBalance, "amount exceeds balance")
	}

	provisionalOutput := Output{
		recipient:        amount,
		sender.Address(): balance - amount,
	}
	fee := ComputeFee(provisionalOutput, mempoolSize, params)
	if amount+fee > balance {
		return nil, ruleError(ErrAmountExceedsBalance, "amount plus fee exceeds balance")
	}

	output := Output{
		recipient:        amount,
		sender.Address(): balance - amount - fee,
	}

	input, err := newSignedInput(sender, output, fee)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		ID:     NewID(),
		Input:  input,
		Output: output,
	}, nil
}

// NewRewardTransaction builds a mining reward paying the given outputs. The
// output set typically holds the miner's take and the foundation cut.
func NewRewardTransaction(output Output) *Transaction {
	return &Transaction{
		ID:     NewID(),
		Input:  RewardInput(),
		Output: output,
	}
}

// RewardInput returns the sentinel input that marks reward transactions.
func RewardInput() Input {
	return Input{Address: chainparams.MiningRewardAddress}
}

// Update adds amount for recipient to an existing unconfirmed transfer,
// drawing from the sender's change. The fee is recomputed for the grown
// output set and the transaction is re-signed.
func (t *Transaction) Update(sender Signer, recipient string, amount int64,
	mempoolSize int, params *chainparams.Params) error {

	if amount <= 0 {
		return ruleError(ErrNonPositiveAmount, "amount must be positive")
	}

	currentChange := t.Output[sender.Address()]
	if amount > currentChange {
		return ruleError(ErrAmountExceedsBalance, "amount exceeds balance")
	}

	updatedOutput := make(Output, len(t.Output)+1)
	for address, value := range t.Output {
		updatedOutput[address] = value
	}
	updatedOutput[recipient] += amount
	updatedOutput[sender.Address()] = currentChange - amount

	fee := ComputeFee(updatedOutput, mempoolSize, params)
	if fee > updatedOutput[sender.Address()] {
		return ruleError(ErrAmountExceedsBalance, "amount exceeds balance after fee")
	}
	updatedOutput[sender.Address()] -= fee

	input, err := newSignedInput(sender, updatedOutput, fee)
	if err != nil {
		return err
	}

	t.Output = updatedOutput
	t.Input = input
	return nil
}

func newSignedInput(sender Signer, output Output, fee int64) (Input, error) {
	signature, err := sender.Sign(output)
	if err != nil {
		return Input{}, errors.Wrap(err, "couldn't sign transaction output")
	}
	return Input{
		Timestamp: time.Now().UnixNano(),
		Amount:    output.Total() + fee,
		Address:   sender.Address(),
		PublicKey: sender.PublicKeyHex(),
		Signature: signature,
		Fee:       fee,
	}, nil
}

// Kind classifies the transaction from its encoded form.
func (t *Transaction) Kind() Kind {
	if t.Input.Type == genesisInputType {
		return KindGenesis
	}
	if t.Input.Address == chainparams.MiningRewardAddress && t.Input.PublicKey == "" {
		return KindReward
	}
	return KindTransfer
}

// Fee returns the fee carried by the transaction input.
func (t *Transaction) Fee() int64 {
	return t.Input.Fee
}

// Size returns the canonical serialized size of the transaction in bytes.
// Fee-per-byte prioritization in the mempool divides by this.
func (t *Transaction) Size() int {
	encoded, err := util.CanonicalJSON(t)
	if err != nil {
		panic(err)
	}
	return len(encoded)
}

// ToJSON serializes the transaction to its wire form.
func (t *Transaction) ToJSON() ([]byte, error) {
	encoded, err := json.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't marshal transaction")
	}
	return encoded, nil
}

// FromJSON deserializes a transaction from its wire form.
func FromJSON(data []byte) (*Transaction, error) {
	var transaction Transaction
	if err := json.Unmarshal(data, &transaction); err != nil {
		return nil, errors.Wrap(err, "couldn't unmarshal transaction")
	}
	return &transaction, nil
}

// Validate performs the stateless checks on a single transaction. Chain
// context rules, such as balance coverage and reward totals, live in the
// blockchain package.
func Validate(t *Transaction, params *chainparams.Params) error {
	switch t.Kind() {
	case KindGenesis:
		// The genesis allocation is fixed by the genesis block equality
		// check and is exempt from transaction rules.
		return nil

	case KindReward:
		if len(t.Output) == 0 {
			return ruleError(ErrBadRewardOutput, "invalid mining reward: empty output")
		}
		for address, value := range t.Output {
			if value <= 0 {
				return ruleError(ErrBadRewardOutput, fmt.Sprintf(
					"invalid mining reward: non-positive output %d to %s", value, address))
			}
		}
		return nil
	}

	fee := t.Input.Fee
	if fee < 0 {
		return ruleError(ErrNegativeFee, "invalid fee")
	}

	// Enforce the uncongested minimum relay fee. Congestion scaling applies
	// at relay time only, so a transaction mined from a quiet mempool stays
	// valid on every node.
	if minFee := ComputeFee(t.Output, 0, params); fee < minFee {
		return ruleError(ErrFeeBelowMinimum, fmt.Sprintf(
			"fee %d below minimum relay fee %d", fee, minFee))
	}

	if t.Input.Amount != t.Output.Total()+fee {
		return ruleError(ErrBadOutputTotal, "invalid transaction output values")
	}

	if _, err := hex.DecodeString(t.Input.PublicKey); err != nil {
		return ruleError(ErrBadPublicKey, "invalid public key encoding")
	}

	if !VerifySignature(t.Input.PublicKey, t.Output, t.Input.Signature) {
		return ruleError(ErrBadSignature, "invalid signature")
	}
	return nil
}

// NewGenesisInput builds the policy-carrying input of a genesis allocation.
func NewGenesisInput(params *chainparams.Params) Input {
	return Input{
		Timestamp:       0,
		Amount:          params.InitialSupply,
		Address:         "genesis",
		PublicKey:       "genesis",
		Signature:       NewSignature(bigZero(), bigZero()),
		Type:            genesisInputType,
		Note:            params.GenesisMessage,
		SupplyModel:     string(params.SupplyModel),
		StartReward:     params.StartingReward,
		HalvingInterval: params.HalvingInterval,
	}
}
