// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "fmt"

// ErrorCode identifies a kind of block or chain rule violation.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrBadLastHash indicates a block does not reference the hash of its
	// parent.
	ErrBadLastHash ErrorCode = iota

	// ErrInsufficientProofOfWork indicates a block hash does not begin
	// with the number of zero bits its difficulty claims.
	ErrInsufficientProofOfWork

	// ErrUnexpectedDifficulty indicates a block's difficulty moved by more
	// than one relative to its parent.
	ErrUnexpectedDifficulty

	// ErrBadHash indicates a block hash does not equal the hash recomputed
	// from its canonical fields.
	ErrBadHash

	// ErrGenesisMismatch indicates a chain does not start with the
	// canonical genesis block.
	ErrGenesisMismatch

	// ErrDuplicateTransaction indicates a transaction id appears more than
	// once across a chain.
	ErrDuplicateTransaction

	// ErrMissingReward indicates a non-genesis block with no mining reward
	// transaction.
	ErrMissingReward

	// ErrMultipleRewards indicates a block with more than one mining
	// reward transaction.
	ErrMultipleRewards

	// ErrBadRewardTotal indicates a block whose reward output total does
	// not equal the block reward plus the fees collected in that block.
	ErrBadRewardTotal

	// ErrBadInputAmount indicates a transfer spending more than the
	// sender's balance at that point in the chain.
	ErrBadInputAmount

	// ErrBadTransaction wraps a per-transaction validation failure found
	// during chain validation.
	ErrBadTransaction

	// ErrChainShorter indicates a replacement attempt with a chain shorter
	// than the local one.
	ErrChainShorter

	// ErrChainNoMoreWork indicates a replacement attempt with an
	// equal-length chain that does not carry strictly more work.
	ErrChainNoMoreWork

	// ErrInvalidChain names a replacement candidate that failed full chain
	// validation. ReplaceChain does not return this code: it wraps the
	// underlying RuleError, whose code and TxID identify the failure.
	ErrInvalidChain
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrBadLastHash:             "ErrBadLastHash",
	ErrInsufficientProofOfWork: "ErrInsufficientProofOfWork",
	ErrUnexpectedDifficulty:    "ErrUnexpectedDifficulty",
	ErrBadHash:                 "ErrBadHash",
	ErrGenesisMismatch:         "ErrGenesisMismatch",
	ErrDuplicateTransaction:    "ErrDuplicateTransaction",
	ErrMissingReward:           "ErrMissingReward",
	ErrMultipleRewards:         "ErrMultipleRewards",
	ErrBadRewardTotal:          "ErrBadRewardTotal",
	ErrBadInputAmount:          "ErrBadInputAmount",
	ErrBadTransaction:          "ErrBadTransaction",
	ErrChainShorter:            "ErrChainShorter",
	ErrChainNoMoreWork:         "ErrChainNoMoreWork",
	ErrInvalidChain:            "ErrInvalidChain",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a block or chain rule violation. When the violation
// concerns a specific transaction, TxID carries its id so callers can evict
// it from their mempools without scraping the message text.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
	TxID        string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// txRuleError creates a RuleError that references a specific transaction.
func txRuleError(c ErrorCode, desc, txID string) RuleError {
	return RuleError{ErrorCode: c, Description: desc, TxID: txID}
}
