// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import "fmt"

// ErrorCode identifies a kind of mempool admission failure.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrInsufficientFunds indicates the aggregate pending spend of a
	// sender, including the new transaction, exceeds the sender's on-chain
	// balance.
	ErrInsufficientFunds ErrorCode = iota
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrInsufficientFunds: "ErrInsufficientFunds",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a mempool admission failure. Transaction-level rule
// violations surface as tx.RuleError instead; callers distinguish the two
// with errors.As.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
