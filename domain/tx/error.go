// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import "fmt"

// ErrorCode identifies a kind of transaction rule violation.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrNonPositiveAmount indicates a transfer or update was attempted
	// with a zero or negative amount.
	ErrNonPositiveAmount ErrorCode = iota

	// ErrAmountExceedsBalance indicates the sender cannot cover the
	// requested amount, or the amount plus the computed fee.
	ErrAmountExceedsBalance

	// ErrNegativeFee indicates a transaction carries a negative fee.
	ErrNegativeFee

	// ErrFeeBelowMinimum indicates a transaction's fee is below the
	// uncongested minimum relay fee for its output set.
	ErrFeeBelowMinimum

	// ErrBadOutputTotal indicates the input amount does not equal the sum
	// of the output values plus the fee.
	ErrBadOutputTotal

	// ErrBadSignature indicates the signature does not verify the output
	// map under the input public key.
	ErrBadSignature

	// ErrBadPublicKey indicates the input public key is not a valid hex
	// encoded secp256k1 point.
	ErrBadPublicKey

	// ErrBadRewardOutput indicates a reward transaction with an empty
	// output set or a non-positive output value.
	ErrBadRewardOutput
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrNonPositiveAmount:    "ErrNonPositiveAmount",
	ErrAmountExceedsBalance: "ErrAmountExceedsBalance",
	ErrNegativeFee:          "ErrNegativeFee",
	ErrFeeBelowMinimum:      "ErrFeeBelowMinimum",
	ErrBadOutputTotal:       "ErrBadOutputTotal",
	ErrBadSignature:         "ErrBadSignature",
	ErrBadPublicKey:         "ErrBadPublicKey",
	ErrBadRewardOutput:      "ErrBadRewardOutput",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation. It is used to indicate that
// processing of a transaction failed due to one of the many validation
// rules. The caller can use type assertions or errors.As to access the
// ErrorCode field to ascertain the specific reason for the failure.
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
