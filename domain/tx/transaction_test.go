package tx_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/domain/tx"
	"github.com/pythnetwork/pythd/wallet"
)

// fundedSigner wraps a wallet with a fixed balance so transaction rules can
// be exercised without building a chain.
type fundedSigner struct {
	*wallet.Wallet
	balance int64
}

func (s *fundedSigner) Balance() int64 {
	return s.balance
}

func newFundedSigner(t *testing.T, balance int64) *fundedSigner {
	t.Helper()
	w, err := wallet.New(nil)
	require.NoError(t, err)
	return &fundedSigner{Wallet: w, balance: balance}
}

func TestNewTransaction(t *testing.T) {
	params := &chainparams.MainnetParams
	sender := newFundedSigner(t, 10*chainparams.UnitsPerCoin)

	transaction, err := tx.NewTransaction(sender, "recipient", chainparams.UnitsPerCoin, 0, params)
	require.NoError(t, err)

	require.Equal(t, tx.KindTransfer, transaction.Kind())
	require.Len(t, transaction.ID, 8)
	require.Equal(t, chainparams.UnitsPerCoin, transaction.Output["recipient"])

	fee := transaction.Input.Fee
	require.GreaterOrEqual(t, fee, params.MinAbsoluteFee)

	// The change output absorbs the fee, so debits equal credits plus fee.
	change := transaction.Output[sender.Address()]
	require.Equal(t, sender.Balance()-chainparams.UnitsPerCoin-fee, change)
	require.Equal(t, transaction.Output.Total()+fee, transaction.Input.Amount)

	require.True(t, tx.VerifySignature(
		transaction.Input.PublicKey, transaction.Output, transaction.Input.Signature))
	require.NoError(t, tx.Validate(transaction, params))
}

func TestNewTransactionRejectsBadAmounts(t *testing.T) {
	params := &chainparams.MainnetParams
	sender := newFundedSigner(t, 1000)

	_, err := tx.NewTransaction(sender, "recipient", 0, 0, params)
	requireRuleError(t, err, tx.ErrNonPositiveAmount)

	_, err = tx.NewTransaction(sender, "recipient", -5, 0, params)
	requireRuleError(t, err, tx.ErrNonPositiveAmount)

	_, err = tx.NewTransaction(sender, "recipient", 2000, 0, params)
	requireRuleError(t, err, tx.ErrAmountExceedsBalance)

	// Covers the amount but not the fee on top of it.
	_, err = tx.NewTransaction(sender, "recipient", 999, 0, params)
	requireRuleError(t, err, tx.ErrAmountExceedsBalance)
}

func TestTransactionUpdate(t *testing.T) {
	params := &chainparams.MainnetParams
	sender := newFundedSigner(t, 100*chainparams.UnitsPerCoin)

	transaction, err := tx.NewTransaction(sender, "first", chainparams.UnitsPerCoin, 0, params)
	require.NoError(t, err)

	require.NoError(t, transaction.Update(sender, "second", 2*chainparams.UnitsPerCoin, 0, params))

	require.Equal(t, chainparams.UnitsPerCoin, transaction.Output["first"])
	require.Equal(t, 2*chainparams.UnitsPerCoin, transaction.Output["second"])
	require.Equal(t, transaction.Output.Total()+transaction.Input.Fee, transaction.Input.Amount)
	require.NoError(t, tx.Validate(transaction, params))

	// Raising an existing recipient re-signs under the grown output.
	require.NoError(t, transaction.Update(sender, "first", chainparams.UnitsPerCoin, 0, params))
	require.Equal(t, 2*chainparams.UnitsPerCoin, transaction.Output["first"])
	require.NoError(t, tx.Validate(transaction, params))

	// More than the remaining change must fail.
	err = transaction.Update(sender, "third", 1000*chainparams.UnitsPerCoin, 0, params)
	requireRuleError(t, err, tx.ErrAmountExceedsBalance)
}

func TestValidateRejectsTampering(t *testing.T) {
	params := &chainparams.MainnetParams
	sender := newFundedSigner(t, 100*chainparams.UnitsPerCoin)

	transaction, err := tx.NewTransaction(sender, "recipient", chainparams.UnitsPerCoin, 0, params)
	require.NoError(t, err)

	// Inflating an output breaks both the total and the signature; the
	// total check fires first.
	transaction.Output["recipient"] += 1
	requireRuleError(t, tx.Validate(transaction, params), tx.ErrBadOutputTotal)

	// Restore the total by shrinking the change: now only the signature is
	// wrong.
	transaction.Output[sender.Address()] -= 1
	requireRuleError(t, tx.Validate(transaction, params), tx.ErrBadSignature)
}

func TestValidateFeeFloor(t *testing.T) {
	params := &chainparams.MainnetParams
	sender := newFundedSigner(t, 100)

	output := tx.Output{"r": 1, sender.Address(): 99}
	signature, err := sender.Sign(output)
	require.NoError(t, err)

	zeroFee := &tx.Transaction{
		ID: tx.NewID(),
		Input: tx.Input{
			Timestamp: 1,
			Amount:    output.Total(),
			Address:   sender.Address(),
			PublicKey: sender.PublicKeyHex(),
			Signature: signature,
			Fee:       0,
		},
		Output: output,
	}
	requireRuleError(t, tx.Validate(zeroFee, params), tx.ErrFeeBelowMinimum)

	// The same transfer paying the absolute floor, with the input amount
	// adjusted, is acceptable.
	fee := params.MinAbsoluteFee
	require.Equal(t, fee, tx.ComputeFee(output, 0, params))
	paidFee := &tx.Transaction{
		ID: tx.NewID(),
		Input: tx.Input{
			Timestamp: 1,
			Amount:    output.Total() + fee,
			Address:   sender.Address(),
			PublicKey: sender.PublicKeyHex(),
			Signature: signature,
			Fee:       fee,
		},
		Output: output,
	}
	require.NoError(t, tx.Validate(paidFee, params))

	negativeFee := &tx.Transaction{
		ID: tx.NewID(),
		Input: tx.Input{
			Timestamp: 1,
			Amount:    output.Total() - 1,
			Address:   sender.Address(),
			PublicKey: sender.PublicKeyHex(),
			Signature: signature,
			Fee:       -1,
		},
		Output: output,
	}
	requireRuleError(t, tx.Validate(negativeFee, params), tx.ErrNegativeFee)
}

func TestComputeFeeCongestion(t *testing.T) {
	params := &chainparams.MainnetParams

	// A large output set keeps the per-byte fee above the absolute floor so
	// the congestion scaling is observable.
	output := tx.Output{}
	for i := 0; i < 30; i++ {
		output[fmt.Sprintf("recipient-%02d-%020d", i, i)] = int64(1000 + i)
	}

	quiet := tx.ComputeFee(output, 0, params)
	busy := tx.ComputeFee(output, int(params.FeeCongestionTargetTxs), params)
	flooded := tx.ComputeFee(output, int(params.FeeCongestionTargetTxs)*100, params)

	require.GreaterOrEqual(t, quiet, params.MinAbsoluteFee)
	require.Greater(t, busy, quiet)
	require.Greater(t, flooded, busy)

	// The congestion multiplier is capped.
	cappedTwice := tx.ComputeFee(output, int(params.FeeCongestionTargetTxs)*200, params)
	require.Equal(t, flooded, cappedTwice)
}

func TestRewardTransactionValidation(t *testing.T) {
	params := &chainparams.MainnetParams

	reward := tx.NewRewardTransaction(tx.Output{"miner": 100, "foundation": 1})
	require.Equal(t, tx.KindReward, reward.Kind())
	require.NoError(t, tx.Validate(reward, params))

	empty := tx.NewRewardTransaction(tx.Output{})
	requireRuleError(t, tx.Validate(empty, params), tx.ErrBadRewardOutput)

	nonPositive := tx.NewRewardTransaction(tx.Output{"miner": 0})
	requireRuleError(t, tx.Validate(nonPositive, params), tx.ErrBadRewardOutput)
}

func TestTransactionJSONRoundTrip(t *testing.T) {
	params := &chainparams.MainnetParams
	sender := newFundedSigner(t, 100*chainparams.UnitsPerCoin)

	original, err := tx.NewTransaction(sender, "recipient", chainparams.UnitsPerCoin, 0, params)
	require.NoError(t, err)

	encoded, err := original.ToJSON()
	require.NoError(t, err)
	restored, err := tx.FromJSON(encoded)
	require.NoError(t, err)

	require.Equal(t, original.ID, restored.ID)
	require.Equal(t, original.Output, restored.Output)
	require.Equal(t, original.Input.Amount, restored.Input.Amount)
	require.Equal(t, original.Input.Fee, restored.Input.Fee)
	require.Zero(t, original.Input.Signature.R.Cmp(restored.Input.Signature.R))
	require.Zero(t, original.Input.Signature.S.Cmp(restored.Input.Signature.S))

	// The restored transaction still validates, signature included.
	require.NoError(t, tx.Validate(restored, params))

	reEncoded, err := restored.ToJSON()
	require.NoError(t, err)
	require.JSONEq(t, string(encoded), string(reEncoded))
}

func requireRuleError(t *testing.T, err error, code tx.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	ruleErr, ok := err.(tx.RuleError)
	require.Truef(t, ok, "expected tx.RuleError, got %T: %v", err, err)
	require.Equal(t, code, ruleErr.ErrorCode, "unexpected rule error: %v", err)
}
