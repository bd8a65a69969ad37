package tx

import (
	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/util"
)

// ComputeFee returns the relay fee in smallest units for a transaction with
// the given output set, scaled by current mempool congestion.
//
// The estimated transaction size is the canonical JSON size of the outputs
// plus a fixed overhead for the input section. The per-byte rate starts at
// the dynamic base rate, grows linearly with mempool fill toward the
// congestion target, and is capped by the maximum multiplier; the baseline
// relay rate and the absolute fee floor apply regardless of congestion.
func ComputeFee(output Output, mempoolSize int, params *chainparams.Params) int64 {
	encoded, err := util.CanonicalJSON(output)
	if err != nil {
		// An output map always encodes; see CanonicalJSON.
		panic(err)
	}
	txSize := int64(len(encoded)) + params.TxSizeInputOverhead

	congestionTarget := params.FeeCongestionTargetTxs
	if congestionTarget < 1 {
		congestionTarget = 1
	}
	if mempoolSize < 0 {
		mempoolSize = 0
	}
	congestionMultiplier := 1 + float64(mempoolSize)/float64(congestionTarget)
	if congestionMultiplier > params.FeeMaxMultiplier {
		congestionMultiplier = params.FeeMaxMultiplier
	}

	perByteFee := float64(params.DynamicFeeBasePerByte) * congestionMultiplier
	if minRelay := float64(params.MinRelayFeePerByte); perByteFee < minRelay {
		perByteFee = minRelay
	}

	fee := perByteFee * float64(txSize)
	if minAbsolute := float64(params.MinAbsoluteFee); fee < minAbsolute {
		fee = minAbsolute
	}
	return int64(fee)
}
