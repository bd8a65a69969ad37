package tx

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"

	"github.com/pythnetwork/pythd/util"
)

// Signature is an ECDSA signature over secp256k1, stored as the raw (r, s)
// integer pair. On the wire it is a two-element JSON array of integers.
type Signature struct {
	R *big.Int
	S *big.Int
}

// NewSignature returns a signature holding the given scalars.
func NewSignature(r, s *big.Int) *Signature {
	return &Signature{R: r, S: s}
}

func bigZero() *big.Int {
	return new(big.Int)
}

// MarshalJSON implements json.Marshaler, encoding the signature as [r, s].
func (sig *Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal([]*big.Int{sig.R, sig.S})
}

// UnmarshalJSON implements json.Unmarshaler, decoding a [r, s] pair.
func (sig *Signature) UnmarshalJSON(data []byte) error {
	var pair []*big.Int
	if err := json.Unmarshal(data, &pair); err != nil {
		return errors.Wrap(err, "couldn't decode signature pair")
	}
	if len(pair) != 2 || pair[0] == nil || pair[1] == nil {
		return errors.Errorf("signature must be a pair of integers, got %d elements", len(pair))
	}
	sig.R, sig.S = pair[0], pair[1]
	return nil
}

// SigningDigest returns the SHA-256 digest of the canonical JSON encoding of
// payload. This is the message that wallet signatures commit to.
func SigningDigest(payload interface{}) ([]byte, error) {
	encoded, err := util.CanonicalJSON(payload)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(encoded)
	return digest[:], nil
}

// VerifySignature reports whether sig is a valid signature of output under
// the uncompressed hex public key.
func VerifySignature(publicKeyHex string, output Output, sig *Signature) bool {
	if sig == nil || sig.R == nil || sig.S == nil {
		return false
	}
	if sig.R.Sign() <= 0 || sig.S.Sign() <= 0 {
		return false
	}
	if sig.R.BitLen() > 256 || sig.S.BitLen() > 256 {
		return false
	}

	publicKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false
	}
	publicKey, err := secp256k1.ParsePubKey(publicKeyBytes)
	if err != nil {
		return false
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig.R.Bytes()); overflow {
		return false
	}
	if overflow := s.SetByteSlice(sig.S.Bytes()); overflow {
		return false
	}

	digest, err := SigningDigest(output)
	if err != nil {
		return false
	}
	return ecdsa.NewSignature(&r, &s).Verify(digest, publicKey)
}
