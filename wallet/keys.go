package wallet

import (
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github.com/pythnetwork/pythd/domain/blockchain"
)

// sec1PrivateKey is the ASN.1 shell of an SEC1 EC private key. The standard
// library's x509 parser rejects secp256k1 because it is not a NIST curve, so
// the scalar is extracted here and handed to the secp256k1 library.
type sec1PrivateKey struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

// pkcs8PrivateKey is the ASN.1 shell of a PKCS#8 private key, which wraps an
// SEC1 body for EC keys.
type pkcs8PrivateKey struct {
	Version    int
	Algorithm  asn1.RawValue
	PrivateKey []byte
}

// FromPrivateKey builds a wallet from a private key in either PEM form
// (SEC1 "EC PRIVATE KEY" or PKCS#8 "PRIVATE KEY") or as a raw hex scalar.
func FromPrivateKey(key string, chain *blockchain.Blockchain) (*Wallet, error) {
	var parseErrors []error

	if privateKey, err := parsePEMPrivateKey(key); err == nil {
		return fromKey(privateKey, chain), nil
	} else {
		parseErrors = append(parseErrors, err)
	}

	if privateKey, err := parseHexPrivateKey(key); err == nil {
		return fromKey(privateKey, chain), nil
	} else {
		parseErrors = append(parseErrors, err)
	}

	return nil, errors.Wrap(parseErrors[len(parseErrors)-1], "invalid private key")
}

func parsePEMPrivateKey(key string) (*secp256k1.PrivateKey, error) {
	block, _ := pem.Decode([]byte(key))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	der := block.Bytes
	if block.Type == "PRIVATE KEY" {
		var wrapped pkcs8PrivateKey
		if _, err := asn1.Unmarshal(der, &wrapped); err != nil {
			return nil, errors.Wrap(err, "couldn't parse PKCS#8 shell")
		}
		der = wrapped.PrivateKey
	}

	var parsed sec1PrivateKey
	if _, err := asn1.Unmarshal(der, &parsed); err != nil {
		return nil, errors.Wrap(err, "couldn't parse SEC1 private key")
	}
	if len(parsed.PrivateKey) == 0 || len(parsed.PrivateKey) > 32 {
		return nil, errors.Errorf("unexpected private key length %d", len(parsed.PrivateKey))
	}

	var scalar [32]byte
	copy(scalar[32-len(parsed.PrivateKey):], parsed.PrivateKey)
	return secp256k1.PrivKeyFromBytes(scalar[:]), nil
}

func parseHexPrivateKey(key string) (*secp256k1.PrivateKey, error) {
	trimmed := strings.TrimSpace(key)
	if len(trimmed)%2 == 1 {
		trimmed = "0" + trimmed
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't decode hex scalar")
	}
	if len(decoded) == 0 || len(decoded) > 32 {
		return nil, errors.Errorf("unexpected scalar length %d", len(decoded))
	}

	var scalar [32]byte
	copy(scalar[32-len(decoded):], decoded)
	privateKey := secp256k1.PrivKeyFromBytes(scalar[:])
	if privateKey.Key.IsZero() {
		return nil, errors.New("scalar is zero")
	}
	return privateKey, nil
}

// PrivateKeyHex returns the wallet's private key as a raw hex scalar, the
// form FromPrivateKey accepts back.
func (w *Wallet) PrivateKeyHex() string {
	return hex.EncodeToString(w.privateKey.Serialize())
}
