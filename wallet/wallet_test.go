package wallet

import (
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pythnetwork/pythd/chainparams"
	"github.com/pythnetwork/pythd/domain/blockchain"
	"github.com/pythnetwork/pythd/domain/tx"
)

func TestSignAndVerify(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)

	payload := tx.Output{"recipient": 25, w.Address(): 75}
	signature, err := w.Sign(payload)
	require.NoError(t, err)

	require.True(t, tx.VerifySignature(w.PublicKeyHex(), payload, signature))

	// A different payload must not verify.
	other := tx.Output{"recipient": 26, w.Address(): 74}
	require.False(t, tx.VerifySignature(w.PublicKeyHex(), other, signature))

	// A different key must not verify.
	stranger, err := New(nil)
	require.NoError(t, err)
	require.False(t, tx.VerifySignature(stranger.PublicKeyHex(), payload, signature))
}

func TestAddressDerivation(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)

	require.Len(t, w.Address(), addressLength)
	_, err = hex.DecodeString(w.Address())
	require.NoError(t, err, "address must be hex")

	// Uncompressed secp256k1 point: 65 bytes, leading 0x04.
	publicKeyBytes, err := hex.DecodeString(w.PublicKeyHex())
	require.NoError(t, err)
	require.Len(t, publicKeyBytes, 65)
	require.Equal(t, byte(0x04), publicKeyBytes[0])

	require.Equal(t, w.Address(), DeriveAddress(w.PublicKeyHex()))
}

func TestFromPrivateKeyHex(t *testing.T) {
	original, err := New(nil)
	require.NoError(t, err)

	restored, err := FromPrivateKey(original.PrivateKeyHex(), nil)
	require.NoError(t, err)

	require.Equal(t, original.Address(), restored.Address())
	require.Equal(t, original.PublicKeyHex(), restored.PublicKeyHex())

	// Signatures from the restored wallet verify under the original key.
	payload := tx.Output{"a": 1}
	signature, err := restored.Sign(payload)
	require.NoError(t, err)
	require.True(t, tx.VerifySignature(original.PublicKeyHex(), payload, signature))

	_, err = FromPrivateKey("not a key", nil)
	require.Error(t, err)

	_, err = FromPrivateKey("00", nil)
	require.Error(t, err, "zero scalar must be rejected")
}

func TestBalanceByChainScan(t *testing.T) {
	params := &chainparams.MainnetParams
	chain := blockchain.New(params)

	w, err := New(chain)
	require.NoError(t, err)
	require.Zero(t, w.Balance())

	// One reward in, one transfer out and back. Balance math only needs the scan,
	// not chain validity, so the blocks are assembled directly.
	_, err = chain.AddBlock([]*tx.Transaction{
		tx.NewRewardTransaction(tx.Output{w.Address(): 500}),
	})
	require.NoError(t, err)
	require.Equal(t, int64(500), w.Balance())

	spend := &tx.Transaction{
		ID: tx.NewID(),
		Input: tx.Input{
			Timestamp: 1,
			Amount:    300,
			Address:   w.Address(),
			Fee:       10,
		},
		Output: tx.Output{"recipient": 190, w.Address(): 100},
	}
	_, err = chain.AddBlock([]*tx.Transaction{
		spend,
		tx.NewRewardTransaction(tx.Output{"other-miner": 500}),
	})
	require.NoError(t, err)

	// 500 - 300 spent + 100 change back.
	require.Equal(t, int64(300), w.Balance())
}

func TestFromPrivateKeyPEM(t *testing.T) {
	original, err := New(nil)
	require.NoError(t, err)

	// SEC1 shell carrying just the scalar, as a minimal EC PRIVATE KEY.
	der, err := asn1.Marshal(struct {
		Version    int
		PrivateKey []byte
	}{
		Version:    1,
		PrivateKey: original.privateKey.Serialize(),
	})
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

	restored, err := FromPrivateKey(string(pemKey), nil)
	require.NoError(t, err)
	require.Equal(t, original.Address(), restored.Address())
	require.Equal(t, original.PublicKeyHex(), restored.PublicKeyHex())
}
