package wallet

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
)

// Wallet holds an ECDSA key pair. A wallet doesn't hold coins directly —
// it holds the keys needed to claim outputs locked to its address.
type Wallet struct {
	PrivateKey ecdsa.PrivateKey
	PublicKey  []byte // uncompressed SEC1: 0x04 || X(32) || Y(32)
}

// Address derives this wallet's Base58Check address from its public key:
// PublicKey -> RIPEMD160(SHA256(PublicKey)) -> version+checksum -> Base58.
func (w Wallet) Address() []byte {
	return EncodeAddress(HashPubKey(w.PublicKey))
}

// NewKeyPair generates a fresh P-256 ECDSA key pair and returns the
// public key in uncompressed SEC1 form (0x04 prefix, X and Y 32 bytes
// each) rather than a bare X||Y concatenation, so PubKey bytes alone are
// self-describing wire data.
func NewKeyPair() (ecdsa.PrivateKey, []byte, error) {
	curve := elliptic.P256()
	private, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return ecdsa.PrivateKey{}, nil, err
	}
	pub := elliptic.Marshal(curve, private.PublicKey.X, private.PublicKey.Y)
	return *private, pub, nil
}

// MakeWallet builds a new wallet around a fresh key pair.
func MakeWallet() (*Wallet, error) {
	priv, pub, err := NewKeyPair()
	if err != nil {
		return nil, err
	}
	return &Wallet{PrivateKey: priv, PublicKey: pub}, nil
}

// UnmarshalPubKey recovers the ecdsa.PublicKey from its SEC1 encoding.
func UnmarshalPubKey(curve elliptic.Curve, data []byte) ecdsa.PublicKey {
	x, y := elliptic.Unmarshal(curve, data)
	return ecdsa.PublicKey{Curve: curve, X: x, Y: y}
}

// Curve is the curve every wallet key pair in this node uses.
func Curve() elliptic.Curve {
	return elliptic.P256()
}
