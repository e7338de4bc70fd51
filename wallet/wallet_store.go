package wallet

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"math/big"

	"github.com/golang-blockchain/store"
)

// ErrNotFound is returned when an address has no matching wallet.
var ErrNotFound = errors.New("wallet: not found")

// Store persists wallets in the store's wallets bucket, keyed by the raw
// Base58Check address bytes rather than hex, so a lookup never needs to
// re-encode the address a caller already has.
type Store struct {
	bucket *store.Bucket
}

func NewStore(db *store.DB) *Store {
	return &Store{bucket: db.Bucket(store.BucketWallets)}
}

// Create mints a new wallet, persists its private key under its address,
// and returns the address.
func (s *Store) Create() ([]byte, error) {
	w, err := MakeWallet()
	if err != nil {
		return nil, err
	}
	addr := w.Address()
	if err := s.bucket.Set(addr, encodePrivateKey(w.PrivateKey)); err != nil {
		return nil, err
	}
	return addr, nil
}

// GetByAddress loads the wallet whose address is addr.
func (s *Store) GetByAddress(addr []byte) (*Wallet, error) {
	raw, err := s.bucket.Get(addr)
	if err == store.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	priv := decodePrivateKey(raw)
	pub := elliptic.Marshal(priv.Curve, priv.X, priv.Y)
	return &Wallet{PrivateKey: priv, PublicKey: pub}, nil
}

// GetAllAddresses lists every known wallet address.
func (s *Store) GetAllAddresses() ([][]byte, error) {
	var addrs [][]byte
	err := s.bucket.Iter(func(k, _ []byte) error {
		addrs = append(addrs, append([]byte(nil), k...))
		return nil
	})
	return addrs, err
}

// encodePrivateKey stores only the scalar D; the curve is fixed to P256
// for every wallet this node creates, so the public point is
// recomputable from D alone on load.
func encodePrivateKey(priv ecdsa.PrivateKey) []byte {
	return priv.D.Bytes()
}

func decodePrivateKey(raw []byte) ecdsa.PrivateKey {
	curve := Curve()
	d := new(big.Int).SetBytes(raw)
	x, y := curve.ScalarBaseMult(raw)
	return ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         d,
	}
}
