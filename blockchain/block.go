package blockchain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Block is a timestamped, PoW-sealed batch of transactions.
type Block struct {
	Timestamp    string         `json:"timestamp"`
	Transactions []*Transaction `json:"transactions"`
	PrevHash     HexBytes       `json:"prev_hash"`
	Nonce        uint64         `json:"nonce"`
	Hash         HexBytes       `json:"hash"`
}

func nowMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// NewBlock mines a block over transactions atop prevHash.
func NewBlock(transactions []*Transaction, prevHash []byte) (*Block, error) {
	if len(transactions) == 0 {
		return nil, fmt.Errorf("%w: block must contain at least one transaction", ErrBadTransaction)
	}
	root, err := MerkleRoot(transactions)
	if err != nil {
		return nil, err
	}

	ts := nowMillis()
	pow := NewProofOfWork(prevHash, root, ts)
	nonce, hash, err := pow.Run()
	if err != nil {
		return nil, err
	}

	return &Block{
		Timestamp:    ts,
		Transactions: transactions,
		PrevHash:     prevHash,
		Nonce:        nonce,
		Hash:         hash,
	}, nil
}

// Genesis mints the first block of a chain, carrying a single coinbase
// transaction and an empty PrevHash.
func Genesis(coinbase *Transaction) (*Block, error) {
	return NewBlock([]*Transaction{coinbase}, []byte{})
}

// Validate recomputes this block's PoW at its stored nonce and checks
// both the difficulty target and that the stored Hash matches.
func (b *Block) Validate() (bool, error) {
	root, err := MerkleRoot(b.Transactions)
	if err != nil {
		return false, err
	}
	pow := NewProofOfWork(b.PrevHash, root, b.Timestamp)
	if !pow.Validate(b.Nonce) {
		return false, nil
	}
	hash := sha256Preimage(pow, b.Nonce)
	return hexEqual(hash, b.Hash), nil
}

func sha256Preimage(pow *ProofOfWork, nonce uint64) []byte {
	// Validate already hashed once; recompute here only to recover the
	// exact hash bytes for the equality check against b.Hash.
	return hashOf(pow.preimage(nonce))
}

// mustValidBlock panics if b fails PoW/hash validation. A block read back
// from the store that doesn't check out is not a recoverable error — the
// chain itself is untrustworthy from that point on, so every path that
// reads a block off disk runs it through here before handing it to a
// caller, and a corrupt chain halts the process rather than serving it.
func mustValidBlock(b *Block) *Block {
	ok, err := b.Validate()
	if err != nil {
		panic(fmt.Errorf("%w: block %s: validation error: %v", ErrBadTransaction, b.Hash, err))
	}
	if !ok {
		panic(fmt.Errorf("%w: block %s failed proof-of-work/hash validation", ErrBadTransaction, b.Hash))
	}
	return b
}

// Serialize encodes the block as JSON for storage.
func (b *Block) Serialize() ([]byte, error) {
	return json.Marshal(b)
}

// Deserialize decodes a block previously written by Serialize. The
// stored Hash is trusted as-is; callers that need freshness call
// Validate.
func Deserialize(data []byte) (*Block, error) {
	var b Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
