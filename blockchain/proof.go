package blockchain

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/big"
)

// TargetBits fixes the mining difficulty: a valid hash must be numerically
// below 2^(256-TargetBits), i.e. have at least TargetBits leading zero
// bits.
const TargetBits = 18

// ProofOfWork searches for a nonce making sha256(preimage) fall below the
// difficulty target. Finding one is meant to be hard; checking one (Validate)
// is a single hash.
type ProofOfWork struct {
	PrevHash    []byte
	MerkleRoot  []byte
	TimestampMS string
	Target      *big.Int
}

func NewProofOfWork(prevHash, merkleRoot []byte, timestampMS string) *ProofOfWork {
	target := big.NewInt(1)
	target.Lsh(target, uint(256-TargetBits))
	return &ProofOfWork{PrevHash: prevHash, MerkleRoot: merkleRoot, TimestampMS: timestampMS, Target: target}
}

// preimage concatenates prevHash, merkleRoot, the ASCII timestamp, the
// target bits (2 bytes) and the nonce (8 bytes), both integers
// little-endian.
func (pow *ProofOfWork) preimage(nonce uint64) []byte {
	var buf bytes.Buffer
	buf.Write(pow.PrevHash)
	buf.Write(pow.MerkleRoot)
	buf.WriteString(pow.TimestampMS)

	var bits [2]byte
	binary.LittleEndian.PutUint16(bits[:], uint16(TargetBits))
	buf.Write(bits[:])

	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], nonce)
	buf.Write(n[:])

	return buf.Bytes()
}

// Run searches for the first nonce whose hash satisfies Target.
func (pow *ProofOfWork) Run() (nonce uint64, hash []byte, err error) {
	var intHash big.Int
	var h [32]byte

	for nonce = 0; nonce < math.MaxUint64; nonce++ {
		h = sha256.Sum256(pow.preimage(nonce))
		intHash.SetBytes(h[:])
		if intHash.Cmp(pow.Target) == -1 {
			return nonce, h[:], nil
		}
	}
	return 0, nil, ErrPowHashNotFound
}

// Validate recomputes the hash at the stored nonce and checks it against
// the target. It does not compare against any particular block.Hash value
// — callers that need that equality check do it themselves.
func (pow *ProofOfWork) Validate(nonce uint64) bool {
	var intHash big.Int
	h := sha256.Sum256(pow.preimage(nonce))
	intHash.SetBytes(h[:])
	return intHash.Cmp(pow.Target) == -1
}
