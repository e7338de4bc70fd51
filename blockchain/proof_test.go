package blockchain

import "testing"

func TestProofOfWorkRunProducesValidHash(t *testing.T) {
	pow := NewProofOfWork([]byte("prev"), []byte("root"), "1700000000000")
	nonce, hash, err := pow.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !pow.Validate(nonce) {
		t.Fatalf("Validate rejected the nonce Run just found")
	}
	if len(hash) != 32 {
		t.Fatalf("hash length = %d, want 32", len(hash))
	}
}

func TestProofOfWorkPreimageIsLittleEndian(t *testing.T) {
	pow := NewProofOfWork(nil, nil, "")
	preimage := pow.preimage(1)
	// last 8 bytes are the little-endian nonce; nonce=1 => first byte 1, rest 0.
	n := preimage[len(preimage)-8:]
	if n[0] != 1 {
		t.Fatalf("expected little-endian nonce encoding, got %v", n)
	}
	for _, b := range n[1:] {
		if b != 0 {
			t.Fatalf("expected zero padding after first byte, got %v", n)
		}
	}
}

func TestProofOfWorkRejectsWrongNonce(t *testing.T) {
	pow := NewProofOfWork([]byte("prev"), []byte("root"), "1700000000000")
	nonce, _, err := pow.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pow.Validate(nonce + 1) {
		t.Fatalf("Validate accepted a nonce one off from the valid one (astronomically unlikely unless buggy)")
	}
}
