package wallet

import "testing"

func TestEncodeDecodeAddressRoundTrip(t *testing.T) {
	w, err := MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	addr := w.Address()
	pubKeyHash := HashPubKey(w.PublicKey)

	got, err := DecodeAddress(addr)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("decoded hash length = %d, want 20", len(got))
	}
	if string(got) != string(pubKeyHash) {
		t.Fatalf("decoded hash does not match original pubkey hash")
	}
	if !ValidateAddress(addr) {
		t.Fatalf("ValidateAddress rejected a freshly encoded address")
	}
}

func TestDecodeAddressRejectsBadChecksum(t *testing.T) {
	w, err := MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	addr := w.Address()
	raw, err := Base58Decode(addr)
	if err != nil {
		t.Fatalf("Base58Decode: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	corrupted := Base58Encode(raw)

	if ValidateAddress(corrupted) {
		t.Fatalf("ValidateAddress accepted a corrupted checksum")
	}
}

func TestDecodeAddressRejectsShortPayload(t *testing.T) {
	short := Base58Encode([]byte{1, 2, 3})
	if ValidateAddress(short) {
		t.Fatalf("ValidateAddress accepted a too-short payload")
	}
}

func TestHashPubKeyLength(t *testing.T) {
	w, err := MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	if len(HashPubKey(w.PublicKey)) != 20 {
		t.Fatalf("HashPubKey length = %d, want 20", len(HashPubKey(w.PublicKey)))
	}
	if len(w.PublicKey) != 65 || w.PublicKey[0] != 0x04 {
		t.Fatalf("PublicKey not uncompressed SEC1: len=%d prefix=%x", len(w.PublicKey), w.PublicKey[:1])
	}
}
