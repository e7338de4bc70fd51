package wallet

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

// Address layout constants. Version is a 2-byte little-endian field here,
// unlike the 1-byte version the Bitcoin-tutorial lineage this wallet
// package descends from uses; see DecodeAddress for why that matters.
const (
	checksumLength = 4
	version        = uint16(1)
)

// SHA256 is a thin name for the stdlib hash, kept for symmetry with
// SHA256D and RIPEMD160 below.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// SHA256D is double SHA-256, used for the address checksum.
func SHA256D(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// RIPEMD160 hashes data with RIPEMD-160, producing a 20-byte digest.
func RIPEMD160(data []byte) []byte {
	h := ripemd160.New()
	if _, err := h.Write(data); err != nil {
		log.Panic(err)
	}
	return h.Sum(nil)
}

// HashPubKey is Bitcoin's "Hash160": RIPEMD160(SHA256(pubKey)).
func HashPubKey(pubKey []byte) []byte {
	return RIPEMD160(SHA256(pubKey))
}

// Checksum is the first 4 bytes of SHA256(SHA256(payload)).
func Checksum(payload []byte) []byte {
	return SHA256D(payload)[:checksumLength]
}

// Base58Encode converts binary data to Base58 text, returned as bytes so
// callers can choose whether to treat it as a string or raw bytes.
func Base58Encode(input []byte) []byte {
	return []byte(base58.Encode(input))
}

// Base58Decode is the inverse of Base58Encode.
func Base58Decode(input []byte) ([]byte, error) {
	return base58.Decode(string(input))
}

// EncodeAddress turns a public-key hash into a Base58Check address:
// Base58(versionLE(2) || pubKeyHash(20) || checksum(4)).
func EncodeAddress(pubKeyHash []byte) []byte {
	versioned := make([]byte, 2, 2+len(pubKeyHash))
	binary.LittleEndian.PutUint16(versioned, version)
	versioned = append(versioned, pubKeyHash...)
	full := append(versioned, Checksum(versioned)...)
	return Base58Encode(full)
}

// DecodeAddress reverses EncodeAddress and verifies the checksum.
//
// This strips exactly 2 version bytes and 4 checksum bytes. An earlier
// revision of this scheme sliced off only a single leading byte before
// taking the payload, which silently fed one stray version byte into the
// pubkey hash and into the checksum recomputation; any address would
// "validate" as long as the corrupted checksum happened to still match
// itself, which isn't a real check at all.
func DecodeAddress(address []byte) (pubKeyHash []byte, err error) {
	decoded, err := Base58Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	const minLen = 2 + 20 + checksumLength
	if len(decoded) < minLen {
		return nil, fmt.Errorf("decode address: short payload (%d bytes)", len(decoded))
	}

	versioned := decoded[:len(decoded)-checksumLength]
	gotChecksum := decoded[len(decoded)-checksumLength:]
	wantChecksum := Checksum(versioned)
	if !bytes.Equal(gotChecksum, wantChecksum) {
		return nil, fmt.Errorf("decode address: checksum mismatch")
	}

	return versioned[2:], nil
}

// ValidateAddress reports whether address decodes to a well-formed,
// checksum-correct payload.
func ValidateAddress(address []byte) bool {
	_, err := DecodeAddress(address)
	return err == nil
}
