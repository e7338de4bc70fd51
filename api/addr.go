package api

import "encoding/hex"

// On the wire, an address is the hex encoding of its Base58Check ASCII
// byte sequence, not the Base58 text itself.
func encodeAddress(asciiAddr []byte) string {
	return hex.EncodeToString(asciiAddr)
}

func decodeAddress(hexAddr string) ([]byte, error) {
	return hex.DecodeString(hexAddr)
}
