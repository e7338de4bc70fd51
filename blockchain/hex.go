package blockchain

import "encoding/hex"

// HexBytes marshals to/from JSON as a lowercase hex string instead of the
// base64 encoding/json gives plain []byte, matching the wire format every
// hash and key in this node uses.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	s := hex.EncodeToString(h)
	return []byte(`"` + s + `"`), nil
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		*h = HexBytes{}
		return nil
	}
	s := string(data[1 : len(data)-1])
	if s == "" {
		*h = HexBytes{}
		return nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}
