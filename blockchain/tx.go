package blockchain

import (
	"bytes"

	"github.com/golang-blockchain/wallet"
)

// TxOutput is an indivisible unit of value locked to whoever can prove
// ownership of PubKeyHash.
type TxOutput struct {
	Value      uint32   `json:"value"`
	PubKeyHash HexBytes `json:"pub_key_hash"`
}

// NewTXOutput builds an output locked to address.
func NewTXOutput(value uint32, address []byte) (*TxOutput, error) {
	pubKeyHash, err := wallet.DecodeAddress(address)
	if err != nil {
		return nil, err
	}
	return &TxOutput{Value: value, PubKeyHash: pubKeyHash}, nil
}

// IsLockedWithKey reports whether pubKeyHash can spend this output.
func (out *TxOutput) IsLockedWithKey(pubKeyHash []byte) bool {
	return bytes.Equal(out.PubKeyHash, pubKeyHash)
}

// TxInput references an output being spent. A coinbase input has an empty
// TxID and OutputIndex -1.
type TxInput struct {
	TxID        HexBytes `json:"tx_id"`
	OutputIndex int32    `json:"output_index"`
	Signature   HexBytes `json:"signature"`
	PubKey      HexBytes `json:"pub_key"`
}

// UsesKey reports whether pubKeyHash unlocked this input.
func (in *TxInput) UsesKey(pubKeyHash []byte) bool {
	return bytes.Equal(wallet.HashPubKey(in.PubKey), pubKeyHash)
}
