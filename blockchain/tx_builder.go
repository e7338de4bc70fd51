package blockchain

import (
	"encoding/hex"
	"fmt"

	"github.com/golang-blockchain/wallet"
)

// NewTransferTransaction builds, signs, and returns a transaction moving
// amount from the wallet's address to `to`, selecting inputs from utxo
// and signing against chain's transaction history.
func NewTransferTransaction(from *wallet.Wallet, to []byte, amount uint32, utxo *UTXOIndex, chain *Chain) (*Transaction, error) {
	pubKeyHash := wallet.HashPubKey(from.PublicKey)
	acc, validOutputs, err := utxo.FindSpendableOutputs(pubKeyHash, amount)
	if err != nil {
		return nil, err
	}
	if acc < amount {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughFunds, acc, amount)
	}

	var inputs []TxInput
	for idStr, outIdxs := range validOutputs {
		txID, err := hex.DecodeString(idStr)
		if err != nil {
			return nil, err
		}
		for _, outIdx := range outIdxs {
			inputs = append(inputs, TxInput{
				TxID:        txID,
				OutputIndex: int32(outIdx),
				PubKey:      from.PublicKey,
			})
		}
	}

	var outputs []TxOutput
	recipientOut, err := NewTXOutput(amount, to)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, *recipientOut)

	if acc > amount {
		changeOut, err := NewTXOutput(acc-amount, from.Address())
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, *changeOut)
	}

	tx := &Transaction{Inputs: inputs, Outputs: outputs}
	id, err := computeID(tx.Inputs, tx.Outputs)
	if err != nil {
		return nil, err
	}
	tx.ID = id

	if err := chain.SignTransaction(tx, from.PrivateKey); err != nil {
		return nil, err
	}
	return tx, nil
}
