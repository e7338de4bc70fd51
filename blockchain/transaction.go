package blockchain

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/golang-blockchain/wallet"
)

// RewardAmount is the fixed coinbase reward minted with every block.
const RewardAmount = uint32(10)

// Transaction moves value from inputs to outputs. Transactions reference
// prior outputs rather than carrying balances directly; each input must be
// cryptographically signed by the key that locks the output it spends.
type Transaction struct {
	ID      HexBytes   `json:"id"`
	Inputs  []TxInput  `json:"inputs"`
	Outputs []TxOutput `json:"outputs"`
}

// computeID hashes only the inputs and outputs, never the ID field itself
// (that would be circular). Once set, ID is treated as opaque — it is
// never recomputed on deserialize. Sign fills in each input's Signature
// after the ID is computed, so re-hashing a signed transaction does not
// reproduce its ID.
func computeID(inputs []TxInput, outputs []TxOutput) (HexBytes, error) {
	encInputs, err := json.Marshal(inputs)
	if err != nil {
		return nil, err
	}
	encOutputs, err := json.Marshal(outputs)
	if err != nil {
		return nil, err
	}
	h := sha256.Sum256(append(encInputs, encOutputs...))
	return h[:], nil
}

// CoinbaseTx mints RewardAmount to the wallet's own address. note is an
// arbitrary miner note carried as the input's signature; if empty a
// default is filled in. The input's PubKey is the wallet's real public
// key, not the note text — a coinbase input still names who it pays,
// it just has nothing to spend.
func CoinbaseTx(to *wallet.Wallet, note string) (*Transaction, error) {
	if note == "" {
		note = fmt.Sprintf("Reward to %s", to.Address())
	}

	in := TxInput{TxID: HexBytes{}, OutputIndex: -1, Signature: HexBytes(note), PubKey: HexBytes(to.PublicKey)}
	out := &TxOutput{Value: RewardAmount, PubKeyHash: wallet.HashPubKey(to.PublicKey)}

	tx := &Transaction{Inputs: []TxInput{in}, Outputs: []TxOutput{*out}}
	id, err := computeID(tx.Inputs, tx.Outputs)
	if err != nil {
		return nil, err
	}
	tx.ID = id
	return tx, nil
}

// IsCoinbase reports whether tx mints new value rather than spending a
// prior output.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 &&
		len(tx.Inputs[0].TxID) == 0 &&
		tx.Inputs[0].OutputIndex == -1
}

// TrimmedCopy strips Signature and PubKey from every input. Signing and
// verification both hash this shape with one input's PubKey temporarily
// restored to the spent output's locking hash, so the signature commits
// to which output backs each input without ever including another
// input's in-progress signature.
func (tx *Transaction) TrimmedCopy() Transaction {
	inputs := make([]TxInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = TxInput{TxID: in.TxID, OutputIndex: in.OutputIndex}
	}
	outputs := make([]TxOutput, len(tx.Outputs))
	copy(outputs, tx.Outputs)
	return Transaction{ID: tx.ID, Inputs: inputs, Outputs: outputs}
}

// Sign signs every input of tx with privateKey. prevTXs maps hex-encoded
// previous transaction IDs to the transactions that created the outputs
// being spent. Coinbase transactions are never signed.
func (tx *Transaction) Sign(privateKey ecdsa.PrivateKey, prevTXs map[string]*Transaction) error {
	if tx.IsCoinbase() {
		return nil
	}
	for _, in := range tx.Inputs {
		if prevTXs[hex.EncodeToString(in.TxID)] == nil {
			return fmt.Errorf("%w: previous transaction not found", ErrBadTransaction)
		}
	}

	txCopy := tx.TrimmedCopy()
	for i, in := range txCopy.Inputs {
		prevTX := prevTXs[hex.EncodeToString(in.TxID)]
		txCopy.Inputs[i].Signature = nil
		txCopy.Inputs[i].PubKey = prevTX.Outputs[in.OutputIndex].PubKeyHash

		digest, err := computeID(txCopy.Inputs, txCopy.Outputs)
		if err != nil {
			return err
		}
		txCopy.Inputs[i].PubKey = nil

		r, s, err := ecdsa.Sign(rand.Reader, &privateKey, digest)
		if err != nil {
			return err
		}
		sig := make([]byte, 64)
		r.FillBytes(sig[:32])
		s.FillBytes(sig[32:])
		tx.Inputs[i].Signature = sig
	}
	return nil
}

// Verify checks every input's signature against the output it claims to
// spend. Coinbase transactions always verify.
func (tx *Transaction) Verify(prevTXs map[string]*Transaction) (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}
	for _, in := range tx.Inputs {
		if prevTXs[hex.EncodeToString(in.TxID)] == nil {
			return false, fmt.Errorf("%w: previous transaction not found", ErrBadTransaction)
		}
	}

	txCopy := tx.TrimmedCopy()
	curve := wallet.Curve()

	for i, in := range tx.Inputs {
		prevTX := prevTXs[hex.EncodeToString(in.TxID)]
		txCopy.Inputs[i].Signature = nil
		txCopy.Inputs[i].PubKey = prevTX.Outputs[in.OutputIndex].PubKeyHash

		digest, err := computeID(txCopy.Inputs, txCopy.Outputs)
		if err != nil {
			return false, err
		}
		txCopy.Inputs[i].PubKey = nil

		if len(in.Signature) != 64 {
			return false, fmt.Errorf("%w: malformed signature", ErrBadTransaction)
		}
		r := new(big.Int).SetBytes(in.Signature[:32])
		s := new(big.Int).SetBytes(in.Signature[32:])

		pubKey := wallet.UnmarshalPubKey(curve, in.PubKey)
		if !ecdsa.Verify(&pubKey, digest, r, s) {
			return false, nil
		}
	}
	return true, nil
}

// String renders a human-readable summary of the transaction for logs.
func (tx Transaction) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "tx %s\n", tx.ID)
	for i, in := range tx.Inputs {
		fmt.Fprintf(&b, "  in[%d] tx=%s out=%d sig=%s pub=%s\n", i, in.TxID, in.OutputIndex, in.Signature, in.PubKey)
	}
	for i, out := range tx.Outputs {
		fmt.Fprintf(&b, "  out[%d] value=%d pkh=%s\n", i, out.Value, out.PubKeyHash)
	}
	return b.String()
}
