package blockchain

import (
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/golang-blockchain/store"
	"github.com/golang-blockchain/wallet"
)

// UTXOIndex is a derived, rebuildable index of unspent outputs, stored in
// the chainstate bucket keyed by transaction ID. The value is a JSON
// object mapping output-index (as a string, since JSON object keys must
// be strings) to the TxOutput at that index — this is what lets a block's
// update touch only the handful of transactions it actually affects,
// instead of rescanning the whole chain on every write.
type UTXOIndex struct {
	db    *store.DB
	chain *Chain
}

func NewUTXOIndex(db *store.DB, chain *Chain) *UTXOIndex {
	return &UTXOIndex{db: db, chain: chain}
}

func chainstateBucket(db *store.DB) *store.Bucket {
	return db.Bucket(store.BucketChainstate)
}

type outputSet map[string]TxOutput

// Reindex rebuilds the chainstate bucket from a full chain scan. Use this
// at startup, or for recovery after the index and the chain have drifted.
func (u *UTXOIndex) Reindex() error {
	bucket := chainstateBucket(u.db)
	if err := bucket.Clear(); err != nil {
		return err
	}

	utxo, err := u.chain.FindUTXO()
	if err != nil {
		return err
	}

	return u.db.Update(func(t *store.Txn) error {
		for txID, outs := range utxo {
			key, err := hex.DecodeString(txID)
			if err != nil {
				return err
			}
			set := make(outputSet, len(outs))
			for idx, out := range outs {
				set[strconv.Itoa(int(idx))] = out
			}
			enc, err := json.Marshal(set)
			if err != nil {
				return err
			}
			if err := t.Set(store.BucketChainstate, key, enc); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update folds one freshly mined block into the index: inputs remove the
// outputs they spend before the block's own outputs are written, so a
// transaction within the block can never observe its own outputs as
// already-spent.
func (u *UTXOIndex) Update(block *Block) error {
	return u.db.Update(func(t *store.Txn) error {
		for _, tx := range block.Transactions {
			if tx.IsCoinbase() {
				continue
			}
			for _, in := range tx.Inputs {
				if err := removeOutput(t, in.TxID, in.OutputIndex); err != nil {
					return err
				}
			}
		}

		for _, tx := range block.Transactions {
			set := make(outputSet, len(tx.Outputs))
			for idx, out := range tx.Outputs {
				set[strconv.Itoa(idx)] = out
			}
			enc, err := json.Marshal(set)
			if err != nil {
				return err
			}
			if err := t.Set(store.BucketChainstate, tx.ID, enc); err != nil {
				return err
			}
		}
		return nil
	})
}

func removeOutput(t *store.Txn, txID []byte, outIdx int32) error {
	raw, err := t.Get(store.BucketChainstate, txID)
	if err == store.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	var set outputSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return err
	}
	delete(set, strconv.Itoa(int(outIdx)))

	if len(set) == 0 {
		return t.Delete(store.BucketChainstate, txID)
	}
	enc, err := json.Marshal(set)
	if err != nil {
		return err
	}
	return t.Set(store.BucketChainstate, txID, enc)
}

// FindUTXO returns every unspent output locked to pubKeyHash.
func (u *UTXOIndex) FindUTXO(pubKeyHash []byte) ([]TxOutput, error) {
	var result []TxOutput
	bucket := chainstateBucket(u.db)
	err := bucket.Iter(func(_ []byte, val []byte) error {
		var set outputSet
		if err := json.Unmarshal(val, &set); err != nil {
			return err
		}
		for _, out := range set {
			if out.IsLockedWithKey(pubKeyHash) {
				result = append(result, out)
			}
		}
		return nil
	})
	return result, err
}

// FindSpendableOutputs selects enough unspent outputs locked to
// pubKeyHash to cover amount, returning the accumulated value and which
// output indices (by transaction) were selected.
func (u *UTXOIndex) FindSpendableOutputs(pubKeyHash []byte, amount uint32) (uint32, map[string][]int, error) {
	unspent := make(map[string][]int)
	var accumulated uint32

	bucket := chainstateBucket(u.db)
	err := bucket.Iter(func(key []byte, val []byte) error {
		if accumulated >= amount {
			return nil
		}
		txID := hex.EncodeToString(key)
		var set outputSet
		if err := json.Unmarshal(val, &set); err != nil {
			return err
		}
		for idxStr, out := range set {
			if accumulated >= amount {
				break
			}
			if !out.IsLockedWithKey(pubKeyHash) {
				continue
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return err
			}
			unspent[txID] = append(unspent[txID], idx)
			accumulated += out.Value
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return accumulated, unspent, nil
}

// CountTransactions returns how many transactions currently contribute at
// least one unspent output.
func (u *UTXOIndex) CountTransactions() (int, error) {
	return chainstateBucket(u.db).Len()
}

// GetBalance sums every unspent output locked to the given address.
func (u *UTXOIndex) GetBalance(address []byte) (uint32, error) {
	pubKeyHash, err := wallet.DecodeAddress(address)
	if err != nil {
		return 0, err
	}
	outs, err := u.FindUTXO(pubKeyHash)
	if err != nil {
		return 0, err
	}
	var total uint32
	for _, out := range outs {
		total += out.Value
	}
	return total, nil
}
