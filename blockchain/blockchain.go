package blockchain

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/golang-blockchain/store"
	"github.com/golang-blockchain/wallet"
	"go.uber.org/zap"
)

// Chain is the append-only ledger: a tip pointer plus every block reachable
// from it by following PrevHash back to genesis.
type Chain struct {
	db  *store.DB
	log *zap.Logger
}

func blocksBucket(db *store.DB) *store.Bucket {
	return db.Bucket(store.BucketBlocks)
}

// NewChain bootstraps a fresh chain: a genesis block whose sole
// transaction is a coinbase reward to miner. Fails with
// ErrChainAlreadyExists if a tip is already recorded.
func NewChain(db *store.DB, miner *wallet.Wallet, log *zap.Logger) (*Chain, error) {
	blocks := blocksBucket(db)
	if _, err := blocks.Get(store.TipKey); err == nil {
		return nil, ErrChainAlreadyExists
	} else if err != store.ErrNotFound {
		return nil, err
	}

	cb, err := CoinbaseTx(miner, "")
	if err != nil {
		return nil, err
	}
	genesis, err := Genesis(cb)
	if err != nil {
		return nil, err
	}
	data, err := genesis.Serialize()
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(t *store.Txn) error {
		if err := t.Set(store.BucketBlocks, genesis.Hash, data); err != nil {
			return err
		}
		return t.Set(store.BucketBlocks, store.TipKey, genesis.Hash)
	}); err != nil {
		return nil, err
	}

	log.Info("genesis block created", zap.String("hash", genesis.Hash.String()))
	return &Chain{db: db, log: log}, nil
}

// OpenChain attaches to an already-initialized chain. Fails with
// ErrChainMissing if no tip is recorded yet.
func OpenChain(db *store.DB, log *zap.Logger) (*Chain, error) {
	blocks := blocksBucket(db)
	if _, err := blocks.Get(store.TipKey); err == store.ErrNotFound {
		return nil, ErrChainMissing
	} else if err != nil {
		return nil, err
	}
	return &Chain{db: db, log: log}, nil
}

// Exists reports whether a tip has already been recorded in db, without
// requiring a *Chain.
func Exists(db *store.DB) (bool, error) {
	_, err := blocksBucket(db).Get(store.TipKey)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Tip returns the hash of the current chain tip.
func (c *Chain) Tip() ([]byte, error) {
	return blocksBucket(c.db).Get(store.TipKey)
}

// GetBlock looks up a block by its hash. Panics if the stored block fails
// PoW/hash validation — see mustValidBlock.
func (c *Chain) GetBlock(hash []byte) (*Block, error) {
	raw, err := blocksBucket(c.db).Get(hash)
	if err != nil {
		return nil, err
	}
	block, err := Deserialize(raw)
	if err != nil {
		return nil, err
	}
	return mustValidBlock(block), nil
}

// Iterator returns a cursor starting at the current tip and walking back
// to genesis.
func (c *Chain) Iterator() (*Iterator, error) {
	tip, err := c.Tip()
	if err != nil {
		return nil, err
	}
	return &Iterator{bucket: blocksBucket(c.db), currentHash: tip}, nil
}

// AddBlock verifies every non-coinbase transaction, mines a block over
// them atop the current tip, and atomically stores the block and
// advances the tip.
func (c *Chain) AddBlock(transactions []*Transaction) (*Block, error) {
	for _, tx := range transactions {
		if tx.IsCoinbase() {
			continue
		}
		ok, err := c.VerifyTransaction(tx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: signature verification failed for tx %s", ErrBadTransaction, tx.ID)
		}
	}

	tip, err := c.Tip()
	if err != nil {
		return nil, err
	}
	block, err := NewBlock(transactions, tip)
	if err != nil {
		return nil, err
	}
	data, err := block.Serialize()
	if err != nil {
		return nil, err
	}

	if err := c.db.Update(func(t *store.Txn) error {
		if err := t.Set(store.BucketBlocks, block.Hash, data); err != nil {
			return err
		}
		return t.Set(store.BucketBlocks, store.TipKey, block.Hash)
	}); err != nil {
		return nil, err
	}

	c.log.Info("block mined", zap.String("hash", block.Hash.String()), zap.Int("txs", len(transactions)))
	return block, nil
}

// FindTransaction scans the chain from the tip backward for a transaction
// with the given ID.
func (c *Chain) FindTransaction(id []byte) (*Transaction, error) {
	it, err := c.Iterator()
	if err != nil {
		return nil, err
	}
	for {
		block, err := it.Next()
		if err != nil {
			return nil, err
		}
		for _, tx := range block.Transactions {
			if bytes.Equal(tx.ID, id) {
				return tx, nil
			}
		}
		if len(block.PrevHash) == 0 {
			break
		}
	}
	return nil, fmt.Errorf("transaction %x not found", id)
}

// SignTransaction resolves every input's previous transaction and signs
// tx with privateKey.
func (c *Chain) SignTransaction(tx *Transaction, privateKey ecdsa.PrivateKey) error {
	prevTXs, err := c.resolveInputs(tx)
	if err != nil {
		return err
	}
	return tx.Sign(privateKey, prevTXs)
}

// VerifyTransaction resolves every input's previous transaction and
// verifies tx's signatures.
func (c *Chain) VerifyTransaction(tx *Transaction) (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}
	prevTXs, err := c.resolveInputs(tx)
	if err != nil {
		return false, err
	}
	return tx.Verify(prevTXs)
}

func (c *Chain) resolveInputs(tx *Transaction) (map[string]*Transaction, error) {
	prevTXs := make(map[string]*Transaction, len(tx.Inputs))
	for _, in := range tx.Inputs {
		prevTX, err := c.FindTransaction(in.TxID)
		if err != nil {
			return nil, err
		}
		prevTXs[hex.EncodeToString(in.TxID)] = prevTX
	}
	return prevTXs, nil
}

// FindUTXO performs a full chain scan, returning every still-unspent
// output keyed by its owning transaction's hex ID. This is the fallback
// path the UTXO index uses to rebuild itself; ordinary lookups go through
// the index instead of calling this directly.
func (c *Chain) FindUTXO() (map[string]map[int32]TxOutput, error) {
	utxo := make(map[string]map[int32]TxOutput)
	spent := make(map[string]map[int32]bool)

	it, err := c.Iterator()
	if err != nil {
		return nil, err
	}
	for {
		block, err := it.Next()
		if err != nil {
			return nil, err
		}
		for _, tx := range block.Transactions {
			txID := hex.EncodeToString(tx.ID)

			for outIdx, out := range tx.Outputs {
				if spent[txID][int32(outIdx)] {
					continue
				}
				if utxo[txID] == nil {
					utxo[txID] = make(map[int32]TxOutput)
				}
				utxo[txID][int32(outIdx)] = out
			}

			if !tx.IsCoinbase() {
				for _, in := range tx.Inputs {
					inID := hex.EncodeToString(in.TxID)
					if spent[inID] == nil {
						spent[inID] = make(map[int32]bool)
					}
					spent[inID][in.OutputIndex] = true
				}
			}
		}
		if len(block.PrevHash) == 0 {
			break
		}
	}
	return utxo, nil
}
