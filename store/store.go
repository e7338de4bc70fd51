// Package store wraps a single badger database in three prefix-namespaced
// buckets, the way petiibhuzah-golang-blockchain fakes a "utxo-" bucket over
// one badger keyspace in blockchain/utxo.go, generalized to three buckets.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Bucket names. Stored as key prefixes inside the single badger keyspace.
const (
	BucketBlocks     = "blocks"
	BucketChainstate = "chainstate"
	BucketWallets    = "wallets"
)

// TipKey is the distinguished key in the blocks bucket holding the tip hash.
var TipKey = []byte("1")

var ErrNotFound = fmt.Errorf("store: key not found")

// DB is the process-wide KV handle. One instance per running node.
type DB struct {
	badger *badger.DB
	log    *zap.Logger
}

// Open opens (or creates) the badger database rooted at dir.
func Open(dir string, log *zap.Logger) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	bdb, err := openWithRetry(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &DB{badger: bdb, log: log}, nil
}

func openWithRetry(dir string, opts badger.Options) (*badger.DB, error) {
	db, err := badger.Open(opts)
	if err == nil {
		return db, nil
	}
	if !strings.Contains(err.Error(), "LOCK") {
		return nil, err
	}
	lockPath := filepath.Join(dir, "LOCK")
	if rmErr := os.Remove(lockPath); rmErr != nil {
		return nil, err
	}
	return badger.Open(opts)
}

// Exists reports whether a badger database already lives at dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "MANIFEST"))
	return err == nil
}

func (db *DB) Close() error {
	return db.badger.Close()
}

// Bucket returns a namespaced view over the shared keyspace.
func (db *DB) Bucket(name string) *Bucket {
	return &Bucket{db: db.badger, prefix: []byte(name + ":")}
}

// Bucket is a key prefix scoped over the shared badger keyspace.
type Bucket struct {
	db     *badger.DB
	prefix []byte
}

func (b *Bucket) key(k []byte) []byte {
	out := make([]byte, 0, len(b.prefix)+len(k))
	out = append(out, b.prefix...)
	out = append(out, k...)
	return out
}

// Get reads a value; ErrNotFound if the key is absent.
func (b *Bucket) Get(k []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(k))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

// Set writes a single key/value pair in its own transaction.
func (b *Bucket) Set(k, v []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(k), v)
	})
}

// Remove deletes a key. No error if it was already absent.
func (b *Bucket) Remove(k []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key(k))
	})
}

// Len counts the keys currently in the bucket.
func (b *Bucket) Len() (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(b.prefix); it.ValidForPrefix(b.prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Iter walks every key/value pair in the bucket, prefix stripped from the
// key passed to fn. Iteration stops at the first error fn returns.
func (b *Bucket) Iter(fn func(key, val []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(b.prefix); it.ValidForPrefix(b.prefix); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)[len(b.prefix):]
			var v []byte
			if err := item.Value(func(val []byte) error {
				v = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return err
			}
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear deletes every key in the bucket, batching deletes the way
// petiibhuzah-golang-blockchain's DeleteByPrefix does for the old utxo-
// prefix, generalized to any bucket.
func (b *Bucket) Clear() error {
	const batchSize = 100000
	for {
		keys, err := b.collectKeys(batchSize)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}
		if err := b.db.Update(func(txn *badger.Txn) error {
			for _, k := range keys {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}
}

func (b *Bucket) collectKeys(limit int) ([][]byte, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(b.prefix); it.ValidForPrefix(b.prefix) && len(keys) < limit; it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

// Txn is a cross-bucket atomic write batch.
type Txn struct {
	db  *badger.DB
	txn *badger.Txn
}

// Update runs fn inside one atomic badger transaction. Use the *Txn handed
// to fn to write into any bucket of this DB; all writes commit together or
// not at all, matching the atomic block+tip and UTXO input/output updates
// the chain and UTXO index rely on.
func (db *DB) Update(fn func(t *Txn) error) error {
	return db.badger.Update(func(txn *badger.Txn) error {
		return fn(&Txn{db: db.badger, txn: txn})
	})
}

func (t *Txn) Set(bucket string, k, v []byte) error {
	return t.txn.Set(append([]byte(bucket+":"), k...), v)
}

func (t *Txn) Get(bucket string, k []byte) ([]byte, error) {
	item, err := t.txn.Get(append([]byte(bucket+":"), k...))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *Txn) Delete(bucket string, k []byte) error {
	return t.txn.Delete(append([]byte(bucket+":"), k...))
}
