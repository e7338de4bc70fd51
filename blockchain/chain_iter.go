package blockchain

import (
	"fmt"

	"github.com/golang-blockchain/store"
)

// Iterator is a cursor over the chain, starting at a tip and walking back
// to genesis one PrevHash link at a time. It is a distinct type from
// Chain itself: Chain owns mutation (AddBlock), Iterator only ever reads.
type Iterator struct {
	bucket      *store.Bucket
	currentHash []byte
}

// Next returns the block at the cursor and advances the cursor to its
// parent. Callers detect genesis by checking len(block.PrevHash) == 0.
// Panics if a block the chain links to is missing from the store, or if
// the block fails PoW/hash validation — see mustValidBlock.
func (it *Iterator) Next() (*Block, error) {
	raw, err := it.bucket.Get(it.currentHash)
	if err == store.ErrNotFound && len(it.currentHash) > 0 {
		panic(fmt.Errorf("%w: block %x linked from the chain is missing from the store", ErrBadTransaction, it.currentHash))
	}
	if err != nil {
		return nil, err
	}
	block, err := Deserialize(raw)
	if err != nil {
		return nil, err
	}
	mustValidBlock(block)
	it.currentHash = block.PrevHash
	return block, nil
}
