package blockchain

import (
	"testing"

	"github.com/golang-blockchain/store"
	"github.com/golang-blockchain/wallet"
	"go.uber.org/zap"
)

func newTestChain(t *testing.T, miner *wallet.Wallet) (*Chain, *UTXOIndex, *store.DB) {
	t.Helper()
	db, err := store.Open(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	chain, err := NewChain(db, miner, zap.NewNop())
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	utxo := NewUTXOIndex(db, chain)
	if err := utxo.Reindex(); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	return chain, utxo, db
}

func TestGenesisBalance(t *testing.T) {
	w1, err := wallet.MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	_, utxo, _ := newTestChain(t, w1)

	bal, err := utxo.GetBalance(w1.Address())
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if bal != RewardAmount {
		t.Fatalf("genesis balance = %d, want %d", bal, RewardAmount)
	}
}

func TestDoubleInitRejected(t *testing.T) {
	w1, err := wallet.MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	db, err := store.Open(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := NewChain(db, w1, zap.NewNop()); err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if _, err := NewChain(db, w1, zap.NewNop()); err != ErrChainAlreadyExists {
		t.Fatalf("second NewChain: got %v, want ErrChainAlreadyExists", err)
	}
}

func TestTransferUpdatesBalances(t *testing.T) {
	w1, err := wallet.MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	w2, err := wallet.MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	chain, utxo, _ := newTestChain(t, w1)

	cb, err := CoinbaseTx(w1, "")
	if err != nil {
		t.Fatalf("CoinbaseTx: %v", err)
	}
	transfer, err := NewTransferTransaction(w1, w2.Address(), 3, utxo, chain)
	if err != nil {
		t.Fatalf("NewTransferTransaction: %v", err)
	}

	block, err := chain.AddBlock([]*Transaction{cb, transfer})
	if err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if err := utxo.Update(block); err != nil {
		t.Fatalf("Update: %v", err)
	}

	balA1, err := utxo.GetBalance(w1.Address())
	if err != nil {
		t.Fatalf("GetBalance A1: %v", err)
	}
	balA2, err := utxo.GetBalance(w2.Address())
	if err != nil {
		t.Fatalf("GetBalance A2: %v", err)
	}
	if balA1 != 17 {
		t.Fatalf("A1 balance = %d, want 17", balA1)
	}
	if balA2 != 3 {
		t.Fatalf("A2 balance = %d, want 3", balA2)
	}
}

func TestInsufficientFundsRejected(t *testing.T) {
	w1, err := wallet.MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	w2, err := wallet.MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	chain, utxo, _ := newTestChain(t, w1)

	if _, err := NewTransferTransaction(w2, w1.Address(), 9999, utxo, chain); err == nil {
		t.Fatalf("expected ErrNotEnoughFunds, got nil")
	}
}

func TestReindexMatchesIncrementalUpdate(t *testing.T) {
	w1, err := wallet.MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	w2, err := wallet.MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	chain, utxo, db := newTestChain(t, w1)

	cb, err := CoinbaseTx(w1, "")
	if err != nil {
		t.Fatalf("CoinbaseTx: %v", err)
	}
	transfer, err := NewTransferTransaction(w1, w2.Address(), 3, utxo, chain)
	if err != nil {
		t.Fatalf("NewTransferTransaction: %v", err)
	}
	block, err := chain.AddBlock([]*Transaction{cb, transfer})
	if err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if err := utxo.Update(block); err != nil {
		t.Fatalf("Update: %v", err)
	}

	incremental, err := utxo.GetBalance(w1.Address())
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}

	fresh := NewUTXOIndex(db, chain)
	if err := fresh.Reindex(); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	reindexed, err := fresh.GetBalance(w1.Address())
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}

	if incremental != reindexed {
		t.Fatalf("incremental balance %d != reindexed balance %d", incremental, reindexed)
	}
}

func TestChainIteratorReachesGenesis(t *testing.T) {
	w1, err := wallet.MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	chain, _, _ := newTestChain(t, w1)

	it, err := chain.Iterator()
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	block, err := it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(block.PrevHash) != 0 {
		t.Fatalf("expected genesis block with empty PrevHash, got %x", block.PrevHash)
	}
}

// TestTamperedBlockHaltsIteration asserts that a block rewritten directly in
// the store (bypassing AddBlock) is caught the moment iteration reaches it:
// a corrupted chain must never be served as if it were valid.
func TestTamperedBlockHaltsIteration(t *testing.T) {
	w1, err := wallet.MakeWallet()
	if err != nil {
		t.Fatalf("MakeWallet: %v", err)
	}
	chain, _, db := newTestChain(t, w1)

	tip, err := chain.Tip()
	if err != nil {
		t.Fatalf("Tip: %v", err)
	}
	genesis, err := chain.GetBlock(tip)
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}

	genesis.Nonce += 1
	data, err := genesis.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if err := db.Update(func(t *store.Txn) error {
		return t.Set(store.BucketBlocks, genesis.Hash, data)
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic on tampered block, got none")
		}
	}()
	it, err := chain.Iterator()
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	_, _ = it.Next()
	t.Fatalf("Next returned without panicking on a tampered block")
}
