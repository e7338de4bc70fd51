package store

import (
	"testing"

	"go.uber.org/zap"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBucketSetGet(t *testing.T) {
	db := openTest(t)
	b := db.Bucket(BucketBlocks)

	if _, err := b.Get([]byte("missing")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := b.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := b.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("got %q, want %q", got, "v")
	}
}

func TestBucketsAreIsolated(t *testing.T) {
	db := openTest(t)
	blocks := db.Bucket(BucketBlocks)
	wallets := db.Bucket(BucketWallets)

	if err := blocks.Set([]byte("1"), []byte("tip-hash")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := wallets.Get([]byte("1")); err != ErrNotFound {
		t.Fatalf("expected wallets bucket to not see blocks' key, got %v", err)
	}
}

func TestBucketLenAndClear(t *testing.T) {
	db := openTest(t)
	b := db.Bucket(BucketChainstate)

	for i := 0; i < 5; i++ {
		if err := b.Set([]byte{byte(i)}, []byte("x")); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	n, err := b.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 5 {
		t.Fatalf("Len = %d, want 5", n)
	}
	if err := b.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	n, err = b.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 0 {
		t.Fatalf("Len after Clear = %d, want 0", n)
	}
}

func TestTxnCommitsBlockAndTip(t *testing.T) {
	db := openTest(t)
	err := db.Update(func(t *Txn) error {
		if err := t.Set(BucketBlocks, []byte("h1"), []byte("block-data")); err != nil {
			return err
		}
		return t.Set(BucketBlocks, TipKey, []byte("h1"))
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	tip, err := db.Bucket(BucketBlocks).Get(TipKey)
	if err != nil {
		t.Fatalf("Get tip: %v", err)
	}
	if string(tip) != "h1" {
		t.Fatalf("tip = %q, want %q", tip, "h1")
	}
}

func TestIterStripsPrefix(t *testing.T) {
	db := openTest(t)
	b := db.Bucket(BucketWallets)
	want := map[string]string{"addr1": "key1", "addr2": "key2"}
	for k, v := range want {
		if err := b.Set([]byte(k), []byte(v)); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	got := map[string]string{}
	err := b.Iter(func(k, v []byte) error {
		got[string(k)] = string(v)
		return nil
	})
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("got[%q] = %q, want %q", k, got[k], v)
		}
	}
}
