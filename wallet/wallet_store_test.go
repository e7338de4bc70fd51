package wallet

import (
	"testing"

	"github.com/golang-blockchain/store"
	"go.uber.org/zap"
)

func TestStoreCreateAndGet(t *testing.T) {
	db, err := store.Open(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ws := NewStore(db)
	addr, err := ws.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	w, err := ws.GetByAddress(addr)
	if err != nil {
		t.Fatalf("GetByAddress: %v", err)
	}
	if string(w.Address()) != string(addr) {
		t.Fatalf("recovered wallet address %q != %q", w.Address(), addr)
	}
}

func TestStoreGetUnknownAddress(t *testing.T) {
	db, err := store.Open(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ws := NewStore(db)
	if _, err := ws.GetByAddress([]byte("nope")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreGetAllAddresses(t *testing.T) {
	db, err := store.Open(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ws := NewStore(db)
	a1, _ := ws.Create()
	a2, _ := ws.Create()

	addrs, err := ws.GetAllAddresses()
	if err != nil {
		t.Fatalf("GetAllAddresses: %v", err)
	}
	if len(addrs) != 2 {
		t.Fatalf("got %d addresses, want 2", len(addrs))
	}
	seen := map[string]bool{}
	for _, a := range addrs {
		seen[string(a)] = true
	}
	if !seen[string(a1)] || !seen[string(a2)] {
		t.Fatalf("missing expected addresses in %v", addrs)
	}
}
