package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-blockchain/blockchain"
	"github.com/golang-blockchain/wallet"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForErr maps a blockchain sentinel error to its HTTP status code,
// per the BadTransaction/BadRequest/StoreError taxonomy.
func statusForErr(err error) int {
	switch {
	case errors.Is(err, blockchain.ErrChainMissing):
		return http.StatusNotFound
	case errors.Is(err, blockchain.ErrChainAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, blockchain.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, blockchain.ErrNotEnoughFunds):
		return http.StatusBadRequest
	case errors.Is(err, blockchain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, blockchain.ErrBadTransaction):
		return http.StatusInternalServerError
	case errors.Is(err, blockchain.ErrStore):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// lookupWallet resolves addr to its registered wallet, wrapping a miss as
// ErrWalletNotFound so callers can route it through statusForErr uniformly.
func (s *Server) lookupWallet(addr []byte) (*wallet.Wallet, error) {
	w, err := s.wallet.GetByAddress(addr)
	if errors.Is(err, wallet.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", blockchain.ErrWalletNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", blockchain.ErrStore, err)
	}
	return w, nil
}

type initChainRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleInitChain(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var req initChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	asciiAddr, err := decodeAddress(req.Address)
	if err != nil {
		writeError(w, statusForErr(fmt.Errorf("%w: %v", blockchain.ErrBadRequest, err)), "malformed address")
		return
	}

	miner, err := s.lookupWallet(asciiAddr)
	if err != nil {
		writeError(w, statusForErr(err), "wallet not found")
		return
	}

	chain, err := blockchain.NewChain(s.db, miner, s.log)
	if errors.Is(err, blockchain.ErrChainAlreadyExists) {
		writeError(w, statusForErr(err), "chain already exists")
		return
	}
	if err != nil {
		s.log.Error("init chain failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not initialize chain")
		return
	}

	utxo := blockchain.NewUTXOIndex(s.db, chain)
	if err := utxo.Reindex(); err != nil {
		s.log.Error("reindex after init failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not build utxo index")
		return
	}
	s.chain = chain
	s.utxo = utxo

	blocks, err := collectBlocks(s.chain)
	if err != nil {
		s.log.Error("collect blocks failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not read chain")
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (s *Server) handleGetChain(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chain == nil {
		writeError(w, http.StatusNotFound, "no chain found")
		return
	}
	blocks, err := collectBlocks(s.chain)
	if err != nil {
		s.log.Error("collect blocks failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not read chain")
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func collectBlocks(chain *blockchain.Chain) ([]*blockchain.Block, error) {
	it, err := chain.Iterator()
	if err != nil {
		return nil, err
	}
	var blocks []*blockchain.Block
	for {
		block, err := it.Next()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
		if len(block.PrevHash) == 0 {
			break
		}
	}
	return blocks, nil
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chain == nil {
		writeError(w, http.StatusNotFound, "no chain found")
		return
	}

	addrHex := mux.Vars(r)["address"]
	asciiAddr, err := decodeAddress(addrHex)
	if err != nil {
		writeError(w, http.StatusNotFound, "wallet not found")
		return
	}

	if _, err := s.lookupWallet(asciiAddr); err != nil {
		writeError(w, statusForErr(err), "wallet not found")
		return
	}

	balance, err := s.utxo.GetBalance(asciiAddr)
	if err != nil {
		writeError(w, http.StatusNotFound, "wallet not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint32{"balance": balance})
}

type sendCoinsRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint32 `json:"amount"`
}

func (s *Server) handleSendCoins(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chain == nil {
		writeError(w, http.StatusNotFound, "no chain found")
		return
	}

	var req sendCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Amount == 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if req.From == req.To {
		writeError(w, http.StatusBadRequest, "cannot send to self")
		return
	}

	fromAscii, err := decodeAddress(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed from address")
		return
	}
	toAscii, err := decodeAddress(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed to address")
		return
	}

	fromWallet, err := s.lookupWallet(fromAscii)
	if err != nil {
		writeError(w, statusForErr(err), "sender wallet not found")
		return
	}

	// Per this node's chosen reward policy, a send also mints a fresh
	// coinbase to the sender in the same block as the transfer.
	coinbase, err := blockchain.CoinbaseTx(fromWallet, "")
	if err != nil {
		s.log.Error("coinbase build failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	transfer, err := blockchain.NewTransferTransaction(fromWallet, toAscii, req.Amount, s.utxo, s.chain)
	if errors.Is(err, blockchain.ErrNotEnoughFunds) {
		writeError(w, statusForErr(err), "not enough funds")
		return
	}
	if err != nil {
		s.log.Error("transfer build failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	block, err := s.chain.AddBlock([]*blockchain.Transaction{coinbase, transfer})
	if err != nil {
		s.log.Error("add block failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := s.utxo.Update(block); err != nil {
		s.log.Error("utxo update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, err := s.wallet.Create()
	if err != nil {
		s.log.Error("wallet create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create wallet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"wallet_address": encodeAddress(addr)})
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addrs, err := s.wallet.GetAllAddresses()
	if err != nil {
		s.log.Error("wallet list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list wallets")
		return
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = encodeAddress(a)
	}
	writeJSON(w, http.StatusOK, out)
}
