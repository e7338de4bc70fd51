// Package api is the HTTP control surface: one handler per route, a
// single mutex serializing every handler's access to the store, and a
// request-logging middleware wrapping the whole router. Grounded on the
// mux-routed REST server in the pack's wallet_backend_go service, with
// the CORS middleware there swapped for request logging since this node
// has no browser client to protect against cross-origin calls.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-blockchain/blockchain"
	"github.com/golang-blockchain/store"
	"github.com/golang-blockchain/wallet"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server holds every dependency a handler might need, and the single
// mutex that makes handler execution effectively sequential with respect
// to the chain.
type Server struct {
	mu     sync.Mutex
	db     *store.DB
	chain  *blockchain.Chain
	utxo   *blockchain.UTXOIndex
	wallet *wallet.Store
	log    *zap.Logger
	router *mux.Router
	http   *http.Server
}

// NewServer wires a router over db. If a chain already exists in db it is
// attached immediately; otherwise the server starts chainless until a
// POST / creates one.
func NewServer(addr string, db *store.DB, log *zap.Logger) (*Server, error) {
	s := &Server{db: db, wallet: wallet.NewStore(db), log: log}

	exists, err := blockchain.Exists(db)
	if err != nil {
		return nil, err
	}
	if exists {
		chain, err := blockchain.OpenChain(db, log)
		if err != nil {
			return nil, err
		}
		s.chain = chain
		s.utxo = blockchain.NewUTXOIndex(db, chain)
		if err := s.utxo.Reindex(); err != nil {
			return nil, err
		}
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleGetChain).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleInitChain).Methods(http.MethodPost)
	r.HandleFunc("/coins/{address}", s.handleGetBalance).Methods(http.MethodGet)
	r.HandleFunc("/coins", s.handleSendCoins).Methods(http.MethodPost)
	r.HandleFunc("/wallet", s.handleCreateWallet).Methods(http.MethodPost)
	r.HandleFunc("/wallet", s.handleListWallets).Methods(http.MethodGet)
	s.router = r

	s.http = &http.Server{
		Addr:    addr,
		Handler: s.loggingMiddleware(r),
	}
	return s, nil
}

// ListenAndServe blocks serving HTTP until the listener errors or is
// shut down.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Handler exposes the wrapped router for tests that drive it with
// httptest rather than a real listener.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// loggingMiddleware tags each request with a correlation ID and logs
// method, path, status, and latency once the handler returns.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.New().String()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.log.Info("request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
