package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-blockchain/api"
	"github.com/golang-blockchain/netutil"
	"github.com/golang-blockchain/store"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "no .env file found, continuing with process environment\n")
	}

	storeDir := flag.String("store", envOr("NODE_STORE_DIR", "./store"), "directory holding the node's database")
	listenAddr := flag.String("listen", envOr("NODE_LISTEN_ADDR", "127.0.0.1:8080"), "address the HTTP control surface listens on")
	nodeID := flag.String("node-id", envOr("NODE_ID", ""), "node identifier, used to namespace the store directory")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dir := *storeDir
	if *nodeID != "" {
		dir = fmt.Sprintf("%s-%s", *storeDir, *nodeID)
	}
	db, err := store.Open(dir, log)
	if err != nil {
		log.Fatal("could not open store", zap.Error(err))
	}

	srv, err := api.NewServer(*listenAddr, db, log)
	if err != nil {
		log.Fatal("could not build server", zap.Error(err))
	}

	log.Info("node starting", zap.String("listen", *listenAddr), zap.String("store", dir))

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Info("server stopped", zap.Error(err))
		}
	}()

	netutil.WaitForShutdown(log, 10*time.Second, srv.Shutdown, db)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
