// Package netutil provides the node's process lifecycle: waiting for a
// termination signal and draining the HTTP server and store cleanly.
package netutil

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/vrecan/death/v3"
	"go.uber.org/zap"
)

// Closer is anything that needs to shut down cleanly before process exit.
type Closer interface {
	Close() error
}

// ShutdownFunc gracefully stops serving new work, given a deadline context.
type ShutdownFunc func(ctx context.Context) error

// WaitForShutdown blocks until SIGINT, SIGTERM, or os.Interrupt, then
// runs shutdown with a bounded deadline and closes every closer in order.
func WaitForShutdown(log *zap.Logger, timeout time.Duration, shutdown ShutdownFunc, closers ...Closer) {
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	d.WaitForDeathWithFunc(func() {
		log.Info("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if shutdown != nil {
			if err := shutdown(ctx); err != nil {
				log.Error("server shutdown error", zap.Error(err))
			}
		}
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Error("closer error", zap.Error(err))
			}
		}
		log.Info("shutdown complete")
	})
}
