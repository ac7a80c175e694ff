package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"inventory-engine/pkg/container"
	"inventory-engine/pkg/logger"
)

// Serve builds the container, serves until SIGINT/SIGTERM, then drains.
func Serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer("api")
	if err != nil {
		return err
	}
	defer c.Cleanup()

	srv := newHTTPServer(c)
	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Inventory API listening on %s (env: %s)", srv.Addr, c.Config.App.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down, draining in-flight postings...")

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout(c.Config.Engine.OperationTimeout))
	defer cancel()

	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Error("API forced to shut down", err)
		return err
	}
	log.Println("✅ API stopped")
	return nil
}

func newHTTPServer(c *container.Container) *http.Server {
	// A posting may spend the whole operation timeout retrying, so the write
	// deadline must exceed it.
	write := c.Config.Engine.OperationTimeout + 5*time.Second

	return &http.Server{
		Addr:              net.JoinHostPort("", c.Config.App.Port),
		Handler:           SetupRouter(c),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// drainTimeout gives in-flight units of work one full operation timeout to
// commit, with a floor for very short settings.
func drainTimeout(op time.Duration) time.Duration {
	if op < 10*time.Second {
		return 10 * time.Second
	}
	return op + 2*time.Second
}
