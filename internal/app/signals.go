package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

// GracefulShutdownTimeout bounds waiting for running builds on exit.
const GracefulShutdownTimeout = 10 * time.Second

// ErrShuttingDown is returned when a build is started after Drain.
var ErrShuttingDown = errors.New("server is shutting down")

// BuildGroup runs builds in the background and lets shutdown wait for them.
type BuildGroup struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	draining bool
}

// Go runs fn in a new goroutine unless the group is draining.
func (g *BuildGroup) Go(fn func()) error {
	g.mu.Lock()
	if g.draining {
		g.mu.Unlock()
		return ErrShuttingDown
	}
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		fn()
	}()
	return nil
}

// Drain refuses new builds and waits up to timeout for running ones.
// It reports whether every build finished in time.
func (g *BuildGroup) Drain(timeout time.Duration) bool {
	g.mu.Lock()
	g.draining = true
	g.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(finished)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-finished:
		return true
	case <-timer.C:
		return false
	}
}

// InterruptContext returns a context cancelled by the first Ctrl+C or
// SIGTERM. A second signal exits the process. The returned stop function
// releases the handler.
func InterruptContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			logging.Debug("received signal", "signal", sig)
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigChan:
			logging.Warn("second interrupt, exiting")
			os.Exit(130)
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
			cancel()
		})
	}
}
