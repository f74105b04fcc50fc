package application

import (
	"sync"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

// Gate guards vault state while a restore swaps the underlying files.
// Ordinary operations hold a shared slot; a restore takes the exclusive side,
// waiting for in-flight operations to drain, and leaves the gate closed so
// later operations fail fast with model.ErrVaultUnavailable.
type Gate struct {
	mu     sync.RWMutex
	closed bool
}

// NewGate returns an open gate.
func NewGate() *Gate {
	return &Gate{}
}

// Enter acquires a shared slot. The returned release func must be called
// exactly once when the operation completes.
func (g *Gate) Enter() (release func(), err error) {
	g.mu.RLock()
	if g.closed {
		g.mu.RUnlock()
		return nil, model.ErrVaultUnavailable
	}
	return g.mu.RUnlock, nil
}

// Close blocks until every in-flight operation has released its slot, then
// marks the gate closed. reopen undoes the close when the restore is
// abandoned before any live file was touched.
func (g *Gate) Close() (reopen func()) {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		g.closed = false
		g.mu.Unlock()
	}
}

// IsClosed reports whether the gate currently rejects operations.
func (g *Gate) IsClosed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.closed
}
