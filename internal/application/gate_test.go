package application

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

func TestGate_EnterWhileOpen(t *testing.T) {
	g := NewGate()

	release, err := g.Enter()
	require.NoError(t, err)
	release()
	assert.False(t, g.IsClosed())
}

func TestGate_CloseRejectsNewOperations(t *testing.T) {
	g := NewGate()
	reopen := g.Close()

	_, err := g.Enter()
	assert.ErrorIs(t, err, model.ErrVaultUnavailable)
	assert.True(t, g.IsClosed())

	reopen()
	release, err := g.Enter()
	require.NoError(t, err)
	release()
}

func TestGate_CloseWaitsForInFlight(t *testing.T) {
	g := NewGate()

	release, err := g.Enter()
	require.NoError(t, err)

	var closed atomic.Bool
	done := make(chan struct{})
	go func() {
		g.Close()
		closed.Store(true)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, closed.Load(), "close must wait for the in-flight operation")

	release()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not complete after release")
	}
	assert.True(t, g.IsClosed())
}
