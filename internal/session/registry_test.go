package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryOpenGetClose(t *testing.T) {
	r := NewRegistry(testConfig(), testGroups()...)
	defer r.CloseAll()

	s, err := r.Open(context.Background(), testLayout())
	require.NoError(t, err)
	_, err = uuid.Parse(s.ID())
	assert.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, r.Close(s.ID()))
	assert.Zero(t, r.Len())
	assert.ErrorIs(t, r.Close(s.ID()), ErrNotFound)

	_, err = r.Get(s.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryReapsIdleSessions(t *testing.T) {
	cfg := testConfig()
	cfg.SessionIdleTimeout = time.Minute
	r := NewRegistry(cfg)
	defer r.CloseAll()

	idle, err := r.Open(context.Background(), testLayout())
	require.NoError(t, err)
	watched, err := r.Open(context.Background(), testLayout())
	require.NoError(t, err)
	_, detach := watched.Frames()
	defer detach()

	assert.Zero(t, r.Reap(time.Now()))
	assert.Equal(t, 1, r.Reap(time.Now().Add(2*time.Minute)))

	_, err = r.Get(idle.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	<-idle.Done()

	_, err = r.Get(watched.ID())
	assert.NoError(t, err)
}

func TestRegistryRunClosesOnCancel(t *testing.T) {
	r := NewRegistry(testConfig())
	s, err := r.Open(context.Background(), testLayout())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Zero(t, r.Len())
	<-s.Done()
}

func TestRegistryRefusesPastMaxSessions(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSessions = 2
	r := NewRegistry(cfg, testGroups()...)
	defer r.CloseAll()

	first, err := r.Open(context.Background(), testLayout())
	require.NoError(t, err)
	_, err = r.Open(context.Background(), testLayout())
	require.NoError(t, err)

	for range 5 {
		_, err = r.Open(context.Background(), testLayout())
		assert.ErrorIs(t, err, ErrFull)
	}
	assert.Equal(t, 2, r.Len())

	// Closing one frees its slot.
	require.NoError(t, r.Close(first.ID()))
	_, err = r.Open(context.Background(), testLayout())
	assert.NoError(t, err)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryCapHoldsUnderConcurrentOpens(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSessions = 3
	r := NewRegistry(cfg)
	defer r.CloseAll()

	var wg sync.WaitGroup
	var opened atomic.Int32
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Open(context.Background(), testLayout()); err == nil {
				opened.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrFull)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), opened.Load())
	assert.Equal(t, 3, r.Len())
}
