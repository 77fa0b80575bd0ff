package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memClosedStore struct {
	mu     sync.Mutex
	closed map[string]bool
}

func (s *memClosedStore) MarkClosed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed == nil {
		s.closed = make(map[string]bool)
	}
	s.closed[id] = true
	return nil
}

func (s *memClosedStore) ClearClosed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.closed, id)
	return nil
}

func (s *memClosedStore) isClosed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed[id]
}

func newTestRegistry(t *testing.T, f *fakeFactory) *Registry {
	t.Helper()
	r := NewRegistry(f, testOptions(), zerolog.Nop())
	t.Cleanup(func() { r.Shutdown(context.Background()) })
	return r
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"a", "user_1", "Sales-Team", "0123"} {
		assert.NoError(t, ValidateID(id), id)
	}
	for _, id := range []string{"", "a b", "../etc", "a/b", "ümlaut", "x.y"} {
		assert.ErrorIs(t, ValidateID(id), ErrInvalidSession, id)
	}
}

func TestRegistryGetOrCreateOpensOnce(t *testing.T) {
	f := &fakeFactory{}
	r := newTestRegistry(t, f)

	const n = 16
	conns := make([]*Connection, n)
	created := make([]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, ok, err := r.GetOrCreate("shop")
			assert.NoError(t, err)
			conns[i], created[i] = c, ok
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for i := range conns {
		assert.Same(t, conns[0], conns[i])
		if created[i] {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)
	requireTransports(t, f, 1)
	requireState(t, conns[0], StateConnecting)
}

func TestRegistryGetOrCreateRejectsInvalidID(t *testing.T) {
	f := &fakeFactory{}
	r := newTestRegistry(t, f)

	_, _, err := r.GetOrCreate("bad id")
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Empty(t, r.IDs())
	assert.Equal(t, 0, f.count())
}

func TestRegistryGetHasNoSideEffects(t *testing.T) {
	f := &fakeFactory{}
	r := newTestRegistry(t, f)

	_, ok := r.Get("nobody")
	assert.False(t, ok)
	assert.Empty(t, r.IDs())

	c, _, err := r.GetOrCreate("one")
	require.NoError(t, err)
	got, ok := r.Get("one")
	require.True(t, ok)
	assert.Same(t, c, got)
}

func TestRegistryRemove(t *testing.T) {
	f := &fakeFactory{}
	store := &memClosedStore{}
	r := newTestRegistry(t, f).WithClosedStore(store)

	c, _, err := r.GetOrCreate("one")
	require.NoError(t, err)
	requireTransports(t, f, 1)
	f.latest().emit(TransportEvent{Kind: EventOpen})
	requireState(t, c, StateConnected)

	ok, err := r.Remove(context.Background(), "one")
	require.NoError(t, err)
	assert.True(t, ok)

	_, found := r.Get("one")
	assert.False(t, found)
	assert.Empty(t, r.IDs())
	assert.True(t, store.isClosed("one"))
	assert.Equal(t, []string{"one"}, f.purgedIDs())
	_, _, logouts, _ := f.latest().counts()
	assert.Equal(t, 1, logouts)

	ok, err = r.Remove(context.Background(), "one")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryRecreateAfterRemove(t *testing.T) {
	f := &fakeFactory{}
	store := &memClosedStore{}
	r := newTestRegistry(t, f).WithClosedStore(store)

	first, _, err := r.GetOrCreate("one")
	require.NoError(t, err)
	_, err = r.Remove(context.Background(), "one")
	require.NoError(t, err)
	require.True(t, store.isClosed("one"))

	second, created, err := r.GetOrCreate("one")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotSame(t, first, second)
	assert.False(t, store.isClosed("one"))
	requireState(t, second, StateConnecting)
}

func TestRegistryIDsSorted(t *testing.T) {
	r := newTestRegistry(t, &fakeFactory{})
	for _, id := range []string{"zeta", "alpha", "mid"} {
		_, _, err := r.GetOrCreate(id)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.IDs())
}

func TestRegistryShutdownStopsAndRefuses(t *testing.T) {
	f := &fakeFactory{}
	r := NewRegistry(f, testOptions(), zerolog.Nop())

	c, _, err := r.GetOrCreate("one")
	require.NoError(t, err)
	requireTransports(t, f, 1)
	f.latest().emit(TransportEvent{Kind: EventOpen})
	requireState(t, c, StateConnected)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Shutdown(ctx)

	assert.Empty(t, r.IDs())
	assert.Empty(t, f.purgedIDs())
	_, ends, logouts, _ := f.latest().counts()
	assert.Equal(t, 1, ends)
	assert.Equal(t, 0, logouts)

	_, _, err = r.GetOrCreate("two")
	assert.ErrorIs(t, err, ErrSessionClosed)
}
