package session

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"

	"github.com/fardannozami/wa-session-gateway/internal/metrics"
	"github.com/rs/zerolog"
)

var sessionKeyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func ValidateID(id string) error {
	if !sessionKeyRe.MatchString(id) {
		return ErrInvalidSession
	}
	return nil
}

// ClosedStore remembers sessions that were closed on purpose so they are not
// restored on the next boot.
type ClosedStore interface {
	MarkClosed(id string) error
	ClearClosed(id string) error
}

type entry struct {
	conn    *Connection
	closing chan struct{}
}

// Registry maps session ids to their Connection. Creation and removal of the same id
// are serialized: a GetOrCreate that races a Remove waits for the removal to finish
// and then builds a fresh Connection.
type Registry struct {
	factory TransportFactory
	opts    Options
	log     zerolog.Logger
	closed  ClosedStore

	mu       sync.Mutex
	entries  map[string]*entry
	shutdown bool
}

func NewRegistry(factory TransportFactory, opts Options, logger zerolog.Logger) *Registry {
	return &Registry{
		factory: factory,
		opts:    opts,
		log:     logger,
		entries: make(map[string]*entry),
	}
}

func (r *Registry) WithClosedStore(s ClosedStore) *Registry {
	r.closed = s
	return r
}

// GetOrCreate returns the Connection for id, creating it and starting its first
// connect cycle when absent. created reports whether this call built it.
func (r *Registry) GetOrCreate(id string) (conn *Connection, created bool, err error) {
	if err := ValidateID(id); err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	for {
		if r.shutdown {
			r.mu.Unlock()
			return nil, false, ErrSessionClosed
		}
		e, ok := r.entries[id]
		if !ok {
			break
		}
		if e.closing == nil {
			r.mu.Unlock()
			return e.conn, false, nil
		}
		wait := e.closing
		r.mu.Unlock()
		<-wait
		r.mu.Lock()
	}

	conn = NewConnection(id, r.factory, r.opts, r.log)
	r.entries[id] = &entry{conn: conn}
	n := len(r.entries)
	r.mu.Unlock()

	metrics.SetActiveSessions(n)
	if r.closed != nil {
		if err := r.closed.ClearClosed(id); err != nil {
			r.log.Warn().Err(err).Str("session", id).Msg("clear closed marker")
		}
	}

	r.log.Info().Str("session", id).Msg("session created")
	conn.Open()
	return conn, true, nil
}

// Get looks id up without side effects. Sessions being removed are not returned.
func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.closing != nil {
		return nil, false
	}
	return e.conn, true
}

// Remove permanently closes the session and drops it from the registry. It
// reports whether the id was known.
func (r *Registry) Remove(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	if e.closing != nil {
		wait := e.closing
		r.mu.Unlock()
		select {
		case <-wait:
			return true, nil
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
	e.closing = make(chan struct{})
	r.mu.Unlock()

	err := e.conn.Close(ctx)
	if err != nil && !errors.Is(err, ErrSessionClosed) {
		r.log.Warn().Err(err).Str("session", id).Msg("close session")
	}
	e.conn.release()

	r.mu.Lock()
	delete(r.entries, id)
	close(e.closing)
	n := len(r.entries)
	r.mu.Unlock()

	metrics.SetActiveSessions(n)
	if r.closed != nil {
		if err := r.closed.MarkClosed(id); err != nil {
			r.log.Warn().Err(err).Str("session", id).Msg("mark session closed")
		}
	}

	r.log.Info().Str("session", id).Msg("session removed")
	return true, nil
}

// IDs returns a sorted snapshot of the active session ids.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.entries))
	for id, e := range r.entries {
		if e.closing == nil {
			out = append(out, id)
		}
	}
	r.mu.Unlock()

	sort.Strings(out)
	return out
}

// Shutdown stops every session without logging out, so credentials survive a
// restart. The registry refuses new sessions afterwards.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	r.shutdown = true
	conns := make([]*Connection, 0, len(r.entries))
	for _, e := range r.entries {
		conns = append(conns, e.conn)
	}
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func(conn *Connection) {
			defer wg.Done()
			if err := conn.Stop(ctx); err != nil && !errors.Is(err, ErrSessionClosed) {
				r.log.Warn().Err(err).Str("session", conn.ID()).Msg("stop session")
			}
			conn.release()
		}(conn)
	}
	wg.Wait()
	metrics.SetActiveSessions(0)
}
