package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/dispatch"
	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubTransport struct {
	emit func(session.TransportEvent)

	mu   sync.Mutex
	sent []string
}

func (t *stubTransport) Connect(ctx context.Context) error { return nil }

func (t *stubTransport) Send(ctx context.Context, to string, p session.Payload) (session.Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, to)
	return session.Receipt{ID: "MSG", Timestamp: time.Unix(1700000000, 0)}, nil
}

func (t *stubTransport) Logout(ctx context.Context) error { return nil }
func (t *stubTransport) End() error                       { return nil }

func (t *stubTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

type stubFactory struct {
	mu         sync.Mutex
	transports map[string]*stubTransport
	purged     []string
}

func (f *stubFactory) NewTransport(id string, emit func(session.TransportEvent)) (session.Transport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transports == nil {
		f.transports = make(map[string]*stubTransport)
	}
	t := &stubTransport{emit: emit}
	f.transports[id] = t
	return t, nil
}

func (f *stubFactory) PurgeCredentials(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged = append(f.purged, id)
	return nil
}

func (f *stubFactory) transport(t *testing.T, id string) *stubTransport {
	t.Helper()
	var tr *stubTransport
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		tr = f.transports[id]
		return tr != nil
	}, 2*time.Second, 5*time.Millisecond)
	return tr
}

type fixture struct {
	factory    *stubFactory
	registry   *session.Registry
	dispatcher *dispatch.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	opts := session.DefaultOptions()
	opts.PairingWait = time.Second
	opts.Reconnect = session.ReconnectPolicy{Base: 5 * time.Millisecond, Growth: 1.5, Cap: 20 * time.Millisecond}

	f := &stubFactory{}
	reg := session.NewRegistry(f, opts, zerolog.Nop())
	t.Cleanup(func() { reg.Shutdown(context.Background()) })

	return &fixture{
		factory:    f,
		registry:   reg,
		dispatcher: dispatch.New(dispatch.Options{}, zerolog.Nop()),
	}
}

// connect creates id and drives it to Connected.
func (fx *fixture) connect(t *testing.T, id string) *session.Connection {
	t.Helper()
	conn, _, err := fx.registry.GetOrCreate(id)
	require.NoError(t, err)
	fx.factory.transport(t, id).emit(session.TransportEvent{Kind: session.EventOpen})
	require.Eventually(t, func() bool { return conn.State() == session.StateConnected }, 2*time.Second, 5*time.Millisecond)
	return conn
}
