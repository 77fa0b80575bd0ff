package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	emit func(TransportEvent)

	mu         sync.Mutex
	connects   int
	ends       int
	logouts    int
	sent       []Payload
	sendErr    error
	connectErr error
}

func (t *fakeTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connects++
	return t.connectErr
}

func (t *fakeTransport) Send(ctx context.Context, to string, p Payload) (Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return Receipt{}, t.sendErr
	}
	t.sent = append(t.sent, p)
	return Receipt{ID: "MSG-" + to, Timestamp: time.Unix(1700000000, 0)}, nil
}

func (t *fakeTransport) Logout(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logouts++
	return nil
}

func (t *fakeTransport) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ends++
	return nil
}

func (t *fakeTransport) counts() (connects, ends, logouts, sent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects, t.ends, t.logouts, len(t.sent)
}

type fakeFactory struct {
	mu         sync.Mutex
	transports []*fakeTransport
	purged     []string
	newErr     error
	connectErr error
}

func (f *fakeFactory) NewTransport(id string, emit func(TransportEvent)) (Transport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.newErr != nil {
		return nil, f.newErr
	}
	t := &fakeTransport{emit: emit, connectErr: f.connectErr}
	f.transports = append(f.transports, t)
	return t, nil
}

func (f *fakeFactory) PurgeCredentials(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged = append(f.purged, id)
	return nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transports)
}

func (f *fakeFactory) transport(i int) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transports[i]
}

func (f *fakeFactory) latest() *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transports[len(f.transports)-1]
}

func (f *fakeFactory) purgedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.purged...)
}

var errBoom = errors.New("boom")

func testOptions() Options {
	opts := DefaultOptions()
	opts.PairingTTL = time.Minute
	opts.PairingWait = time.Second
	opts.Reconnect = ReconnectPolicy{Base: 5 * time.Millisecond, Growth: 1.5, Cap: 20 * time.Millisecond}
	opts.TeardownTimeout = time.Second
	return opts
}

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func newTestConnection(t *testing.T, f *fakeFactory, opts Options) *Connection {
	t.Helper()
	c := NewConnection("s1", f, opts, zerolog.Nop())
	t.Cleanup(c.release)
	return c
}

func requireState(t *testing.T, c *Connection, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return c.State() == want }, waitFor, tick,
		"state never became %s (now %s)", want, c.State())
}

func requireTransports(t *testing.T, f *fakeFactory, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.count() == n }, waitFor, tick,
		"expected %d transports, have %d", n, f.count())
}

// openConnected drives a fresh connection through a full pairing to Connected.
func openConnected(t *testing.T, f *fakeFactory, opts Options) *Connection {
	t.Helper()
	c := newTestConnection(t, f, opts)
	c.Open()
	requireTransports(t, f, 1)
	f.latest().emit(TransportEvent{Kind: EventOpen})
	requireState(t, c, StateConnected)
	return c
}
