package session

import (
	"context"
	"sync"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/metrics"
	"github.com/rs/zerolog"
)

type Options struct {
	// PairingTTL is how long an issued pairing code is served before the
	// transport is replaced to obtain a new one.
	PairingTTL time.Duration
	// PairingWait bounds a single wait for the next pairing code.
	PairingWait time.Duration
	Reconnect   ReconnectPolicy
	// RetryAfterLogout keeps reconnecting (into a fresh pairing flow) after the
	// remote side logs the session out. When false the session stops there.
	RetryAfterLogout bool
	// TeardownTimeout bounds logout and credential purge calls.
	TeardownTimeout time.Duration
	Now             func() time.Time
}

func DefaultOptions() Options {
	return Options{
		PairingTTL:       45 * time.Second,
		PairingWait:      30 * time.Second,
		Reconnect:        DefaultReconnectPolicy(),
		RetryAfterLogout: true,
		TeardownTimeout:  10 * time.Second,
		Now:              time.Now,
	}
}

type Status struct {
	ID               string
	State            State
	IsConnected      bool
	AutoReconnect    bool
	AttemptCount     int
	PairingAvailable bool
	PairingAge       time.Duration
	HasPairingCode   bool
}

type msgOpen struct{}

type msgClose struct {
	logout bool
	purge  bool
	done   chan struct{}
}

type msgTransport struct {
	gen uint64
	ev  TransportEvent
}

type msgRetry struct{ seq uint64 }

type msgRefresh struct{ seq uint64 }

// Connection is the per-session state machine. All transitions run on a single
// goroutine fed by a mailbox; other goroutines only post messages or read a
// snapshot under mu.
type Connection struct {
	id      string
	factory TransportFactory
	opts    Options
	log     zerolog.Logger
	pairing *PairingCoordinator

	box      *mailbox
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu            sync.RWMutex
	state         State
	attempts      int
	autoReconnect bool
	transport     Transport

	gen           uint64
	connectCancel context.CancelFunc
	retryTimer    *time.Timer
	retrySeq      uint64
	refreshTimer  *time.Timer
	refreshSeq    uint64
	pendingCode   string
	lastClose     CloseReason
	closing       msgClose
}

func NewConnection(id string, factory TransportFactory, opts Options, logger zerolog.Logger) *Connection {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Connection{
		id:            id,
		factory:       factory,
		opts:          opts,
		log:           logger.With().Str("session", id).Logger(),
		pairing:       NewPairingCoordinator(opts.PairingTTL, opts.PairingWait, opts.Now),
		box:           newMailbox(),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		state:         StateIdle,
		autoReconnect: true,
	}
	go c.run()
	return c
}

func (c *Connection) ID() string { return c.id }

// Open schedules a connect cycle and returns immediately.
func (c *Connection) Open() {
	c.box.post(msgOpen{})
}

// Close permanently closes the session: auto-reconnect is disabled, the device is
// logged out when connected and stored credentials are purged.
func (c *Connection) Close(ctx context.Context) error {
	return c.close(ctx, true, true)
}

// Stop tears the transport down and disables auto-reconnect, keeping credentials so
// a later Open resumes without pairing.
func (c *Connection) Stop(ctx context.Context) error {
	return c.close(ctx, false, false)
}

func (c *Connection) close(ctx context.Context, logout, purge bool) error {
	done := make(chan struct{})
	c.box.post(msgClose{logout: logout, purge: purge, done: done})
	select {
	case <-done:
		return nil
	case <-c.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestPairingCode returns the current pairing code or waits for the next one.
func (c *Connection) RequestPairingCode(ctx context.Context) (string, error) {
	return c.pairing.Wait(ctx)
}

// PairingCode returns the current code without waiting.
func (c *Connection) PairingCode() (string, bool) {
	return c.pairing.Current()
}

// Send submits p through the live transport. It fails fast with ErrNotConnected
// unless the session is connected.
func (c *Connection) Send(ctx context.Context, to string, p Payload) (Receipt, error) {
	c.mu.RLock()
	state, t := c.state, c.transport
	c.mu.RUnlock()

	if state != StateConnected || t == nil {
		return Receipt{}, ErrNotConnected
	}

	receipt, err := t.Send(ctx, to, p)
	if err != nil {
		return Receipt{}, &SendError{Err: err}
	}
	return receipt, nil
}

func (c *Connection) Status() Status {
	c.mu.RLock()
	st := Status{
		ID:            c.id,
		State:         c.state,
		IsConnected:   c.state == StateConnected,
		AutoReconnect: c.autoReconnect,
		AttemptCount:  c.attempts,
	}
	c.mu.RUnlock()

	_, st.PairingAvailable = c.pairing.Current()
	st.PairingAge, st.HasPairingCode = c.pairing.Age()
	return st
}

func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// release stops the event loop. The connection is unusable afterwards.
func (c *Connection) release() {
	c.stopOnce.Do(func() { close(c.quit) })
	<-c.done
}

func (c *Connection) run() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			c.shutdown()
			return
		case <-c.box.signal:
			for _, m := range c.box.drain() {
				c.handle(m)
			}
		}
	}
}

func (c *Connection) shutdown() {
	c.stopTimers()
	c.teardown()
	c.pairing.Reject(ErrSessionClosed)
	for _, m := range c.box.drain() {
		if mc, ok := m.(msgClose); ok {
			close(mc.done)
		}
	}
}

func (c *Connection) handle(m any) {
	switch m := m.(type) {
	case msgOpen:
		c.apply(inOpen, false)
	case msgClose:
		c.closing = m
		c.apply(inClose, false)
		c.apply(inCloseDone, false)
		c.closing = msgClose{}
		close(m.done)
	case msgTransport:
		if m.gen != c.gen {
			c.log.Debug().Str("event", m.ev.Kind.String()).Msg("ignoring event from retired transport")
			return
		}
		c.handleTransportEvent(m.ev)
	case msgRetry:
		if m.seq != c.retrySeq {
			return
		}
		c.retryTimer = nil
		c.apply(inRetry, false)
	case msgRefresh:
		if m.seq != c.refreshSeq {
			return
		}
		c.refreshTimer = nil
		c.log.Info().Dur("ttl", c.opts.PairingTTL).Msg("pairing code expired, requesting a new one")
		c.apply(inPairingExpired, false)
	}
}

func (c *Connection) handleTransportEvent(ev TransportEvent) {
	switch ev.Kind {
	case EventPairingCode:
		c.pendingCode = ev.Code
		c.apply(inPairingCode, false)
	case EventOpen:
		c.apply(inOpened, false)
	case EventClosed:
		err := &TransportClosedError{Reason: ev.Reason, Err: ev.Err}
		c.log.Warn().Err(err).Str("reason", string(ev.Reason)).Msg("transport closed")
		c.lastClose = ev.Reason
		c.apply(inClosed, ev.Reason.InvalidatesCredentials())
	case EventCredentialsUpdated:
		c.log.Info().Msg("credentials updated")
	}
}

func (c *Connection) facts(invalidates bool) facts {
	c.mu.RLock()
	auto := c.autoReconnect
	c.mu.RUnlock()
	return facts{
		autoReconnect:          auto,
		invalidatesCredentials: invalidates,
		retryAfterLogout:       c.opts.RetryAfterLogout,
		logoutOnClose:          c.closing.logout,
		purgeOnClose:           c.closing.purge,
	}
}

func (c *Connection) apply(in input, invalidates bool) {
	from := c.State()
	st, ok := transition(from, in, c.facts(invalidates))
	if !ok {
		return
	}
	c.setState(from, st.to)
	for _, e := range st.effects {
		c.exec(e)
	}
}

func (c *Connection) setState(from, to State) {
	c.mu.Lock()
	c.state = to
	c.mu.Unlock()
	if from != to {
		c.log.Info().Str("from", from.String()).Str("to", to.String()).Msg("state transition")
		metrics.RecordTransition(from.String(), to.String())
	}
}

func (c *Connection) exec(e effect) {
	switch e {
	case effEnableReconnect:
		c.setAutoReconnect(true)
	case effDisableReconnect:
		c.setAutoReconnect(false)
	case effStartTransport:
		c.startTransport()
	case effTeardown:
		c.teardown()
	case effLogout:
		c.logout()
	case effPurgeCredentials:
		c.purgeCredentials()
	case effIssuePairing:
		c.pairing.Issue(c.pendingCode)
		c.pendingCode = ""
	case effArmRefresh:
		c.armRefresh()
	case effCancelRefresh:
		c.cancelRefresh()
	case effCancelRetry:
		c.cancelRetry()
	case effDiscardPairing:
		c.pairing.Discard()
	case effRejectPairingWait:
		c.pairing.Reject(ErrSessionClosed)
	case effSettlePairingWait:
		c.pairing.Reject(ErrAlreadyConnected)
	case effResetAttempts:
		c.mu.Lock()
		c.attempts = 0
		c.mu.Unlock()
	case effScheduleRetry:
		c.scheduleRetry()
	}
}

func (c *Connection) setAutoReconnect(v bool) {
	c.mu.Lock()
	c.autoReconnect = v
	c.mu.Unlock()
}

func (c *Connection) startTransport() {
	if c.hasTransport() {
		c.teardown()
	}

	c.gen++
	gen := c.gen
	emit := func(ev TransportEvent) {
		c.box.post(msgTransport{gen: gen, ev: ev})
	}

	t, err := c.factory.NewTransport(c.id, emit)
	if err != nil {
		emit(TransportEvent{Kind: EventClosed, Reason: ReasonConnectFailed, Err: err})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.connectCancel = cancel
	c.mu.Lock()
	c.transport = t
	c.mu.Unlock()

	go func() {
		if err := t.Connect(ctx); err != nil && ctx.Err() == nil {
			emit(TransportEvent{Kind: EventClosed, Reason: ReasonConnectFailed, Err: err})
		}
	}()
}

func (c *Connection) hasTransport() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transport != nil
}

// teardown retires the current transport and waits for End to return. Events the
// old transport emits afterwards carry a stale generation and are dropped.
func (c *Connection) teardown() {
	if c.connectCancel != nil {
		c.connectCancel()
		c.connectCancel = nil
	}

	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.mu.Unlock()

	c.gen++
	if t == nil {
		return
	}
	if err := t.End(); err != nil {
		c.log.Warn().Err(err).Msg("end transport")
	}
}

func (c *Connection) logout() {
	c.mu.RLock()
	t := c.transport
	c.mu.RUnlock()
	if t == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.TeardownTimeout)
	defer cancel()
	if err := t.Logout(ctx); err != nil {
		c.log.Warn().Err(err).Msg("logout")
		return
	}
	c.log.Info().Msg("logged out")
}

func (c *Connection) purgeCredentials() {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.TeardownTimeout)
	defer cancel()
	if err := c.factory.PurgeCredentials(ctx, c.id); err != nil {
		c.log.Error().Err(err).Msg("purge credentials")
		return
	}
	c.log.Info().Msg("credentials purged")
}

func (c *Connection) scheduleRetry() {
	c.cancelRetry()

	c.mu.Lock()
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()

	delay := c.opts.Reconnect.Delay(attempt)
	seq := c.retrySeq
	c.retryTimer = time.AfterFunc(delay, func() { c.box.post(msgRetry{seq: seq}) })

	c.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("reconnect scheduled")
	metrics.RecordReconnect(string(c.lastClose), delay)
}

func (c *Connection) cancelRetry() {
	c.retrySeq++
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

func (c *Connection) armRefresh() {
	c.cancelRefresh()
	seq := c.refreshSeq
	c.refreshTimer = time.AfterFunc(c.opts.PairingTTL, func() { c.box.post(msgRefresh{seq: seq}) })
}

func (c *Connection) cancelRefresh() {
	c.refreshSeq++
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

func (c *Connection) stopTimers() {
	c.cancelRetry()
	c.cancelRefresh()
}
