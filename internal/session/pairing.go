package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/metrics"
)

// pairingSlot is a single-use future for the next pairing code.
type pairingSlot struct {
	done  chan struct{}
	code  string
	err   error
	timer *time.Timer
}

func (s *pairingSlot) settle(code string, err error) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.code = code
	s.err = err
	close(s.done)
}

// PairingCoordinator caches the current pairing code and holds at most one
// outstanding wait for the next one.
type PairingCoordinator struct {
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	code     string
	issuedAt time.Time
	slot     *pairingSlot
}

func NewPairingCoordinator(ttl, timeout time.Duration, now func() time.Time) *PairingCoordinator {
	if now == nil {
		now = time.Now
	}
	return &PairingCoordinator{ttl: ttl, timeout: timeout, now: now}
}

// Wait returns a fresh cached code or blocks until the next one is issued. Concurrent
// callers share one slot. The slot times out on its own timer; ctx only releases
// this caller.
func (p *PairingCoordinator) Wait(ctx context.Context) (string, error) {
	p.mu.Lock()
	if code, ok := p.currentLocked(); ok {
		p.mu.Unlock()
		metrics.RecordPairingWait("cached")
		return code, nil
	}
	slot := p.slot
	if slot == nil {
		slot = &pairingSlot{done: make(chan struct{})}
		slot.timer = time.AfterFunc(p.timeout, func() { p.expire(slot) })
		p.slot = slot
	}
	p.mu.Unlock()

	select {
	case <-slot.done:
		if slot.err != nil {
			if errors.Is(slot.err, ErrPairingTimeout) {
				metrics.RecordPairingWait("timeout")
			} else {
				metrics.RecordPairingWait("rejected")
			}
			return "", slot.err
		}
		metrics.RecordPairingWait("issued")
		return slot.code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *PairingCoordinator) expire(slot *pairingSlot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.slot != slot {
		return
	}
	p.slot = nil
	slot.settle("", ErrPairingTimeout)
}

// Issue caches code and resolves the outstanding wait, if any.
func (p *PairingCoordinator) Issue(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.code = code
	p.issuedAt = p.now()
	if p.slot != nil {
		p.slot.settle(code, nil)
		p.slot = nil
	}
}

func (p *PairingCoordinator) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.code = ""
	p.issuedAt = time.Time{}
}

// Reject fails the outstanding wait with err.
func (p *PairingCoordinator) Reject(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.slot != nil {
		p.slot.settle("", err)
		p.slot = nil
	}
}

// Current returns the cached code only while it is inside the freshness window.
func (p *PairingCoordinator) Current() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

func (p *PairingCoordinator) currentLocked() (string, bool) {
	if p.code == "" {
		return "", false
	}
	if p.now().Sub(p.issuedAt) >= p.ttl {
		return "", false
	}
	return p.code, true
}

// Age reports how long ago the cached code was issued.
func (p *PairingCoordinator) Age() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.code == "" {
		return 0, false
	}
	return p.now().Sub(p.issuedAt), true
}

func (p *PairingCoordinator) Waiting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slot != nil
}
