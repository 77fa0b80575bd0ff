package session

import (
	"math"
	"time"
)

// ReconnectPolicy computes min(Base * Growth^attempt, Cap). It never gives up.
type ReconnectPolicy struct {
	Base   time.Duration
	Growth float64
	Cap    time.Duration
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		Base:   2 * time.Second,
		Growth: 1.5,
		Cap:    30 * time.Second,
	}
}

func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	growth := p.Growth
	if growth < 1 {
		growth = 1
	}
	d := float64(p.Base) * math.Pow(growth, float64(attempt))
	if p.Cap > 0 && (d > float64(p.Cap) || math.IsInf(d, 1)) {
		return p.Cap
	}
	return time.Duration(d)
}
