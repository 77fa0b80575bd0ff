package usecase

import (
	"context"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/session"
)

type PairStreamOutput struct {
	Status       string
	PairingCode  string
	QRCode       string
	ExpiresIn    int
	AttemptCount int
}

type PairStreamUsecase struct {
	sessions *session.Registry
	ttl      time.Duration
}

func NewPairStreamUsecase(reg *session.Registry, pairingTTL time.Duration) *PairStreamUsecase {
	return &PairStreamUsecase{sessions: reg, ttl: pairingTTL}
}

// Start creates or revives the session the stream follows.
func (u *PairStreamUsecase) Start(ctx context.Context, id string) error {
	conn, created, err := u.sessions.GetOrCreate(id)
	if err != nil {
		return err
	}
	if !created {
		conn.Open()
	}
	return nil
}

// Next reports the current pairing state. done is true once the session is
// connected or gone.
func (u *PairStreamUsecase) Next(ctx context.Context, id string) (*PairStreamOutput, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, true, err
	}

	conn, err := lookup(u.sessions, id)
	if err != nil {
		return nil, true, err
	}

	st := conn.Status()
	out := &PairStreamOutput{Status: st.State.String(), AttemptCount: st.AttemptCount}
	if st.IsConnected {
		return out, true, nil
	}

	if code, ok := conn.PairingCode(); ok {
		img, err := qrDataURL(code)
		if err != nil {
			return nil, false, err
		}
		out.PairingCode = code
		out.QRCode = img
		if left := u.ttl - st.PairingAge; left > 0 {
			out.ExpiresIn = int(left.Seconds())
		}
	}
	return out, false, nil
}
