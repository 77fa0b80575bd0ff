package usecase

import (
	"context"

	"github.com/fardannozami/wa-session-gateway/internal/session"
)

// StopSessionUsecase disconnects a session but keeps its credentials, so a later
// create resumes without pairing.
type StopSessionUsecase struct {
	sessions *session.Registry
}

func NewStopSessionUsecase(reg *session.Registry) *StopSessionUsecase {
	return &StopSessionUsecase{sessions: reg}
}

func (u *StopSessionUsecase) Execute(ctx context.Context, id string) (*SessionStatus, error) {
	conn, err := lookup(u.sessions, id)
	if err != nil {
		return nil, err
	}
	if err := conn.Stop(ctx); err != nil {
		return nil, err
	}
	st := toStatus(conn.Status())
	return &st, nil
}
