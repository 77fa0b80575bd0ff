package usecase

import (
	"context"

	"github.com/fardannozami/wa-session-gateway/internal/session"
)

type CreateSessionOutput struct {
	Session          string
	Created          bool
	State            string
	IsConnected      bool
	PairingAvailable bool
}

type CreateSessionUsecase struct {
	sessions *session.Registry
}

func NewCreateSessionUsecase(reg *session.Registry) *CreateSessionUsecase {
	return &CreateSessionUsecase{sessions: reg}
}

func (u *CreateSessionUsecase) Execute(ctx context.Context, id string) (*CreateSessionOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, created, err := u.sessions.GetOrCreate(id)
	if err != nil {
		return nil, err
	}
	if !created {
		// Revives a stopped session; a no-op while it is active.
		conn.Open()
	}

	st := conn.Status()
	return &CreateSessionOutput{
		Session:          id,
		Created:          created,
		State:            st.State.String(),
		IsConnected:      st.IsConnected,
		PairingAvailable: st.PairingAvailable,
	}, nil
}
