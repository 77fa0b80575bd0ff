package usecase

import (
	"context"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/session"
)

type SessionStatus struct {
	Session          string
	State            string
	IsConnected      bool
	AutoReconnect    bool
	AttemptCount     int
	PairingAvailable bool
	PairingAge       time.Duration
	HasPairingCode   bool
}

func toStatus(st session.Status) SessionStatus {
	return SessionStatus{
		Session:          st.ID,
		State:            st.State.String(),
		IsConnected:      st.IsConnected,
		AutoReconnect:    st.AutoReconnect,
		AttemptCount:     st.AttemptCount,
		PairingAvailable: st.PairingAvailable,
		PairingAge:       st.PairingAge,
		HasPairingCode:   st.HasPairingCode,
	}
}

func lookup(reg *session.Registry, id string) (*session.Connection, error) {
	if err := session.ValidateID(id); err != nil {
		return nil, err
	}
	conn, ok := reg.Get(id)
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return conn, nil
}

type SessionStatusUsecase struct {
	sessions *session.Registry
}

func NewSessionStatusUsecase(reg *session.Registry) *SessionStatusUsecase {
	return &SessionStatusUsecase{sessions: reg}
}

func (u *SessionStatusUsecase) Execute(ctx context.Context, id string) (*SessionStatus, error) {
	conn, err := lookup(u.sessions, id)
	if err != nil {
		return nil, err
	}
	st := toStatus(conn.Status())
	return &st, nil
}
