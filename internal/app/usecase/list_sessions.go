package usecase

import (
	"context"

	"github.com/fardannozami/wa-session-gateway/internal/session"
)

type ListSessionsUsecase struct {
	sessions *session.Registry
}

func NewListSessionsUsecase(reg *session.Registry) *ListSessionsUsecase {
	return &ListSessionsUsecase{sessions: reg}
}

func (u *ListSessionsUsecase) Execute(ctx context.Context) ([]SessionStatus, error) {
	ids := u.sessions.IDs()
	out := make([]SessionStatus, 0, len(ids))
	for _, id := range ids {
		conn, ok := u.sessions.Get(id)
		if !ok {
			continue
		}
		out = append(out, toStatus(conn.Status()))
	}
	return out, nil
}
