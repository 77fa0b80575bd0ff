package usecase

import (
	"context"

	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/rs/zerolog"
)

// SessionSource lists sessions that have stored credentials.
type SessionSource interface {
	SessionsOnDisk() ([]string, error)
}

// ClosedChecker reports sessions that were closed on purpose.
type ClosedChecker interface {
	IsClosed(id string) bool
}

type RestoreSessionsUsecase struct {
	sessions *session.Registry
	source   SessionSource
	closed   ClosedChecker
	log      zerolog.Logger
}

func NewRestoreSessionsUsecase(reg *session.Registry, source SessionSource, closed ClosedChecker, logger zerolog.Logger) *RestoreSessionsUsecase {
	return &RestoreSessionsUsecase{sessions: reg, source: source, closed: closed, log: logger}
}

// Execute reopens every stored session that was not explicitly closed and
// returns the restored ids.
func (u *RestoreSessionsUsecase) Execute(ctx context.Context) ([]string, error) {
	ids, err := u.source.SessionsOnDisk()
	if err != nil {
		return nil, err
	}

	restored := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return restored, err
		}
		if u.closed != nil && u.closed.IsClosed(id) {
			u.log.Info().Str("session", id).Msg("skipping closed session")
			continue
		}
		if _, _, err := u.sessions.GetOrCreate(id); err != nil {
			u.log.Warn().Err(err).Str("session", id).Msg("restore session")
			continue
		}
		restored = append(restored, id)
	}

	u.log.Info().Int("sessions", len(restored)).Msg("sessions restored")
	return restored, nil
}
