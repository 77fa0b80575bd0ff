package usecase

import (
	"context"

	"github.com/fardannozami/wa-session-gateway/internal/dispatch"
	"github.com/fardannozami/wa-session-gateway/internal/session"
)

// DeleteSessionUsecase permanently closes a session: the device is logged out,
// credentials are purged and the id is dropped from the registry.
type DeleteSessionUsecase struct {
	sessions   *session.Registry
	dispatcher *dispatch.Dispatcher
}

func NewDeleteSessionUsecase(reg *session.Registry, d *dispatch.Dispatcher) *DeleteSessionUsecase {
	return &DeleteSessionUsecase{sessions: reg, dispatcher: d}
}

func (u *DeleteSessionUsecase) Execute(ctx context.Context, id string) (bool, error) {
	if err := session.ValidateID(id); err != nil {
		return false, err
	}
	ok, err := u.sessions.Remove(ctx, id)
	if ok {
		u.dispatcher.Forget(id)
	}
	return ok, err
}
