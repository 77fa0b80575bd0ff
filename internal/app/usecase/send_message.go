package usecase

import (
	"context"

	"github.com/fardannozami/wa-session-gateway/internal/dispatch"
	"github.com/fardannozami/wa-session-gateway/internal/session"
)

type SendMessageUsecase struct {
	sessions   *session.Registry
	dispatcher *dispatch.Dispatcher
}

func NewSendMessageUsecase(reg *session.Registry, d *dispatch.Dispatcher) *SendMessageUsecase {
	return &SendMessageUsecase{sessions: reg, dispatcher: d}
}

func (u *SendMessageUsecase) Execute(ctx context.Context, id string, req dispatch.Request) (*dispatch.Delivery, error) {
	conn, err := lookup(u.sessions, id)
	if err != nil {
		return nil, err
	}
	d, err := u.dispatcher.Send(ctx, conn, req)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
