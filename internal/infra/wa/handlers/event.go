package handlers

import (
	"errors"

	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/types/events"
)

// EventHandler translates whatsmeow events into transport lifecycle events.
type EventHandler struct {
	log  zerolog.Logger
	emit func(session.TransportEvent)
}

func NewEventHandler(log zerolog.Logger, emit func(session.TransportEvent)) func(evt any) {
	h := &EventHandler{log: log, emit: emit}
	return h.Handle
}

func (h *EventHandler) Handle(evt any) {
	switch e := evt.(type) {
	case *events.Connected:
		h.emit(session.TransportEvent{Kind: session.EventOpen})

	case *events.PairSuccess:
		h.log.Info().Str("jid", e.ID.String()).Str("platform", e.Platform).Msg("paired")
		h.emit(session.TransportEvent{Kind: session.EventCredentialsUpdated})

	case *events.LoggedOut:
		h.closed(session.ReasonLoggedOut, errors.New(e.Reason.String()))

	case *events.StreamReplaced:
		h.closed(session.ReasonReplaced, nil)

	case *events.Disconnected:
		h.closed(session.ReasonConnectionLost, nil)

	case *events.ConnectFailure:
		h.closed(session.ReasonConnectFailed, errors.New(e.Reason.String()+": "+e.Message))

	case *events.TemporaryBan:
		h.closed(session.ReasonConnectFailed, errors.New(e.String()))

	case *events.ClientOutdated:
		h.closed(session.ReasonConnectFailed, errors.New("client outdated"))

	case *events.Message:
		h.log.Debug().
			Str("from", e.Info.Sender.String()).
			Str("id", e.Info.ID).
			Msg("incoming message")
	}
}

func (h *EventHandler) closed(reason session.CloseReason, err error) {
	h.emit(session.TransportEvent{Kind: session.EventClosed, Reason: reason, Err: err})
}
