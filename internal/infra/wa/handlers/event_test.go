package handlers

import (
	"testing"

	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types/events"
)

func TestEventTranslation(t *testing.T) {
	tests := []struct {
		name   string
		evt    any
		kind   session.EventKind
		reason session.CloseReason
	}{
		{name: "connected", evt: &events.Connected{}, kind: session.EventOpen},
		{name: "pair success", evt: &events.PairSuccess{}, kind: session.EventCredentialsUpdated},
		{name: "logged out", evt: &events.LoggedOut{}, kind: session.EventClosed, reason: session.ReasonLoggedOut},
		{name: "replaced", evt: &events.StreamReplaced{}, kind: session.EventClosed, reason: session.ReasonReplaced},
		{name: "disconnected", evt: &events.Disconnected{}, kind: session.EventClosed, reason: session.ReasonConnectionLost},
		{name: "connect failure", evt: &events.ConnectFailure{Message: "x"}, kind: session.EventClosed, reason: session.ReasonConnectFailed},
		{name: "outdated", evt: &events.ClientOutdated{}, kind: session.EventClosed, reason: session.ReasonConnectFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []session.TransportEvent
			h := NewEventHandler(zerolog.Nop(), func(ev session.TransportEvent) { got = append(got, ev) })
			h(tt.evt)

			require.Len(t, got, 1)
			assert.Equal(t, tt.kind, got[0].Kind)
			assert.Equal(t, tt.reason, got[0].Reason)
			assert.Equal(t, tt.reason.InvalidatesCredentials(), got[0].Reason == session.ReasonLoggedOut)
		})
	}
}

func TestEventIgnoresOthers(t *testing.T) {
	called := false
	h := NewEventHandler(zerolog.Nop(), func(session.TransportEvent) { called = true })
	h(&events.Receipt{})
	h("unknown")
	assert.False(t, called)
}
