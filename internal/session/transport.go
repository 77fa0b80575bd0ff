package session

import (
	"context"
	"time"
)

type EventKind int

const (
	EventPairingCode EventKind = iota + 1
	EventOpen
	EventClosed
	EventCredentialsUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventPairingCode:
		return "pairing_code"
	case EventOpen:
		return "open"
	case EventClosed:
		return "closed"
	case EventCredentialsUpdated:
		return "credentials_updated"
	}
	return "unknown"
}

type CloseReason string

const (
	ReasonConnectionLost CloseReason = "connection_lost"
	ReasonLoggedOut      CloseReason = "logged_out"
	ReasonReplaced       CloseReason = "replaced"
	ReasonPairingExpired CloseReason = "pairing_expired"
	ReasonConnectFailed  CloseReason = "connect_failed"
)

// InvalidatesCredentials reports whether the remote side revoked the stored credentials.
func (r CloseReason) InvalidatesCredentials() bool {
	return r == ReasonLoggedOut
}

// TransportEvent is what a Transport reports back to its Connection.
type TransportEvent struct {
	Kind   EventKind
	Code   string
	Reason CloseReason
	Err    error
}

type MediaKind string

const (
	MediaNone     MediaKind = ""
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// Payload is one outbound message in transport-neutral form. Media payloads carry
// either MediaURL or MediaData.
type Payload struct {
	Kind     MediaKind
	Text     string
	Caption  string
	MediaURL string
	Data     []byte
	Mimetype string
	FileName string
}

func (p Payload) KindLabel() string {
	if p.Kind == MediaNone {
		return "text"
	}
	return string(p.Kind)
}

type Receipt struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// Transport is one duplex channel to the messaging network. It is owned by exactly
// one Connection and is never reused after End.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, to string, p Payload) (Receipt, error)
	Logout(ctx context.Context) error
	End() error
}

// TransportFactory creates transports for a session and owns their stored credentials.
type TransportFactory interface {
	NewTransport(sessionID string, emit func(TransportEvent)) (Transport, error)
	PurgeCredentials(ctx context.Context, sessionID string) error
}
