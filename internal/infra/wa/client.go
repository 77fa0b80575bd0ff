package wa

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/infra/wa/handlers"
	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
)

const connectTimeout = 25 * time.Second

// clientTransport adapts one whatsmeow client to session.Transport. It is
// discarded after End; reconnects build a new one.
type clientTransport struct {
	id     string
	client *whatsmeow.Client
	emit   func(session.TransportEvent)
	media  *mediaFetcher
	log    zerolog.Logger

	handlerID uint32
	ctx       context.Context
	cancel    context.CancelFunc
	endOnce   sync.Once
}

func newClientTransport(id string, client *whatsmeow.Client, emit func(session.TransportEvent), media *mediaFetcher, logger zerolog.Logger) *clientTransport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &clientTransport{
		id:     id,
		client: client,
		emit:   emit,
		media:  media,
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}
	t.handlerID = client.AddEventHandler(handlers.NewEventHandler(t.log, emit))
	return t
}

func (t *clientTransport) Connect(ctx context.Context) error {
	if t.client.Store.ID == nil {
		qr, err := t.client.GetQRChannel(t.ctx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		go t.forwardQR(qr)
	}

	if err := connectWithTimeout(ctx, t.client, connectTimeout); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (t *clientTransport) forwardQR(ch <-chan whatsmeow.QRChannelItem) {
	for item := range ch {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			t.emit(session.TransportEvent{Kind: session.EventPairingCode, Code: item.Code})
		case whatsmeow.QRChannelSuccess.Event:
			t.log.Debug().Msg("qr pairing finished")
		case whatsmeow.QRChannelTimeout.Event:
			t.emit(session.TransportEvent{Kind: session.EventClosed, Reason: session.ReasonPairingExpired})
		case whatsmeow.QRChannelEventError:
			t.emit(session.TransportEvent{Kind: session.EventClosed, Reason: session.ReasonConnectionLost, Err: item.Error})
		default:
			t.emit(session.TransportEvent{
				Kind:   session.EventClosed,
				Reason: session.ReasonConnectFailed,
				Err:    fmt.Errorf("pairing: %s", item.Event),
			})
		}
	}
}

func (t *clientTransport) Send(ctx context.Context, to string, p session.Payload) (session.Receipt, error) {
	jid, err := types.ParseJID(to)
	if err != nil {
		return session.Receipt{}, fmt.Errorf("parse target: %w", err)
	}

	var up *whatsmeow.UploadResponse
	if p.Kind != session.MediaNone {
		if up, err = t.upload(ctx, p); err != nil {
			return session.Receipt{}, err
		}
	}

	msg, err := buildMessage(p, up)
	if err != nil {
		return session.Receipt{}, err
	}

	resp, err := t.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return session.Receipt{}, err
	}
	return session.Receipt{ID: resp.ID, Timestamp: resp.Timestamp}, nil
}

func (t *clientTransport) upload(ctx context.Context, p session.Payload) (*whatsmeow.UploadResponse, error) {
	mt, err := mediaType(p.Kind)
	if err != nil {
		return nil, err
	}

	data := p.Data
	if p.MediaURL != "" {
		if data, err = t.media.Fetch(ctx, p.MediaURL); err != nil {
			return nil, err
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s payload is empty", p.Kind)
	}

	up, err := t.client.Upload(ctx, data, mt)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", p.Kind, err)
	}
	return &up, nil
}

func (t *clientTransport) Logout(ctx context.Context) error {
	if t.client.Store.ID == nil {
		return nil
	}
	return logoutClient(ctx, t.client)
}

func (t *clientTransport) End() error {
	t.endOnce.Do(func() {
		t.cancel()
		t.client.RemoveEventHandler(t.handlerID)
		disconnectClient(t.client)
	})
	return nil
}
