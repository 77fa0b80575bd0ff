package wa

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	applog "github.com/fardannozami/wa-session-gateway/internal/log"
	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
)

type Config struct {
	// BasePath is a directory or a "name.db" template for per-session stores.
	BasePath       string
	MediaCacheSize int
}

// Manager owns the per-session credential stores and builds whatsmeow-backed
// transports. It implements session.TransportFactory.
type Manager struct {
	basePath string
	log      zerolog.Logger
	media    *mediaFetcher

	mu         sync.Mutex
	containers map[string]*sqlstore.Container
	dbs        map[string]*sql.DB
}

var _ session.TransportFactory = (*Manager)(nil)

func NewManager(cfg Config, logger zerolog.Logger) (*Manager, error) {
	media, err := newMediaFetcher(cfg.MediaCacheSize, nil)
	if err != nil {
		return nil, err
	}
	return &Manager{
		basePath:   cfg.BasePath,
		log:        logger,
		media:      media,
		containers: make(map[string]*sqlstore.Container),
		dbs:        make(map[string]*sql.DB),
	}, nil
}

func (m *Manager) NewTransport(id string, emit func(session.TransportEvent)) (session.Transport, error) {
	if err := session.ValidateID(id); err != nil {
		return nil, err
	}

	device, err := m.device(context.Background(), id)
	if err != nil {
		return nil, err
	}

	client := whatsmeow.NewClient(device, applog.WhatsApp("Client/"+id))
	client.EnableAutoReconnect = false

	return newClientTransport(id, client, emit, m.media, applog.WithSession(m.log, id)), nil
}

func (m *Manager) container(ctx context.Context, id string) (*sqlstore.Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.containers[id]; ok {
		return c, nil
	}

	container, db, err := OpenSQLStore(ctx, dbPathForSession(m.basePath, id), applog.WhatsApp("Store/"+id))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	m.containers[id] = container
	m.dbs[id] = db
	return container, nil
}

func (m *Manager) device(ctx context.Context, id string) (*store.Device, error) {
	container, err := m.container(ctx, id)
	if err != nil {
		return nil, err
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}
	if device == nil {
		device = container.NewDevice()
	}
	return device, nil
}

// closeStore releases the container of id. It reports whether one was open.
func (m *Manager) closeStore(id string) bool {
	m.mu.Lock()
	db, ok := m.dbs[id]
	delete(m.dbs, id)
	delete(m.containers, id)
	m.mu.Unlock()

	if ok {
		if err := db.Close(); err != nil {
			m.log.Warn().Err(err).Str("session", id).Msg("close credential store")
		}
	}
	return ok
}

// SessionsOnDisk lists the ids that have a credential store.
func (m *Manager) SessionsOnDisk() ([]string, error) {
	return listSessionsFromDisk(m.basePath)
}

// Close releases every open credential store.
func (m *Manager) Close() error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.dbs))
	for id := range m.dbs {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.closeStore(id)
	}
	return nil
}
