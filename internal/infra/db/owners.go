package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrOwnerNotFound = errors.New("owner not found")

// Owner is a tenant. Each owner is bound to exactly one session id.
type Owner struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

type OwnerStore struct {
	db *sql.DB
}

// NewOwnerStore runs the schema migration on db.
func NewOwnerStore(ctx context.Context, db *sql.DB) (*OwnerStore, error) {
	s := &OwnerStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *OwnerStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS owners (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		session_id TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Create inserts a new owner with fresh ids. If email is already registered the
// existing owner is returned and created is false.
func (s *OwnerStore) Create(ctx context.Context, username, email, phone string) (owner Owner, created bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if existing, err := s.byColumn(ctx, "email", email); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrOwnerNotFound) {
		return Owner{}, false, err
	}

	owner = Owner{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(username),
		Email:     email,
		Phone:     strings.TrimSpace(phone),
		SessionID: uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO owners (id, username, email, phone, session_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`, owner.ID, owner.Username, owner.Email, owner.Phone, owner.SessionID, owner.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return Owner{}, false, fmt.Errorf("insert owner: %w", err)
	}
	return owner, true, nil
}

func (s *OwnerStore) Get(ctx context.Context, id string) (Owner, error) {
	return s.byColumn(ctx, "id", id)
}

func (s *OwnerStore) BySession(ctx context.Context, sessionID string) (Owner, error) {
	return s.byColumn(ctx, "session_id", sessionID)
}

// Owns reports whether owner id is bound to sessionID.
func (s *OwnerStore) Owns(ctx context.Context, id, sessionID string) (bool, error) {
	o, err := s.Get(ctx, id)
	if errors.Is(err, ErrOwnerNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return o.SessionID == sessionID, nil
}

func (s *OwnerStore) byColumn(ctx context.Context, column, value string) (Owner, error) {
	// column is always one of the fixed names above.
	row := s.db.QueryRowContext(ctx, `
	SELECT id, username, email, phone, session_id, created_at
	FROM owners WHERE `+column+` = ?`, value)

	var o Owner
	var createdAt string
	if err := row.Scan(&o.ID, &o.Username, &o.Email, &o.Phone, &o.SessionID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Owner{}, ErrOwnerNotFound
		}
		return Owner{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Owner{}, fmt.Errorf("parse created_at: %w", err)
	}
	o.CreatedAt = t
	return o, nil
}
