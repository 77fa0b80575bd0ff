package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/config"
	"github.com/fardannozami/wa-session-gateway/internal/infra/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Pairing.TTL = 20 * time.Second
	cfg.Reconnect.Base = time.Second
	cfg.Reconnect.Cap = 10 * time.Second
	cfg.Reconnect.RetryAfterLogout = false

	opts := sessionOptions(cfg)
	assert.Equal(t, 20*time.Second, opts.PairingTTL)
	assert.Equal(t, cfg.Pairing.Wait, opts.PairingWait)
	assert.Equal(t, time.Second, opts.Reconnect.Base)
	assert.Equal(t, 10*time.Second, opts.Reconnect.Cap)
	assert.False(t, opts.RetryAfterLogout)
	assert.NotNil(t, opts.Now)
}

func TestUsersAdd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "gateway.db")
	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("CONFIG_FILE", "")

	run := func() (db.Owner, string) {
		var stdout, stderr bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		cmd.SetArgs([]string{"users", "add", "--username", "rina", "--email", "rina@example.com", "--phone", "+62 812 3456 7890"})
		require.NoError(t, cmd.Execute())

		var owner db.Owner
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &owner))
		return owner, stderr.String()
	}

	first, warn := run()
	assert.Empty(t, warn)
	assert.Equal(t, "6281234567890", first.Phone)
	assert.NotEmpty(t, first.SessionID)

	second, warn := run()
	assert.Equal(t, first.ID, second.ID)
	assert.Contains(t, warn, "already exists")
}

func TestUsersAddRejectsBadEmail(t *testing.T) {
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "gateway.db"))
	t.Setenv("CONFIG_FILE", "")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"users", "add", "--username", "rina", "--email", "nope"})
	assert.Error(t, cmd.Execute())
}
