package wa

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/renameio/v2"
)

type statusFileData struct {
	Closed []string `json:"closed"`
}

func statusFilePath(basePath string) string {
	if basePath == "" {
		return "session-status.json"
	}
	if filepath.Ext(basePath) == ".db" {
		return filepath.Join(filepath.Dir(basePath), "session-status.json")
	}
	return filepath.Join(basePath, "session-status.json")
}

// ClosedMarkers persists the ids of sessions that were closed on purpose. It
// implements session.ClosedStore.
type ClosedMarkers struct {
	path string

	mu     sync.Mutex
	closed map[string]struct{}
}

// LoadClosedMarkers reads the marker file next to the credential stores. A missing
// file means no session was closed.
func LoadClosedMarkers(basePath string) (*ClosedMarkers, error) {
	c := &ClosedMarkers{path: statusFilePath(basePath), closed: make(map[string]struct{})}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}

	var state statusFileData
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.path, err)
	}
	for _, id := range state.Closed {
		c.closed[id] = struct{}{}
	}
	return c, nil
}

func (c *ClosedMarkers) IsClosed(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.closed[id]
	return ok
}

func (c *ClosedMarkers) MarkClosed(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.closed[id]; ok {
		return nil
	}
	c.closed[id] = struct{}{}
	return c.persistLocked()
}

func (c *ClosedMarkers) ClearClosed(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.closed[id]; !ok {
		return nil
	}
	delete(c.closed, id)
	return c.persistLocked()
}

func (c *ClosedMarkers) persistLocked() error {
	state := statusFileData{Closed: make([]string, 0, len(c.closed))}
	for id := range c.closed {
		state.Closed = append(state.Closed, id)
	}
	sort.Strings(state.Closed)

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(c.path, out, 0o644)
}
