package wa

import (
	"context"
	"os"
	"time"
)

const (
	purgeAttempts = 20
	purgeDelay    = 250 * time.Millisecond
)

// PurgeCredentials closes the store of id and deletes its files so the next
// transport starts unpaired.
func (m *Manager) PurgeCredentials(ctx context.Context, id string) error {
	m.closeStore(id)

	removed := 0
	for _, path := range credentialFiles(m.basePath, id) {
		ok, err := removeFileWithRetry(ctx, path, purgeAttempts, purgeDelay)
		if err != nil {
			return err
		}
		if ok {
			removed++
		}
	}

	m.log.Info().Str("session", id).Int("files", removed).Msg("credential store removed")
	return nil
}

func removeFileIfExists(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// removeFileWithRetry retries because sqlite may hold the file briefly after Close
// on some platforms.
func removeFileWithRetry(ctx context.Context, path string, attempts int, delay time.Duration) (bool, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		removed, err := removeFileIfExists(path)
		if err == nil {
			return removed, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(delay):
		}
	}
	return false, lastErr
}
