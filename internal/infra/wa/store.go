package wa

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fardannozami/wa-session-gateway/internal/session"
)

// dbPathForSession maps a session id to its credential store. basePath is either
// a directory or a "name.db" template that yields "name-<session>.db".
func dbPathForSession(basePath, id string) string {
	if basePath == "" {
		return id + ".db"
	}

	if filepath.Ext(basePath) == ".db" {
		dir := filepath.Dir(basePath)
		base := strings.TrimSuffix(filepath.Base(basePath), ".db")
		return filepath.Join(dir, base+"-"+id+".db")
	}

	return filepath.Join(basePath, id+".db")
}

func credentialFiles(basePath, id string) []string {
	p := dbPathForSession(basePath, id)
	return []string{p, p + "-wal", p + "-shm"}
}

func sessionsDirPrefix(basePath string) (dir, prefix string) {
	if basePath == "" {
		return ".", ""
	}
	if filepath.Ext(basePath) != ".db" {
		return basePath, ""
	}
	if info, err := os.Stat(basePath); err == nil && info.IsDir() {
		return basePath, ""
	}
	return filepath.Dir(basePath), strings.TrimSuffix(filepath.Base(basePath), ".db") + "-"
}

// listSessionsFromDisk returns the sorted ids of every credential store under basePath.
func listSessionsFromDisk(basePath string) ([]string, error) {
	dir, prefix := sessionsDirPrefix(basePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".db" || !strings.HasPrefix(name, prefix) {
			continue
		}

		id := strings.TrimPrefix(strings.TrimSuffix(name, ".db"), prefix)
		if session.ValidateID(id) != nil {
			continue
		}
		out = append(out, id)
	}

	sort.Strings(out)
	return out, nil
}
