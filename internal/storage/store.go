package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
)

// ErrUniqueKeyMissing means the eventos table has no unique constraint on
// (nome, data), so upserts cannot be idempotent.
var ErrUniqueKeyMissing = errors.New("eventos has no unique constraint on (nome, data)")

// Store persists records keyed by (name, date)
type Store interface {
	// Upsert inserts rec or replaces the record with the same (name, date)
	Upsert(ctx context.Context, rec event.Record) error
	// Select returns the records matching q ordered by date, time and name
	Select(ctx context.Context, q Query) ([]event.Record, error)
	// DeleteBefore removes records dated strictly before date (YYYY-MM-DD)
	DeleteBefore(ctx context.Context, date string) (int64, error)
	Close() error
}

// Query filters records. Empty fields match everything.
type Query struct {
	FromDate string // inclusive, YYYY-MM-DD
	Status   string
	Type     string
}

// Matches reports whether rec passes the filter
func (q Query) Matches(rec event.Record) bool {
	if q.FromDate != "" && rec.Date < q.FromDate {
		return false
	}
	if q.Status != "" && rec.Status != q.Status {
		return false
	}
	if q.Type != "" && rec.Type != q.Type {
		return false
	}
	return true
}

// Backend names accepted by Open
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Options selects a backend
type Options struct {
	// Backend is "file" or "postgres"; empty picks postgres when DatabaseURL is set.
	Backend     string
	DataDir     string
	DatabaseURL string
}

// DefaultDataDir is where the file store lives when no directory is configured
const DefaultDataDir = "~/.local/share/rota-da-festa"

// Open returns the configured store
func Open(ctx context.Context, opts Options) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = BackendFile
		if opts.DatabaseURL != "" {
			backend = BackendPostgres
		}
	}

	switch backend {
	case BackendFile:
		return NewFileStore(opts.DataDir)
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, errors.New("postgres store requires DATABASE_URL")
		}
		return OpenPostgres(ctx, opts.DatabaseURL)
	default:
		return nil, errors.Newf("unknown store backend %q", opts.Backend)
	}
}

// expandHome resolves a leading ~/ against the user's home directory
func expandHome(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "getting home directory")
	}
	return filepath.Join(home, dir[2:]), nil
}
