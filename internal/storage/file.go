package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
)

// snapshot is the on-disk layout of the file store
type snapshot struct {
	UpdatedAt string         `json:"updated_at"`
	Events    []event.Record `json:"events"`
}

// FileStore keeps every record in one JSON file. Records are held in a map
// keyed by (name, date), so a second upsert of the same key replaces the first.
type FileStore struct {
	mu      sync.Mutex
	path    string
	records map[string]event.Record
}

// NewFileStore opens or creates events.json under dataDir
func NewFileStore(dataDir string) (*FileStore, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	dir, err := expandHome(dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}

	s := &FileStore{
		path:    filepath.Join(dir, "events.json"),
		records: make(map[string]event.Record),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "reading event file")
	}

	var snap snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return errors.Wrapf(err, "parsing %s", s.path)
	}
	for _, rec := range snap.Events {
		s.records[rec.Key()] = rec
	}
	return nil
}

// save writes the whole file through a temp file and rename
func (s *FileStore) save() error {
	snap := snapshot{
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Events:    s.sorted(Query{}),
	}
	data, err := sonic.ConfigStd.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding events")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "writing event file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "replacing event file")
	}
	return nil
}

func (s *FileStore) sorted(q Query) []event.Record {
	out := make([]event.Record, 0, len(s.records))
	for _, rec := range s.records {
		if q.Matches(rec) {
			out = append(out, rec)
		}
	}
	SortRecords(out)
	return out
}

// Upsert implements Store
func (s *FileStore) Upsert(ctx context.Context, rec event.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.Name == "" || rec.Date == "" {
		return errors.New("record needs a name and a date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.records[rec.Key()]
	s.records[rec.Key()] = rec
	if err := s.save(); err != nil {
		if existed {
			s.records[rec.Key()] = prev
		} else {
			delete(s.records, rec.Key())
		}
		return err
	}
	return nil
}

// Select implements Store
func (s *FileStore) Select(ctx context.Context, q Query) ([]event.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(q), nil
}

// DeleteBefore implements Store
func (s *FileStore) DeleteBefore(ctx context.Context, date string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]event.Record)
	for key, rec := range s.records {
		if rec.Date < date {
			removed[key] = rec
			delete(s.records, key)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}
	if err := s.save(); err != nil {
		for key, rec := range removed {
			s.records[key] = rec
		}
		return 0, err
	}
	return int64(len(removed)), nil
}

// Close implements Store
func (s *FileStore) Close() error {
	return nil
}

// SortRecords orders records by date, time and name
func SortRecords(recs []event.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Date != recs[j].Date {
			return recs[i].Date < recs[j].Date
		}
		if recs[i].Time != recs[j].Time {
			return recs[i].Time < recs[j].Time
		}
		return recs[i].Name < recs[j].Name
	})
}
