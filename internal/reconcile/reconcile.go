// Package reconcile flags stored fixtures that vanished from a fresh scrape.
//
// Only approved, upcoming football records whose date was successfully
// re-scraped are considered; absence from a date that failed to load says
// nothing. Presence is judged on every (name, date) the crawl saw, before
// scope and venue filtering, so a fixture dropped for a geocoding miss is not
// mistaken for a vanished one. A vanished fixture becomes "adiado". When the
// same fixture name shows up on another date in the scrape, the note carries
// the new date.
//
// A fixture that keeps its date but changes venue or home side is not
// detected here: it simply looks like a new record with the same key.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/logger"
	"github.com/pfrederiksen/rota-da-festa/internal/storage"
)

// ChangeType describes why a record was postponed
type ChangeType string

const (
	// ChangePostponed means the fixture is gone with no replacement date
	ChangePostponed ChangeType = "postponed"
	// ChangeRescheduled means the same fixture name appears on another date
	ChangeRescheduled ChangeType = "rescheduled"
)

// Change is one planned status transition
type Change struct {
	Type       ChangeType   `json:"type"`
	Previous   event.Record `json:"previous"`
	Updated    event.Record `json:"updated"`
	NewDate    string       `json:"new_date,omitempty"`
	DetectedAt time.Time    `json:"detected_at"`
}

// Key returns the business key of the affected record
func (c Change) Key() string {
	return c.Previous.Key()
}

// Note formats the status note for a postponement
func Note(newDate string) string {
	if newDate == "" {
		return "Adiado"
	}
	return fmt.Sprintf("Adiado. Nova data: %s", newDate)
}

// KeysOf returns the (name, date) keys of recs
func KeysOf(recs []event.Record) map[string]bool {
	keys := make(map[string]bool, len(recs))
	for _, r := range recs {
		keys[r.Key()] = true
	}
	return keys
}

// Plan computes the postponements implied by a fresh scrape. seen holds the
// event.RecordKey of every fixture the scrape found. It is pure: stored is
// not modified.
func Plan(stored []event.Record, seen map[string]bool, scrapedDates map[string]bool, today time.Time) []Change {
	datesByName := make(map[string][]string)
	for key := range seen {
		name, date := event.SplitRecordKey(key)
		datesByName[name] = append(datesByName[name], date)
	}

	var changes []Change
	for _, rec := range stored {
		if rec.Status != event.StatusApproved || !rec.IsFootball() || !rec.IsUpcoming(today) {
			continue
		}
		if !scrapedDates[rec.Date] {
			continue
		}
		if seen[rec.Key()] {
			continue
		}

		change := Change{Type: ChangePostponed, Previous: rec, DetectedAt: time.Now().UTC()}
		if newDate := otherDate(datesByName[rec.Name], rec.Date); newDate != "" {
			change.Type = ChangeRescheduled
			change.NewDate = newDate
		}

		updated := rec
		updated.Status = event.StatusPostponed
		updated.StatusNote = Note(change.NewDate)
		change.Updated = updated

		changes = append(changes, change)
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Previous.Date != changes[j].Previous.Date {
			return changes[i].Previous.Date < changes[j].Previous.Date
		}
		return changes[i].Previous.Name < changes[j].Previous.Name
	})
	return changes
}

// otherDate returns the earliest date in dates that differs from original
func otherDate(dates []string, original string) string {
	best := ""
	for _, d := range dates {
		if d == original {
			continue
		}
		if best == "" || d < best {
			best = d
		}
	}
	return best
}

// Store is the part of the event store the engine needs
type Store interface {
	Select(ctx context.Context, q storage.Query) ([]event.Record, error)
	Upsert(ctx context.Context, rec event.Record) error
}

// Report summarizes a reconciliation
type Report struct {
	Checked     int      `json:"checked"`
	Postponed   int      `json:"postponed"`
	Rescheduled int      `json:"rescheduled"`
	Failed      int      `json:"failed"`
	Changes     []Change `json:"changes"`
}

// Engine applies plans to a store
type Engine struct {
	store  Store
	now    func() time.Time
	dryRun bool
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithClock overrides time.Now
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithDryRun plans without writing
func WithDryRun(dryRun bool) EngineOption {
	return func(e *Engine) { e.dryRun = dryRun }
}

// NewEngine creates an engine bound to store
func NewEngine(store Store, opts ...EngineOption) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile loads the stored upcoming fixtures, plans the postponements
// against the seen keys and writes them. A failed write is counted, not
// returned.
func (e *Engine) Reconcile(ctx context.Context, seen map[string]bool, scrapedDates map[string]bool) (Report, error) {
	today := event.Day(e.now())

	stored, err := e.store.Select(ctx, storage.Query{
		FromDate: event.FormatDate(today),
		Status:   event.StatusApproved,
		Type:     event.TypeFootball,
	})
	if err != nil {
		return Report{}, errors.Wrap(err, "loading stored fixtures")
	}

	changes := Plan(stored, seen, scrapedDates, today)
	report := Report{Checked: len(stored), Changes: changes}

	for _, c := range changes {
		switch c.Type {
		case ChangeRescheduled:
			report.Rescheduled++
		default:
			report.Postponed++
		}

		logger.Info("fixture postponed", logger.Fields{
			"event":    c.Key(),
			"type":     string(c.Type),
			"new_date": c.NewDate,
			"dry_run":  e.dryRun,
		})
		if e.dryRun {
			continue
		}
		if err := e.store.Upsert(ctx, c.Updated); err != nil {
			report.Failed++
			logger.Error("failed to mark fixture postponed", logger.Fields{"event": c.Key()}, err)
		}
	}

	return report, nil
}
