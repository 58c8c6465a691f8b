package cli

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/gazetteer"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate     SortOrder = "date"
	SortByName     SortOrder = "name"
	SortByCategory SortOrder = "category"
)

func parseSortOrder(raw string) (SortOrder, error) {
	switch o := SortOrder(raw); o {
	case SortByDate, SortByName, SortByCategory:
		return o, nil
	}
	return "", errors.Newf("invalid sort order: %s (must be date, name or category)", raw)
}

// sortRecords sorts records in place. Ties fall back to date order.
func sortRecords(recs []event.Record, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(recs, func(i, j int) bool {
			return compareByDate(recs[i], recs[j])
		})
	case SortByName:
		sort.SliceStable(recs, func(i, j int) bool {
			a, b := gazetteer.Fold(recs[i].Name), gazetteer.Fold(recs[j].Name)
			if a != b {
				return a < b
			}
			return compareByDate(recs[i], recs[j])
		})
	case SortByCategory:
		sort.SliceStable(recs, func(i, j int) bool {
			a, b := category(recs[i]), category(recs[j])
			if a != b {
				return a < b
			}
			return compareByDate(recs[i], recs[j])
		})
	}
}

func category(rec event.Record) string {
	if rec.Football == nil {
		return ""
	}
	return gazetteer.Fold(rec.Category)
}

// compareByDate orders by date, then kick-off time, then name.
// Unknown kick-off times sort after known ones on the same day.
func compareByDate(a, b event.Record) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	ta, tb := a.Time, b.Time
	if ta != tb {
		if ta == event.TimeUnknown {
			return false
		}
		if tb == event.TimeUnknown {
			return true
		}
		return ta < tb
	}
	return a.Name < b.Name
}
