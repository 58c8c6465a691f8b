package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"

	"github.com/pfrederiksen/rota-da-festa/internal/calendar"
	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/runner"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// OutputResult contains the events of an export
type OutputResult struct {
	ExportedAt   time.Time      `json:"exported_at"`
	FromDate     string         `json:"from_date,omitempty"`
	Events       []event.Record `json:"events"`
	EventCount   int            `json:"event_count"`
	CalendarName string         `json:"-"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateFeed(result.Events, result.CalendarName))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteSummary reports a finished run
func WriteSummary(w io.Writer, s runner.Summary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatText:
		if s.StoppedEmpty {
			fmt.Fprintln(w, "No fixtures collected; store left untouched.")
			return nil
		}
		fmt.Fprintf(w, "Run %s finished in %s\n", s.RunID, s.Duration.Round(time.Second))
		fmt.Fprintf(w, "  Fixtures:    %d records from %d unique matches\n", s.Crawl.Records, s.Crawl.UniqueMatches)
		fmt.Fprintf(w, "  Upserted:    %d (%d failed)\n", s.Upserted, s.Failed)
		fmt.Fprintf(w, "  Postponed:   %d (+%d rescheduled)\n", s.Reconcile.Postponed, s.Reconcile.Rescheduled)
		if s.PurgeRan {
			fmt.Fprintf(w, "  Purged:      %d past events\n", s.Purged)
		}
		if s.Notified > 0 {
			fmt.Fprintf(w, "  Notified:    %d postponements\n", s.Notified)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := sonic.ConfigStd.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs events as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, rec := range result.Events {
		clock := rec.Time
		if clock == event.TimeUnknown {
			clock = "--:--"
		}
		line := fmt.Sprintf("%s %s  %s", rec.Date, clock, rec.Name)
		if rec.Status == event.StatusPostponed {
			line += "  [ADIADO]"
		}
		fmt.Fprintln(w, line)

		if verbose {
			if rec.Football != nil && rec.Category != "" {
				fmt.Fprintf(w, "       Category: %s\n", rec.Category)
			}
			if rec.VenueName != "" {
				fmt.Fprintf(w, "       Venue: %s\n", rec.VenueName)
			}
			if rec.Price != "" {
				fmt.Fprintf(w, "       Price: %s\n", rec.Price)
			}
			if rec.StatusNote != "" {
				fmt.Fprintf(w, "       Note: %s\n", rec.StatusNote)
			}
		}
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", result.EventCount)
	return nil
}
