// Package runner executes one scraper run: crawl, reconcile postponements,
// upsert the fresh records, purge past events on the weekly purge day and
// announce postponements.
package runner

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/pfrederiksen/rota-da-festa/internal/crawler"
	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/logger"
	"github.com/pfrederiksen/rota-da-festa/internal/notifier"
	"github.com/pfrederiksen/rota-da-festa/internal/reconcile"
	"github.com/pfrederiksen/rota-da-festa/internal/storage"
)

// Crawler produces the fresh records of a run
type Crawler interface {
	Crawl(ctx context.Context) crawler.Result
}

// Reconciler marks vanished fixtures as postponed
type Reconciler interface {
	Reconcile(ctx context.Context, seen map[string]bool, scrapedDates map[string]bool) (reconcile.Report, error)
}

// Deps are the collaborators of a run
type Deps struct {
	Crawler    Crawler
	Store      storage.Store
	Reconciler Reconciler        // nil builds a reconcile.Engine on Store
	Notifier   notifier.Notifier // nil disables notifications
	Metrics    *logger.Metrics
	Now        func() time.Time
}

// Options tune a run
type Options struct {
	DryRun       bool
	PurgeWeekday time.Weekday
	// ForcePurge purges regardless of the weekday
	ForcePurge bool
}

// Summary reports what a run did
type Summary struct {
	RunID        string           `json:"run_id"`
	StartedAt    time.Time        `json:"started_at"`
	Duration     time.Duration    `json:"duration"`
	Crawl        crawler.Stats    `json:"crawl"`
	Reconcile    reconcile.Report `json:"reconcile"`
	Upserted     int              `json:"upserted"`
	Failed       int              `json:"failed"`
	PurgeRan     bool             `json:"purge_ran"`
	Purged       int64            `json:"purged"`
	Notified     int              `json:"notified"`
	StoppedEmpty bool             `json:"stopped_empty"`
}

// Fields flattens the summary for the final log line
func (s Summary) Fields() logger.Fields {
	f := s.Crawl.Fields()
	f["run_id"] = s.RunID
	f["duration"] = s.Duration.String()
	f["reconcile_checked"] = s.Reconcile.Checked
	f["postponed"] = s.Reconcile.Postponed
	f["rescheduled"] = s.Reconcile.Rescheduled
	f["upserted"] = s.Upserted
	f["upsert_failed"] = s.Failed + s.Reconcile.Failed
	f["purge_ran"] = s.PurgeRan
	f["purged"] = s.Purged
	f["notified"] = s.Notified
	return f
}

// Run executes one pass of the pipeline. Only a nil store or crawler is an
// error; every later failure is logged and counted.
func Run(ctx context.Context, deps Deps, opts Options) (Summary, error) {
	if deps.Crawler == nil || deps.Store == nil {
		return Summary{}, errors.New("runner needs a crawler and a store")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Metrics == nil {
		deps.Metrics = logger.NewMetrics()
	}
	if deps.Reconciler == nil {
		deps.Reconciler = reconcile.NewEngine(deps.Store,
			reconcile.WithClock(deps.Now),
			reconcile.WithDryRun(opts.DryRun))
	}

	summary := Summary{RunID: uuid.NewString(), StartedAt: deps.Now()}
	log := logger.Default().With(logger.Fields{"run_id": summary.RunID})
	defer func() {
		summary.Duration = deps.Now().Sub(summary.StartedAt)
		fields := summary.Fields()
		for k, v := range deps.Metrics.Summary() {
			fields["metric."+k] = v
		}
		log.Info("run finished", fields)
	}()

	log.Info("run started", logger.Fields{"dry_run": opts.DryRun})

	result := deps.Crawler.Crawl(ctx)
	summary.Crawl = result.Stats
	log.Info("crawl finished", result.Stats.Fields())

	if len(result.Records) == 0 {
		summary.StoppedEmpty = true
		log.Warn("no fixtures collected, skipping reconciliation and purge", logger.Fields{
			"scraped_dates": len(result.ScrapedDates),
		})
		return summary, nil
	}

	report, err := deps.Reconciler.Reconcile(ctx, result.SeenKeys(), result.ScrapedDates)
	if err != nil {
		log.Error("reconciliation failed", nil, err)
	}
	summary.Reconcile = report

	summary.Upserted, summary.Failed = upsertAll(ctx, log, deps.Store, result.Records, opts.DryRun)
	deps.Metrics.AddCounter("records.upserted", int64(summary.Upserted))
	deps.Metrics.AddCounter("records.failed", int64(summary.Failed))

	today := event.Day(deps.Now())
	if opts.ForcePurge || today.Weekday() == opts.PurgeWeekday {
		summary.PurgeRan = true
		summary.Purged = purge(ctx, log, deps.Store, today, opts.DryRun)
	}

	if deps.Notifier != nil && len(report.Changes) > 0 {
		if err := deps.Notifier.Notify(ctx, report.Changes); err != nil {
			log.Error("notification failed", logger.Fields{"changes": len(report.Changes)}, err)
		} else {
			summary.Notified = len(report.Changes)
		}
	}

	return summary, nil
}

func upsertAll(ctx context.Context, log *logger.Logger, store storage.Store, recs []event.Record, dryRun bool) (ok, failed int) {
	for _, rec := range recs {
		if dryRun {
			log.Debug("would upsert", logger.Fields{"event": rec.Key()})
			ok++
			continue
		}
		if err := store.Upsert(ctx, rec); err != nil {
			failed++
			log.Error("upsert failed", logger.Fields{"event": rec.Key()}, err)
			continue
		}
		ok++
	}
	return ok, failed
}

func purge(ctx context.Context, log *logger.Logger, store storage.Store, today time.Time, dryRun bool) int64 {
	cutoff := event.FormatDate(today)
	if dryRun {
		past, err := store.Select(ctx, storage.Query{})
		if err != nil {
			log.Error("purge preview failed", nil, err)
			return 0
		}
		var n int64
		for _, rec := range past {
			if rec.Date < cutoff {
				n++
			}
		}
		log.Info("would purge past events", logger.Fields{"before": cutoff, "count": n})
		return n
	}

	n, err := store.DeleteBefore(ctx, cutoff)
	if err != nil {
		log.Error("purge failed", logger.Fields{"before": cutoff}, err)
		return 0
	}
	log.Info("purged past events", logger.Fields{"before": cutoff, "count": n})
	return n
}
