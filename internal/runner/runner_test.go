package runner

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/rota-da-festa/internal/crawler"
	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/logger"
	"github.com/pfrederiksen/rota-da-festa/internal/reconcile"
	"github.com/pfrederiksen/rota-da-festa/internal/storage"
)

// Thursday
var now = time.Date(2024, 5, 9, 10, 0, 0, 0, event.Lisbon)

func clock() time.Time { return now }

func fixture(name, date string) event.Record {
	return event.Record{
		Name:      name,
		Type:      event.TypeFootball,
		Date:      date,
		Time:      "15:00",
		VenueName: "Estádio Municipal de Aveiro",
		Status:    event.StatusApproved,
		Football:  &event.Football{Category: "Futebol Distrital"},
	}
}

type stubCrawler struct {
	result crawler.Result
	calls  int
}

func (c *stubCrawler) Crawl(context.Context) crawler.Result {
	c.calls++
	return c.result
}

type recordingNotifier struct {
	batches [][]reconcile.Change
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, changes []reconcile.Change) error {
	n.batches = append(n.batches, changes)
	return n.err
}

func newStore(t *testing.T, recs ...event.Record) *storage.FileStore {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, store.Upsert(context.Background(), rec))
	}
	return store
}

func stored(t *testing.T, store storage.Store) map[string]event.Record {
	t.Helper()
	recs, err := store.Select(context.Background(), storage.Query{})
	require.NoError(t, err)
	out := make(map[string]event.Record, len(recs))
	for _, rec := range recs {
		out[rec.Key()] = rec
	}
	return out
}

func TestMain(m *testing.M) {
	logger.SetDefault(logger.NewNop())
	m.Run()
}

func TestRun_FullPipeline(t *testing.T) {
	vanished := fixture("SC Beira-Mar vs GD Estarreja", "2024-05-10")
	past := fixture("Ovarense vs Arouca", "2024-05-01")
	store := newStore(t, vanished, past)

	fresh := fixture("Anadia FC vs RD Águeda", "2024-05-10")
	crawl := &stubCrawler{result: crawler.Result{
		Records:      []event.Record{fresh},
		ScrapedDates: map[string]bool{"2024-05-10": true},
		Stats:        crawler.Stats{Records: 1},
	}}
	notif := &recordingNotifier{}

	summary, err := Run(context.Background(), Deps{
		Crawler:  crawl,
		Store:    store,
		Notifier: notif,
		Now:      clock,
	}, Options{PurgeWeekday: time.Thursday})
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.False(t, summary.StoppedEmpty)
	assert.Equal(t, 1, summary.Upserted)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.Reconcile.Postponed)
	assert.True(t, summary.PurgeRan)
	assert.EqualValues(t, 1, summary.Purged)
	assert.Equal(t, 1, summary.Notified)

	got := stored(t, store)
	require.Len(t, got, 2)
	assert.Equal(t, event.StatusPostponed, got[vanished.Key()].Status)
	assert.Equal(t, event.StatusApproved, got[fresh.Key()].Status)
	assert.NotContains(t, got, past.Key())

	require.Len(t, notif.batches, 1)
	assert.Equal(t, vanished.Key(), notif.batches[0][0].Key())
}

func TestRun_UnresolvedFixtureIsNotPostponed(t *testing.T) {
	unresolved := fixture("Atlético Desconhecido vs Sporting Incógnito", "2024-05-10")
	store := newStore(t, unresolved)
	notif := &recordingNotifier{}

	summary, err := Run(context.Background(), Deps{
		Crawler: &stubCrawler{result: crawler.Result{
			Records:      []event.Record{fixture("Anadia FC vs RD Águeda", "2024-05-10")},
			ScrapedDates: map[string]bool{"2024-05-10": true},
			Seen:         map[string]bool{unresolved.Key(): true},
			Stats:        crawler.Stats{Unresolved: 1, Records: 1},
		}},
		Store:    store,
		Notifier: notif,
		Now:      clock,
	}, Options{PurgeWeekday: time.Monday})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Reconcile.Postponed)
	assert.Empty(t, notif.batches)
	assert.Equal(t, event.StatusApproved, stored(t, store)[unresolved.Key()].Status)
}

func TestRun_EmptyCrawlStopsEarly(t *testing.T) {
	upcoming := fixture("SC Beira-Mar vs GD Estarreja", "2024-05-10")
	past := fixture("Ovarense vs Arouca", "2024-05-01")
	store := newStore(t, upcoming, past)
	notif := &recordingNotifier{}

	summary, err := Run(context.Background(), Deps{
		Crawler: &stubCrawler{result: crawler.Result{
			ScrapedDates: map[string]bool{"2024-05-10": true},
		}},
		Store:    store,
		Notifier: notif,
		Now:      clock,
	}, Options{ForcePurge: true})
	require.NoError(t, err)

	assert.True(t, summary.StoppedEmpty)
	assert.False(t, summary.PurgeRan)
	assert.Empty(t, notif.batches)

	got := stored(t, store)
	assert.Len(t, got, 2)
	assert.Equal(t, event.StatusApproved, got[upcoming.Key()].Status)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	vanished := fixture("SC Beira-Mar vs GD Estarreja", "2024-05-10")
	past := fixture("Ovarense vs Arouca", "2024-05-01")
	store := newStore(t, vanished, past)
	notif := &recordingNotifier{}

	summary, err := Run(context.Background(), Deps{
		Crawler: &stubCrawler{result: crawler.Result{
			Records:      []event.Record{fixture("Anadia FC vs RD Águeda", "2024-05-10")},
			ScrapedDates: map[string]bool{"2024-05-10": true},
		}},
		Store:    store,
		Notifier: notif,
		Now:      clock,
	}, Options{DryRun: true, ForcePurge: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Upserted)
	assert.Equal(t, 1, summary.Reconcile.Postponed)
	assert.True(t, summary.PurgeRan)
	assert.EqualValues(t, 1, summary.Purged, "dry run previews the purge count")
	assert.Len(t, notif.batches, 1)

	got := stored(t, store)
	require.Len(t, got, 2)
	assert.Equal(t, event.StatusApproved, got[vanished.Key()].Status)
	assert.Contains(t, got, past.Key())
}

func TestRun_PurgeOnlyOnPurgeDay(t *testing.T) {
	past := fixture("Ovarense vs Arouca", "2024-05-01")
	store := newStore(t, past)

	summary, err := Run(context.Background(), Deps{
		Crawler: &stubCrawler{result: crawler.Result{
			Records:      []event.Record{fixture("Anadia FC vs RD Águeda", "2024-05-10")},
			ScrapedDates: map[string]bool{"2024-05-10": true},
		}},
		Store: store,
		Now:   clock,
	}, Options{PurgeWeekday: time.Monday})
	require.NoError(t, err)

	assert.False(t, summary.PurgeRan)
	assert.Contains(t, stored(t, store), past.Key())
}

func TestRun_NotifierFailureIsNotFatal(t *testing.T) {
	store := newStore(t, fixture("SC Beira-Mar vs GD Estarreja", "2024-05-10"))
	notif := &recordingNotifier{err: errors.New("Bad Request: chat not found")}

	summary, err := Run(context.Background(), Deps{
		Crawler: &stubCrawler{result: crawler.Result{
			Records:      []event.Record{fixture("Anadia FC vs RD Águeda", "2024-05-10")},
			ScrapedDates: map[string]bool{"2024-05-10": true},
		}},
		Store:    store,
		Notifier: notif,
		Now:      clock,
	}, Options{PurgeWeekday: time.Monday})
	require.NoError(t, err)

	assert.Len(t, notif.batches, 1)
	assert.Equal(t, 0, summary.Notified)
	assert.Equal(t, 1, summary.Upserted)
}

type failingReconciler struct{}

func (failingReconciler) Reconcile(context.Context, map[string]bool, map[string]bool) (reconcile.Report, error) {
	return reconcile.Report{}, errors.New("connection refused")
}

func TestRun_ReconcileFailureStillUpserts(t *testing.T) {
	store := newStore(t)
	metrics := logger.NewMetrics()

	summary, err := Run(context.Background(), Deps{
		Crawler: &stubCrawler{result: crawler.Result{
			Records: []event.Record{fixture("Anadia FC vs RD Águeda", "2024-05-10")},
		}},
		Store:      store,
		Reconciler: failingReconciler{},
		Metrics:    metrics,
		Now:        clock,
	}, Options{PurgeWeekday: time.Monday})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Upserted)
	assert.EqualValues(t, 1, metrics.Counter("records.upserted"))
	assert.Len(t, stored(t, store), 1)
}

func TestRun_RequiresCrawlerAndStore(t *testing.T) {
	_, err := Run(context.Background(), Deps{Store: newStore(t)}, Options{})
	assert.Error(t, err)

	_, err = Run(context.Background(), Deps{Crawler: &stubCrawler{}}, Options{})
	assert.Error(t, err)
}

func TestSummary_Fields(t *testing.T) {
	s := Summary{
		RunID:     "abc",
		Upserted:  3,
		Failed:    1,
		Reconcile: reconcile.Report{Postponed: 2, Failed: 1},
	}
	f := s.Fields()
	assert.Equal(t, "abc", f["run_id"])
	assert.Equal(t, 3, f["upserted"])
	assert.Equal(t, 2, f["upsert_failed"])
	assert.Equal(t, 2, f["postponed"])
}
