// Package crawler drives a full scrape of the target site.
//
// Phase 1 loads the date-indexed agenda page for each day of the look-ahead
// window and records which dates loaded. Phase 2 walks a catalog of
// association and youth-competition pages, follows a bounded number of edition
// links per source and parses each edition's calendar, keeping fixtures inside
// the window. The merged set is filtered, classified, geocoded and enriched
// from each fixture's detail page.
package crawler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/loader"
	"github.com/pfrederiksen/rota-da-festa/internal/logger"
	"github.com/pfrederiksen/rota-da-festa/internal/parser"
)

const (
	AgendaURLFormat      = parser.SiteURL + "/agenda.php?date=%s"
	DefaultLookaheadDays = 7
	DefaultDetailDelay   = 2 * time.Second
	DefaultMaxEditions   = 5
)

// AgendaURL returns the agenda page for a day
func AgendaURL(day time.Time) string {
	return fmt.Sprintf(AgendaURLFormat, event.FormatDate(day))
}

// PageLoader returns rendered markup, or "" when the page could not be loaded
type PageLoader interface {
	Load(ctx context.Context, url string, acceptConsent bool) string
}

// FixtureClassifier filters and tags fixtures
type FixtureClassifier interface {
	IsInScope(home, away, competition string, hasFlag bool) bool
	ClassifyFixture(fx event.RawFixture) event.ClassifiedFixture
}

// VenueResolver finds the venue of a fixture
type VenueResolver interface {
	ResolveFixture(ctx context.Context, home, away, competition string) (event.Venue, bool)
}

// Source is one association or competition listing page
type Source struct {
	Name string
	URL  string
	// MaxEditions caps edition links followed; zero uses Options.MaxEditions.
	MaxEditions int
}

// Options configures a crawl
type Options struct {
	LookaheadDays int
	MaxEditions   int
	DetailDelay   time.Duration
	SkipDetails   bool
	Sources       []Source
	Now           func() time.Time
	Sleeper       loader.Sleeper
	Metrics       *logger.Metrics
}

// Stats counts what happened during a crawl
type Stats struct {
	AgendaPages   int `json:"agenda_pages"`
	AgendaFailed  int `json:"agenda_failed"`
	SourcePages   int `json:"source_pages"`
	EditionPages  int `json:"edition_pages"`
	PagesFailed   int `json:"pages_failed"`
	RawFixtures   int `json:"raw_fixtures"`
	UniqueMatches int `json:"unique_matches"`
	OutOfWindow   int `json:"out_of_window"`
	OutOfScope    int `json:"out_of_scope"`
	Unresolved    int `json:"unresolved"`
	Approximate   int `json:"approximate"`
	DetailPages   int `json:"detail_pages"`
	Records       int `json:"records"`
}

// Fields flattens the stats for logging
func (s Stats) Fields() logger.Fields {
	return logger.Fields{
		"agenda_pages":   s.AgendaPages,
		"agenda_failed":  s.AgendaFailed,
		"source_pages":   s.SourcePages,
		"edition_pages":  s.EditionPages,
		"pages_failed":   s.PagesFailed,
		"raw_fixtures":   s.RawFixtures,
		"unique_matches": s.UniqueMatches,
		"out_of_window":  s.OutOfWindow,
		"out_of_scope":   s.OutOfScope,
		"unresolved":     s.Unresolved,
		"approximate":    s.Approximate,
		"detail_pages":   s.DetailPages,
		"records":        s.Records,
	}
}

// Result is the output of a crawl
type Result struct {
	Records []event.Record
	// ScrapedDates holds the YYYY-MM-DD agenda dates that loaded successfully.
	ScrapedDates map[string]bool
	// Seen holds the event.RecordKey of every merged fixture, including those
	// later dropped as out of scope or unresolved.
	Seen  map[string]bool
	Stats Stats
}

// SeenKeys returns Seen plus the keys of Records
func (r Result) SeenKeys() map[string]bool {
	keys := make(map[string]bool, len(r.Seen)+len(r.Records))
	for k := range r.Seen {
		keys[k] = true
	}
	for _, rec := range r.Records {
		keys[rec.Key()] = true
	}
	return keys
}

// SortedDates returns ScrapedDates in ascending order
func (r Result) SortedDates() []string {
	dates := make([]string, 0, len(r.ScrapedDates))
	for d := range r.ScrapedDates {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Crawler runs the two-phase crawl
type Crawler struct {
	loader     PageLoader
	classifier FixtureClassifier
	resolver   VenueResolver
	opts       Options
}

// New creates a crawler. Zero options fall back to the package defaults.
func New(l PageLoader, c FixtureClassifier, r VenueResolver, opts Options) *Crawler {
	if opts.LookaheadDays <= 0 {
		opts.LookaheadDays = DefaultLookaheadDays
	}
	if opts.MaxEditions <= 0 {
		opts.MaxEditions = DefaultMaxEditions
	}
	if opts.DetailDelay < 0 {
		opts.DetailDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleeper == nil {
		opts.Sleeper = loader.RealSleeper{}
	}
	return &Crawler{loader: l, classifier: c, resolver: r, opts: opts}
}

// fixtureSet deduplicates fixtures by match id, keeping the first seen
type fixtureSet struct {
	byKey map[string]bool
	list  []event.RawFixture
}

func newFixtureSet() *fixtureSet {
	return &fixtureSet{byKey: make(map[string]bool)}
}

func (s *fixtureSet) add(fx event.RawFixture) bool {
	key := fx.Key()
	if s.byKey[key] {
		return false
	}
	s.byKey[key] = true
	s.list = append(s.list, fx)
	return true
}

// Crawl runs both phases and builds the records
func (c *Crawler) Crawl(ctx context.Context) Result {
	today := event.Day(c.opts.Now())
	result := Result{ScrapedDates: make(map[string]bool)}
	set := newFixtureSet()

	c.scanAgenda(ctx, today, set, &result)
	c.scanSources(ctx, today, set, &result)

	result.Stats.UniqueMatches = len(set.list)
	result.Seen = make(map[string]bool, len(set.list))
	for _, fx := range set.list {
		result.Seen[event.RecordKey(fx.Name(), event.FormatDate(fx.Date))] = true
	}
	logger.Info("crawl merged", logger.Fields{
		"raw_fixtures":   result.Stats.RawFixtures,
		"unique_matches": result.Stats.UniqueMatches,
		"scraped_dates":  len(result.ScrapedDates),
	})

	result.Records = c.buildRecords(ctx, set.list, &result.Stats)
	result.Stats.Records = len(result.Records)
	return result
}

func (c *Crawler) scanAgenda(ctx context.Context, today time.Time, set *fixtureSet, result *Result) {
	for i := 0; i < c.opts.LookaheadDays; i++ {
		day := today.AddDate(0, 0, i)
		url := AgendaURL(day)

		markup := c.loader.Load(ctx, url, true)
		if markup == "" {
			result.Stats.AgendaFailed++
			continue
		}
		result.Stats.AgendaPages++
		result.ScrapedDates[event.FormatDate(day)] = true

		fixtures := parser.Parse(markup, day)
		added := c.merge(set, fixtures, nil, &result.Stats)
		logger.Info("agenda page parsed", logger.Fields{
			"date":     event.FormatDate(day),
			"fixtures": len(fixtures),
			"new":      added,
		})
	}
}

func (c *Crawler) scanSources(ctx context.Context, today time.Time, set *fixtureSet, result *Result) {
	inWindow := func(fx event.RawFixture) bool {
		return event.WithinDays(fx.Date, today, c.opts.LookaheadDays)
	}

	for _, src := range c.opts.Sources {
		markup := c.loader.Load(ctx, src.URL, true)
		if markup == "" {
			result.Stats.PagesFailed++
			continue
		}
		result.Stats.SourcePages++

		max := src.MaxEditions
		if max <= 0 {
			max = c.opts.MaxEditions
		}
		editions := parser.EditionLinks(markup, parser.SiteURL, max)

		for _, edition := range editions {
			cal := c.loader.Load(ctx, parser.CalendarURL(edition), false)
			if cal == "" {
				result.Stats.PagesFailed++
				continue
			}
			result.Stats.EditionPages++

			fixtures := parser.Parse(cal, today)
			added := c.merge(set, fixtures, inWindow, &result.Stats)
			logger.Info("edition calendar parsed", logger.Fields{
				"source":   src.Name,
				"edition":  edition,
				"fixtures": len(fixtures),
				"new":      added,
			})
		}
	}
}

func (c *Crawler) merge(set *fixtureSet, fixtures []event.RawFixture, keep func(event.RawFixture) bool, stats *Stats) int {
	added := 0
	for _, fx := range fixtures {
		stats.RawFixtures++
		if keep != nil && !keep(fx) {
			stats.OutOfWindow++
			continue
		}
		if set.add(fx) {
			added++
		}
	}
	return added
}

func (c *Crawler) buildRecords(ctx context.Context, fixtures []event.RawFixture, stats *Stats) []event.Record {
	records := make([]event.Record, 0, len(fixtures))
	seenKeys := make(map[string]bool)
	detailVisits := 0

	for _, fx := range fixtures {
		if !c.classifier.IsInScope(fx.HomeTeam, fx.AwayTeam, fx.CompetitionText, fx.HasCountryFlag) {
			stats.OutOfScope++
			continue
		}

		classified := c.classifier.ClassifyFixture(fx)

		venue, ok := c.resolver.ResolveFixture(ctx, fx.HomeTeam, fx.AwayTeam, fx.CompetitionText)
		if !ok {
			stats.Unresolved++
			c.count("fixtures.unresolved")
			logger.Warn("venue not found, dropping fixture", logger.Fields{
				"fixture":     fx.Name(),
				"competition": fx.CompetitionText,
				"url":         fx.SourceURL,
			})
			continue
		}
		if venue.Approximate {
			stats.Approximate++
		}

		var links event.Links
		if !c.opts.SkipDetails && fx.SourceURL != "" {
			if detailVisits > 0 && c.opts.DetailDelay > 0 {
				if err := c.opts.Sleeper.Sleep(ctx, c.opts.DetailDelay); err != nil {
					logger.Warn("detail enrichment interrupted", logger.Fields{"error": err.Error()})
				}
			}
			detailVisits++
			if markup := c.loader.Load(ctx, fx.SourceURL, false); markup != "" {
				stats.DetailPages++
				links = parser.ParseDetail(markup, parser.SiteURL)
			}
		}

		rec := event.NewFootballRecord(classified, venue, links)
		if seenKeys[rec.Key()] {
			continue
		}
		seenKeys[rec.Key()] = true
		records = append(records, rec)
	}

	return records
}

func (c *Crawler) count(name string) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.IncrCounter(name)
	}
}
