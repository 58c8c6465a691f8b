package parser

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/logger"
)

const (
	// SiteURL resolves relative links found in listing markup
	SiteURL = "https://www.zerozero.pt"

	// ListItemSelector matches one fixture in the current list layout
	ListItemSelector = "li.game"
	// TableRowSelector matches one fixture in the legacy table layout
	TableRowSelector = "tr.parent"

	// FlagSelector is searched only inside a fixture's competition element
	FlagSelector = `span.flag.pt, img[src*="flags/pt"], img[alt="Portugal"]`

	// current "/jogo/{date}-{slug}/{id}" links and legacy "jogo.php?id=" links
	matchLinkSelector = `a[href*="/jogo/"], a[href*="jogo.php"]`
)

// ContainerSelectors are the fixture containers a loader should wait for
var ContainerSelectors = []string{ListItemSelector, TableRowSelector}

var validate = validator.New()

var (
	linkDatePattern = regexp.MustCompile(`/jogo/(\d{4}-\d{2}-\d{2})`)
	// "Team A vs Team B" or "Team A 3-1 Team B"
	teamsPattern = regexp.MustCompile(`(?i)^\s*(.+?)\s+(?:vs\.?|\d+\s*-\s*\d+)\s+(.+?)\s*$`)
	// "Team A x Team B", tried only when no vs or score separator is present
	teamsXPattern = regexp.MustCompile(`(?i)^\s*(.+?)\s+x\s+(.+?)\s*$`)
)

// layout extracts candidate fixtures from one page structure
type layout struct {
	name  string
	parse func(doc *goquery.Document, pageDate time.Time) []event.RawFixture
}

// layouts are tried in order; earlier layouts win on duplicate match ids
var layouts = []layout{
	{name: "list", parse: parseListItems},
	{name: "table", parse: parseTableRows},
}

// Parse extracts fixtures from rendered listing markup. Both layouts are
// parsed and unioned; a match id seen twice is emitted once. Entries that fail
// validation are skipped. pageDate is used when an entry carries no date of
// its own and as the reference year for "dd/mm" dates.
func Parse(markup string, pageDate time.Time) []event.RawFixture {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		logger.Warn("unparseable markup", logger.Fields{"error": err.Error()})
		return nil
	}

	seen := make(map[string]bool)
	fixtures := make([]event.RawFixture, 0)

	for _, l := range layouts {
		for _, fx := range l.parse(doc, pageDate) {
			if err := validate.Struct(fx); err != nil {
				logger.Debug("skipping invalid fixture", logger.Fields{
					"layout": l.name,
					"url":    fx.SourceURL,
					"error":  err.Error(),
				})
				continue
			}
			key := fx.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			fixtures = append(fixtures, fx)
		}
	}

	return fixtures
}

func parseListItems(doc *goquery.Document, pageDate time.Time) []event.RawFixture {
	var out []event.RawFixture

	doc.Find(ListItemSelector).Each(func(_ int, item *goquery.Selection) {
		teams := item.Find("span.team")
		if teams.Length() < 2 {
			return
		}

		href, _ := item.Find(matchLinkSelector).First().Attr("href")
		datetime := item.Find(".datetime").First()

		clock, ok := event.NormalizeClock(cleanText(datetime.Find("span.time").First().Text()))
		if !ok {
			return
		}

		dateText := cleanText(datetime.Find(".date").First().Text())
		if dateText == "" {
			dateText = cleanText(datetime.Text())
		}

		competition := item.Find(".competition").First()

		out = append(out, event.RawFixture{
			HomeTeam:        cleanText(teams.Eq(0).Text()),
			AwayTeam:        cleanText(teams.Eq(1).Text()),
			Date:            fixtureDate(href, dateText, pageDate),
			Time:            clock,
			CompetitionText: cleanText(competition.Text()),
			SourceURL:       absoluteURL(SiteURL, href),
			HasCountryFlag:  competition.Find(FlagSelector).Length() > 0,
		})
	})

	return out
}

func parseTableRows(doc *goquery.Document, pageDate time.Time) []event.RawFixture {
	var out []event.RawFixture

	doc.Find(TableRowSelector).Each(func(_ int, row *goquery.Selection) {
		info := row.Find("td.info").First()
		if info.Length() == 0 {
			return
		}

		link := info.Find(matchLinkSelector).First()
		if link.Length() == 0 {
			link = row.Find(matchLinkSelector).First()
		}
		href, _ := link.Attr("href")

		home, away, ok := splitTeams(cleanText(link.Text()))
		if !ok {
			home, away, ok = splitTeams(cleanText(info.Text()))
		}
		if !ok {
			return
		}

		clock, ok := event.NormalizeClock(cleanText(row.Find("td.time").First().Text()))
		if !ok {
			return
		}

		competition := row.Find(".competition").First()

		out = append(out, event.RawFixture{
			HomeTeam:        home,
			AwayTeam:        away,
			Date:            fixtureDate(href, cleanText(row.Find("td.date").First().Text()), pageDate),
			Time:            clock,
			CompetitionText: cleanText(competition.Text()),
			SourceURL:       absoluteURL(SiteURL, href),
			HasCountryFlag:  competition.Find(FlagSelector).Length() > 0,
		})
	})

	return out
}

// splitTeams splits "home <sep> away". A "vs" or score separator wins over
// " x ", so a team whose name contains " x " survives when either is present.
func splitTeams(text string) (home, away string, ok bool) {
	m := teamsPattern.FindStringSubmatch(text)
	if m == nil {
		m = teamsXPattern.FindStringSubmatch(text)
	}
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// fixtureDate prefers the date embedded in the match link, then the entry's
// own date text, then the page date.
func fixtureDate(href, dateText string, pageDate time.Time) time.Time {
	if m := linkDatePattern.FindStringSubmatch(href); m != nil {
		if d, ok := event.ParseFixtureDate(m[1], pageDate); ok {
			return d
		}
	}
	if d, ok := event.ParseFixtureDate(dateText, pageDate); ok {
		return d
	}
	if pageDate.IsZero() {
		return time.Time{}
	}
	return event.Day(pageDate)
}

// cleanText collapses whitespace
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// absoluteURL resolves href against base. Empty input yields "".
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
