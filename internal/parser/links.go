package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
)

// editionSuffixPattern strips sub-pages so different tabs of one edition map
// to the same root URL.
var editionSuffixPattern = regexp.MustCompile(`/(?:calendario|classificacao|jogos|resultados)/?$`)

// EditionLinks returns distinct absolute edition URLs found in a competition
// or association page, in document order, capped at max (max <= 0 means no cap).
func EditionLinks(markup, base string, max int) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find(`a[href*="/edicao/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		u := editionRoot(absoluteURL(base, href))
		if u == "" || seen[u] {
			return true
		}
		seen[u] = true
		links = append(links, u)
		return max <= 0 || len(links) < max
	})

	return links
}

// CalendarURL returns the fixtures sub-page of an edition
func CalendarURL(edition string) string {
	root := editionRoot(edition)
	if root == "" {
		return ""
	}
	return root + "/calendario"
}

func editionRoot(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = editionSuffixPattern.ReplaceAllString(u, "")
	return strings.TrimRight(u, "/")
}

// detailHeaderSelectors narrow team-link lookup to the match header when the
// page has one; otherwise the whole page is searched.
var detailHeaderSelectors = []string{".match-header", ".game-header", "#game_report", "header.match"}

// ParseDetail extracts the home/away team profile links and the standings
// link from a fixture detail page. Missing links are left empty.
func ParseDetail(markup, base string) event.Links {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return event.Links{}
	}

	scope := doc.Selection
	for _, sel := range detailHeaderSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 && s.Find(`a[href*="/equipa/"]`).Length() >= 2 {
			scope = s
			break
		}
	}

	var teams []string
	scope.Find(`a[href*="/equipa/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		u := absoluteURL(base, href)
		if u == "" || (len(teams) > 0 && teams[0] == u) {
			return true
		}
		teams = append(teams, u)
		return len(teams) < 2
	})

	var links event.Links
	if len(teams) > 0 {
		links.HomeTeamURL = teams[0]
	}
	if len(teams) > 1 {
		links.AwayTeamURL = teams[1]
	}
	if href, ok := doc.Find(`a[href*="classificacao"]`).First().Attr("href"); ok {
		links.StandingsURL = absoluteURL(base, href)
	}
	return links
}
