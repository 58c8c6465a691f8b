// Package classifier decides which fixtures are Portuguese football and tags
// them with a competition tier, a ticket price estimate and an age bracket.
//
// All keyword matching is done on accent-folded, lowercased text and only on
// whole words, so "Liga 3" never matches inside "Liga 30" and "AF" never
// matches inside "AFC".
package classifier

import (
	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/gazetteer"
)

const (
	CategoryDistrict = "Futebol Distrital"
	PriceDistrict    = "~3€ (estimado)"
)

// scopeKeywords denote national and regional Portuguese competitions
var scopeKeywords = []string{
	"af", "a.f.", "associacao de futebol", "distrital",
	"liga portugal", "primeira liga", "liga 3", "liga revelacao",
	"campeonato de portugal", "taca de portugal", "taca da liga",
	"divisao de honra", "divisao de elite", "pro-nacional", "sabseg",
	"juniores", "juvenis", "iniciados", "infantis", "benjamins", "traquinas",
}

// tierRule maps competition keywords to a category and price. A rule matches
// when any keyword is present and no excluded keyword is.
type tierRule struct {
	category string
	price    string
	any      []string
	none     []string
}

// tierRules are evaluated in priority order; the first match wins
var tierRules = []tierRule{
	{
		category: "Liga Portugal", price: "15€+",
		any:  []string{"liga portugal", "primeira liga", "liga betclic", "i liga"},
		none: []string{"liga portugal 2", "liga portugal sabseg", "liga portugal meu super", "liga 2", "liga 3"},
	},
	{category: "Liga 3", price: "8€", any: []string{"liga 3", "iii liga"}},
	{category: "Liga 2", price: "10€", any: []string{"liga portugal 2", "liga portugal sabseg", "liga portugal meu super", "liga 2", "segunda liga", "ii liga"}},
	{
		category: "Competições Europeias", price: "30€+",
		any: []string{"liga dos campeoes", "champions league", "liga europa", "europa league", "conference league", "liga conferencia", "uefa"},
	},
	{category: "Taça de Portugal", price: "10€", any: []string{"taca de portugal"}},
	{category: "Taça da Liga", price: "12€", any: []string{"taca da liga", "allianz cup"}},
	{category: "Liga Revelação", price: "3€", any: []string{"liga revelacao", "revelacao", "sub-23", "sub 23"}},
	{category: "Campeonato de Portugal", price: "5€", any: []string{"campeonato de portugal"}},
	{category: "Divisão de Honra", price: "4€", any: []string{"divisao de honra", "pro-nacional", "divisao de elite"}},
}

type bracketRule struct {
	bracket  event.AgeBracket
	keywords []string
}

// bracketRules run youngest first so "Juniores B (Sub-17)" lands on Sub-17
// only when no younger bracket is named.
var bracketRules = []bracketRule{
	{event.Traquinas, []string{"traquinas", "sub-9", "sub 9", "sub-8", "sub-7"}},
	{event.Benjamins, []string{"benjamins", "sub-11", "sub 11", "sub-10", "sub 10"}},
	{event.Sub13, []string{"infantis", "sub-13", "sub 13", "sub-12"}},
	{event.Sub15, []string{"iniciados", "sub-15", "sub 15", "sub-14"}},
	{event.Sub17, []string{"juvenis", "sub-17", "sub 17", "sub-16"}},
	{event.Sub19, []string{"juniores", "sub-19", "sub 19", "sub-18"}},
	{event.Sub23, []string{"sub-23", "sub 23", "sub-21", "revelacao"}},
}

// Classifier holds the known-teams list used by the scope check
type Classifier struct {
	knownTeams []string
}

// New creates a classifier. knownTeams are matched with gazetteer.TeamMatch.
func New(knownTeams []string) *Classifier {
	teams := make([]string, len(knownTeams))
	copy(teams, knownTeams)
	return &Classifier{knownTeams: teams}
}

// IsInScope reports whether a fixture is Portuguese football: the competition
// carries the country flag, names a Portuguese competition, or one of the
// teams is known.
func (c *Classifier) IsInScope(home, away, competition string, hasFlag bool) bool {
	if hasFlag {
		return true
	}
	if containsAny(competition, scopeKeywords) {
		return true
	}
	for _, team := range []string{home, away} {
		team = gazetteer.CleanTeamName(team)
		for _, k := range c.knownTeams {
			if gazetteer.TeamMatch(k, team) {
				return true
			}
		}
	}
	return false
}

// Classify returns the category, price estimate and age bracket for a
// competition and fixture label. Youth brackets always yield
// "Formação - {bracket}" at PriceFree.
func Classify(competition, label string) (category, price string, bracket event.AgeBracket) {
	bracket = AgeBracketOf(competition + " " + label)
	if bracket.IsFormation() {
		return "Formação - " + string(bracket), event.PriceFree, bracket
	}

	for _, r := range tierRules {
		if containsAny(competition, r.any) && !containsAny(competition, r.none) {
			return r.category, r.price, bracket
		}
	}
	return CategoryDistrict, PriceDistrict, bracket
}

// AgeBracketOf scans text for youth keywords, youngest first, defaulting to
// Seniores.
func AgeBracketOf(text string) event.AgeBracket {
	for _, r := range bracketRules {
		if containsAny(text, r.keywords) {
			return r.bracket
		}
	}
	return event.Seniores
}

// ClassifyFixture tags a raw fixture
func (c *Classifier) ClassifyFixture(fx event.RawFixture) event.ClassifiedFixture {
	category, price, bracket := Classify(fx.CompetitionText, fx.Name())
	return event.ClassifiedFixture{
		RawFixture:    fx,
		Category:      category,
		PriceEstimate: price,
		AgeBracket:    bracket,
	}
}

func containsAny(text string, keywords []string) bool {
	folded := gazetteer.Fold(text)
	if folded == "" {
		return false
	}
	for _, k := range keywords {
		if gazetteer.ContainsWord(folded, k) {
			return true
		}
	}
	return false
}
