package event

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	TypeFootball = "Futebol"
	TypeCulture  = "Cultura/Lazer"

	StatusApproved  = "aprovado"
	StatusPostponed = "adiado"

	// TimeUnknown is stored when a listing carries no kick-off time.
	TimeUnknown = "unknown"

	// PriceFree is the price label for youth (formação) fixtures.
	PriceFree = "Grátis"
)

// AgeBracket is the escalão of a fixture
type AgeBracket string

const (
	Seniores  AgeBracket = "Seniores"
	Sub23     AgeBracket = "Sub-23"
	Sub19     AgeBracket = "Sub-19"
	Sub17     AgeBracket = "Sub-17"
	Sub15     AgeBracket = "Sub-15"
	Sub13     AgeBracket = "Sub-13"
	Benjamins AgeBracket = "Benjamins"
	Traquinas AgeBracket = "Traquinas"
)

// IsFormation reports whether the bracket is a youth bracket whose games are free.
func (b AgeBracket) IsFormation() bool {
	return b != Seniores && b != Sub23 && b != ""
}

// RawFixture is a single fixture as extracted from page markup
type RawFixture struct {
	HomeTeam        string    `json:"home_team" validate:"required,max=80"`
	AwayTeam        string    `json:"away_team" validate:"required,max=80,nefield=HomeTeam"`
	Date            time.Time `json:"date" validate:"required"`
	Time            string    `json:"time" validate:"required"`
	CompetitionText string    `json:"competition_text"`
	SourceURL       string    `json:"source_url" validate:"required"`
	HasCountryFlag  bool      `json:"has_country_flag"`
}

// Name returns the "Home vs Away" label used as the event name
func (f RawFixture) Name() string {
	return fmt.Sprintf("%s vs %s", f.HomeTeam, f.AwayTeam)
}

// Key returns the dedup identity of the fixture
func (f RawFixture) Key() string {
	return MatchID(f.SourceURL)
}

// ClassifiedFixture is a RawFixture tagged by the relevance classifier
type ClassifiedFixture struct {
	RawFixture
	Category      string     `json:"category"`
	PriceEstimate string     `json:"price_estimate"`
	AgeBracket    AgeBracket `json:"age_bracket"`
}

// Venue is a resolved venue location
type Venue struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
	Approximate bool    `json:"approximate,omitempty"`
}

// Links holds the optional detail-page links of a fixture
type Links struct {
	HomeTeamURL  string
	AwayTeamURL  string
	StandingsURL string
}

// Football holds the columns only football events carry
type Football struct {
	Category     string     `json:"categoria" db:"categoria"`
	AgeBracket   AgeBracket `json:"escalao" db:"escalao"`
	HomeTeam     string     `json:"equipa_casa" db:"equipa_casa"`
	AwayTeam     string     `json:"equipa_fora" db:"equipa_fora"`
	MatchURL     string     `json:"url_jogo" db:"url_jogo"`
	HomeTeamURL  string     `json:"url_equipa_casa" db:"url_equipa_casa"`
	AwayTeamURL  string     `json:"url_equipa_fora" db:"url_equipa_fora"`
	StandingsURL string     `json:"url_classificacao" db:"url_classificacao"`
}

// Record is a persisted event row. Football is nil for culture events.
type Record struct {
	Name        string  `json:"nome"`
	Type        string  `json:"tipo"`
	Date        string  `json:"data"` // YYYY-MM-DD
	Time        string  `json:"hora"`
	VenueName   string  `json:"local"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Price       string  `json:"preco"`
	Description string  `json:"descricao"`
	MapsURL     string  `json:"url_maps"`
	Status      string  `json:"status"`
	StatusNote  string  `json:"nota_estado,omitempty"`
	*Football
}

// Key returns the (name, date) business key used for upserts
func (r Record) Key() string {
	return RecordKey(r.Name, r.Date)
}

// IsFootball reports whether the record is a football event
func (r Record) IsFootball() bool {
	return r.Type == TypeFootball
}

// RecordKey joins a name and a date into the business key
func RecordKey(name, date string) string {
	return name + "|" + date
}

// SplitRecordKey reverses RecordKey. Dates never contain "|", so the last
// separator is the one RecordKey added.
func SplitRecordKey(key string) (name, date string) {
	i := strings.LastIndex(key, "|")
	if i < 0 {
		return key, ""
	}
	return key[:i], key[i+1:]
}

// NewFootballRecord builds the persisted record for a geocoded fixture
func NewFootballRecord(fx ClassifiedFixture, venue Venue, links Links) Record {
	return Record{
		Name:        fx.Name(),
		Type:        TypeFootball,
		Date:        FormatDate(fx.Date),
		Time:        fx.Time,
		VenueName:   venue.DisplayName,
		Latitude:    venue.Latitude,
		Longitude:   venue.Longitude,
		Price:       fx.PriceEstimate,
		Description: fmt.Sprintf("Jogo extraído do ZeroZero. %s", fx.Category),
		MapsURL:     MapsURL(venue.Latitude, venue.Longitude),
		Status:      StatusApproved,
		Football: &Football{
			Category:     fx.Category,
			AgeBracket:   fx.AgeBracket,
			HomeTeam:     fx.HomeTeam,
			AwayTeam:     fx.AwayTeam,
			MatchURL:     fx.SourceURL,
			HomeTeamURL:  links.HomeTeamURL,
			AwayTeamURL:  links.AwayTeamURL,
			StandingsURL: links.StandingsURL,
		},
	}
}

// MapsURL returns the Google Maps deep link the dashboard expects
func MapsURL(lat, lon float64) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%s,%s",
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))
}

var (
	matchPathPattern  = regexp.MustCompile(`/jogo/(?:[^/?#]+/)*(\d+)(?:[/?#]|$)`)
	matchQueryPattern = regexp.MustCompile(`[?&]id(?:_jogo)?=(\d+)`)
)

// MatchID extracts the numeric match id from a fixture URL.
// Falls back to the trimmed URL itself when no id is present.
func MatchID(sourceURL string) string {
	u := strings.TrimSpace(sourceURL)
	if m := matchPathPattern.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	if m := matchQueryPattern.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return u
}
