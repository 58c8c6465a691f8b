// Package gazetteer resolves team names to venue coordinates.
//
// Resolution runs an ordered list of strategies and stops at the first hit:
//
//  1. static table (TeamMatch containment rule)
//  2. geocode "Estádio {team}, Portugal"
//  3. geocode "{team} futebol, Portugal"
//  4. geocode the locality after "de/da/do/dos/das" in the team name
//  5. geocode "{team}, Portugal"
//  6. district centroid from the competition text (approximate)
//
// Geocoded venues are learned into the Cache and reused by step 1 for the rest
// of the run. Teams for which steps 2–5 all fail are remembered as misses.
package gazetteer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/geocode"
	"github.com/pfrederiksen/rota-da-festa/internal/logger"
)

// Geocoder is the text geocoding service used by strategies 2–5
type Geocoder interface {
	Geocode(ctx context.Context, query string) (geocode.Place, bool, error)
}

// Query is the input every strategy sees
type Query struct {
	Team        string
	Competition string
}

// Strategy is one step of the resolution chain
type Strategy struct {
	Name string
	// Remote strategies call the geocoder; their hits are learned into the cache.
	Remote bool
	Find   func(ctx context.Context, q Query) (event.Venue, bool)
}

// Resolver owns the cache and the strategy chain
type Resolver struct {
	cache      *Cache
	geocoder   Geocoder
	strategies []Strategy
}

// NewResolver creates a resolver. A nil cache is replaced by one seeded with
// StaticVenues; a nil geocoder disables strategies 2–5.
func NewResolver(geocoder Geocoder, cache *Cache) *Resolver {
	if cache == nil {
		cache = NewCache(StaticVenues())
	}
	r := &Resolver{cache: cache, geocoder: geocoder}
	r.strategies = []Strategy{
		{Name: "static", Find: r.findStatic},
		r.geocodeStrategy("stadium", func(team string) (string, bool) {
			return fmt.Sprintf("Estádio %s, Portugal", team), true
		}),
		r.geocodeStrategy("football", func(team string) (string, bool) {
			return fmt.Sprintf("%s futebol, Portugal", team), true
		}),
		r.geocodeStrategy("locality", LocalityQuery),
		r.geocodeStrategy("place", func(team string) (string, bool) {
			return fmt.Sprintf("%s, Portugal", team), true
		}),
		{Name: "district", Find: findDistrict},
	}
	return r
}

// Cache returns the resolver's cache
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Strategies returns the resolution chain in order
func (r *Resolver) Strategies() []Strategy {
	out := make([]Strategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// Resolve runs the full chain for one team
func (r *Resolver) Resolve(ctx context.Context, team, competition string) (event.Venue, bool) {
	if v, ok := r.resolvePrecise(ctx, team); ok {
		return v, true
	}
	return r.fallback(ctx, competition)
}

// ResolveFixture tries the precise strategies on the home team, then the away
// team, and only then the district centroid.
func (r *Resolver) ResolveFixture(ctx context.Context, home, away, competition string) (event.Venue, bool) {
	if v, ok := r.resolvePrecise(ctx, home); ok {
		return v, true
	}
	if v, ok := r.resolvePrecise(ctx, away); ok {
		return v, true
	}
	return r.fallback(ctx, competition)
}

func (r *Resolver) precise() []Strategy {
	return r.strategies[:len(r.strategies)-1]
}

func (r *Resolver) fallback(ctx context.Context, competition string) (event.Venue, bool) {
	last := r.strategies[len(r.strategies)-1]
	return last.Find(ctx, Query{Competition: competition})
}

func (r *Resolver) resolvePrecise(ctx context.Context, team string) (event.Venue, bool) {
	team = CleanTeamName(team)
	if team == "" {
		return event.Venue{}, false
	}

	q := Query{Team: team}
	skipRemote := r.cache.Missed(team)
	triedRemote := false

	for _, s := range r.precise() {
		if s.Remote && skipRemote {
			continue
		}
		if s.Remote {
			triedRemote = true
		}
		v, ok := s.Find(ctx, q)
		if !ok {
			continue
		}
		if s.Remote {
			r.cache.Learn(team, v)
		}
		logger.Debug("venue resolved", logger.Fields{
			"team":     team,
			"strategy": s.Name,
			"venue":    v.DisplayName,
		})
		return v, true
	}

	if triedRemote && r.geocoder != nil {
		r.cache.MarkMiss(team)
	}
	return event.Venue{}, false
}

func (r *Resolver) findStatic(_ context.Context, q Query) (event.Venue, bool) {
	return r.cache.Lookup(q.Team)
}

func (r *Resolver) geocodeStrategy(name string, build func(team string) (string, bool)) Strategy {
	return Strategy{
		Name:   name,
		Remote: true,
		Find: func(ctx context.Context, q Query) (event.Venue, bool) {
			if r.geocoder == nil {
				return event.Venue{}, false
			}
			text, ok := build(q.Team)
			if !ok {
				return event.Venue{}, false
			}
			place, found, err := r.geocoder.Geocode(ctx, text)
			if err != nil {
				logger.Debug("geocode failed", logger.Fields{
					"strategy": name,
					"query":    text,
					"error":    err.Error(),
				})
				return event.Venue{}, false
			}
			if !found {
				return event.Venue{}, false
			}
			display := place.ShortName()
			if display == "" {
				display = q.Team
			}
			return event.Venue{
				Latitude:    place.Latitude,
				Longitude:   place.Longitude,
				DisplayName: display,
			}, true
		},
	}
}

func findDistrict(_ context.Context, q Query) (event.Venue, bool) {
	return DistrictCentroid(q.Competition)
}

var localityPattern = regexp.MustCompile(`(?i)\b(?:de|da|do|dos|das)\s+(.+)$`)

// LocalityQuery builds the geocoding query for the place name following a
// preposition, e.g. "Caçadores das Taipas" → "Taipas, Portugal".
func LocalityQuery(team string) (string, bool) {
	m := localityPattern.FindStringSubmatch(team)
	if m == nil {
		return "", false
	}
	locality := strings.TrimSpace(m[1])
	if locality == "" {
		return "", false
	}
	return fmt.Sprintf("%s, Portugal", locality), true
}
