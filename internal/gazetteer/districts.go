package gazetteer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
)

// District is a football association area with an approximate centre
type District struct {
	Name      string
	Aliases   []string // extra names that identify the district, folded
	Latitude  float64
	Longitude float64
}

var districts = []District{
	{Name: "Viana do Castelo", Latitude: 41.87, Longitude: -8.50},
	{Name: "Braga", Latitude: 41.55, Longitude: -8.35},
	{Name: "Vila Real", Latitude: 41.55, Longitude: -7.65},
	{Name: "Bragança", Latitude: 41.55, Longitude: -6.85},
	{Name: "Porto", Latitude: 41.20, Longitude: -8.45},
	{Name: "Aveiro", Latitude: 40.75, Longitude: -8.50},
	{Name: "Viseu", Latitude: 40.80, Longitude: -7.85},
	{Name: "Guarda", Latitude: 40.65, Longitude: -7.20},
	{Name: "Coimbra", Latitude: 40.25, Longitude: -8.25},
	{Name: "Leiria", Latitude: 39.75, Longitude: -8.80},
	{Name: "Castelo Branco", Latitude: 39.90, Longitude: -7.45},
	{Name: "Santarém", Latitude: 39.30, Longitude: -8.45},
	{Name: "Portalegre", Latitude: 39.20, Longitude: -7.60},
	{Name: "Lisboa", Latitude: 38.95, Longitude: -9.15},
	{Name: "Setúbal", Latitude: 38.30, Longitude: -8.70},
	{Name: "Évora", Latitude: 38.55, Longitude: -7.90},
	{Name: "Beja", Latitude: 37.85, Longitude: -7.90},
	{Name: "Algarve", Aliases: []string{"faro"}, Latitude: 37.20, Longitude: -8.10},
	{Name: "Madeira", Aliases: []string{"funchal"}, Latitude: 32.75, Longitude: -16.95},
	{Name: "Ponta Delgada", Latitude: 37.78, Longitude: -25.50},
	{Name: "Angra do Heroísmo", Latitude: 38.70, Longitude: -27.20},
	{Name: "Horta", Latitude: 38.55, Longitude: -28.65},
}

type districtAlias struct {
	name     string // folded
	district District
}

// districtAliases holds every district name and alias, longest first, so
// "viana do castelo" wins over shorter names it contains.
var districtAliases = buildDistrictAliases()

func buildDistrictAliases() []districtAlias {
	var out []districtAlias
	for _, d := range districts {
		out = append(out, districtAlias{name: Fold(d.Name), district: d})
		for _, a := range d.Aliases {
			out = append(out, districtAlias{name: Fold(a), district: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].name) > utf8.RuneCountInString(out[j].name)
	})
	return out
}

// associationPattern finds "AF X", "A.F. X" and "Associação de Futebol de X"
// in folded text and captures what follows.
var associationPattern = regexp.MustCompile(`(?:\ba\.?\s?f\.?|\bassociacao de futebol(?: d[aeo]s?)?)\s+(.+)$`)

// DistrictFor extracts the association district named in competition text.
// An explicit association marker is preferred; otherwise any whole-word
// district name is accepted.
func DistrictFor(competition string) (District, bool) {
	folded := Fold(competition)
	if folded == "" {
		return District{}, false
	}

	if m := associationPattern.FindStringSubmatch(folded); m != nil {
		for _, a := range districtAliases {
			if strings.HasPrefix(m[1], a.name) && ContainsWord(m[1], a.name) {
				return a.district, true
			}
		}
	}

	for _, a := range districtAliases {
		if ContainsWord(folded, a.name) {
			return a.district, true
		}
	}
	return District{}, false
}

// DistrictCentroid returns the approximate venue for the district named in
// competition text.
func DistrictCentroid(competition string) (event.Venue, bool) {
	d, ok := DistrictFor(competition)
	if !ok {
		return event.Venue{}, false
	}
	return event.Venue{
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		DisplayName: fmt.Sprintf("%s (approximate)", d.Name),
		Approximate: true,
	}, true
}
