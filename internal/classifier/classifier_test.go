package classifier

import (
	"testing"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/gazetteer"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		competition string
		label       string
		category    string
		price       string
		bracket     event.AgeBracket
	}{
		{"top tier", "Liga Portugal Betclic", "SC Braga vs FC Porto", "Liga Portugal", "15€+", event.Seniores},
		{"second tier", "Liga Portugal 2", "Feirense vs Oliveirense", "Liga 2", "10€", event.Seniores},
		{"third tier", "Liga 3 - Série A", "Varzim vs Trofense", "Liga 3", "8€", event.Seniores},
		{"european", "UEFA Conference League", "Vitória SC vs Celje", "Competições Europeias", "30€+", event.Seniores},
		{"national cup", "Taça de Portugal Placard", "Vizela vs Leça FC", "Taça de Portugal", "10€", event.Seniores},
		{"league cup", "Taça da Liga", "Arouca vs Rio Ave", "Taça da Liga", "12€", event.Seniores},
		{"revelação is sub-23 but paid", "Liga Revelação", "Braga vs Porto", "Liga Revelação", "3€", event.Sub23},
		{"national championship", "Campeonato de Portugal Série B", "Gondomar SC vs Maia Lidador", "Campeonato de Portugal", "5€", event.Seniores},
		{"honour division", "Divisão de Honra AF Braga", "Merelinense FC vs GD Prado", "Divisão de Honra", "4€", event.Seniores},
		{"pro-nacional", "Pro-Nacional AF Braga", "Vieira SC vs AD Fafe", "Divisão de Honra", "4€", event.Seniores},
		{"district default", "AF Aveiro 1ª Divisão", "Beira-Mar vs Estarreja", CategoryDistrict, PriceDistrict, event.Seniores},
		{"juniores", "Campeonato Nacional Juniores A", "Braga vs Porto", "Formação - Sub-19", event.PriceFree, event.Sub19},
		{"youth in label", "AF Porto", "Leça FC Sub-15 vs Gondomar SC Sub-15", "Formação - Sub-15", event.PriceFree, event.Sub15},
		{"youngest wins", "Juniores B (Sub-17)", "A vs B", "Formação - Sub-17", event.PriceFree, event.Sub17},
		{"benjamins", "AF Braga Benjamins", "A vs B", "Formação - Benjamins", event.PriceFree, event.Benjamins},
		{"traquinas", "Encontro de Traquinas", "A vs B", "Formação - Traquinas", event.PriceFree, event.Traquinas},
		{"accents ignored", "TACA DE PORTUGAL", "A vs B", "Taça de Portugal", "10€", event.Seniores},
		{"no partial words", "Liga 30 Amadores", "A vs B", CategoryDistrict, PriceDistrict, event.Seniores},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, price, bracket := Classify(tt.competition, tt.label)
			if category != tt.category {
				t.Errorf("category = %q, want %q", category, tt.category)
			}
			if price != tt.price {
				t.Errorf("price = %q, want %q", price, tt.price)
			}
			if bracket != tt.bracket {
				t.Errorf("bracket = %q, want %q", bracket, tt.bracket)
			}
		})
	}
}

func TestClassify_FormationAlwaysFree(t *testing.T) {
	tiers := []string{"Liga Portugal", "Liga 3", "Taça de Portugal", "UEFA Youth League", "Campeonato de Portugal"}
	youth := []string{"Sub-19", "Juvenis", "Iniciados", "Infantis", "Benjamins", "Traquinas"}

	for _, tier := range tiers {
		for _, y := range youth {
			category, price, bracket := Classify(tier+" "+y, "A vs B")
			if !bracket.IsFormation() {
				t.Errorf("Classify(%q) bracket = %q, want a formation bracket", tier+" "+y, bracket)
				continue
			}
			if price != event.PriceFree {
				t.Errorf("Classify(%q) price = %q, want %q", tier+" "+y, price, event.PriceFree)
			}
			if category != "Formação - "+string(bracket) {
				t.Errorf("Classify(%q) category = %q", tier+" "+y, category)
			}
		}
	}
}

func TestClassify_Pure(t *testing.T) {
	inputs := []string{"Liga Portugal Betclic", "AF Braga Juniores", "Premier League", ""}
	for _, in := range inputs {
		c1, p1, b1 := Classify(in, "X vs Y")
		for i := 0; i < 5; i++ {
			c2, p2, b2 := Classify(in, "X vs Y")
			if c1 != c2 || p1 != p2 || b1 != b2 {
				t.Fatalf("Classify(%q) not stable: (%s,%s,%s) vs (%s,%s,%s)", in, c1, p1, b1, c2, p2, b2)
			}
		}
	}
}

func TestIsInScope(t *testing.T) {
	c := New(gazetteer.NewCache(gazetteer.StaticVenues()).Keys())

	tests := []struct {
		name        string
		home, away  string
		competition string
		hasFlag     bool
		want        bool
	}{
		{"flag", "Celje", "Lugano", "Conference League", true, true},
		{"association keyword", "Unidos", "Estrelas", "AF Viseu 2ª Divisão", false, true},
		{"national competition", "A", "B", "Campeonato de Portugal", false, true},
		{"known home team", "SC Braga", "Celtic", "Friendly", false, true},
		{"known away team sub-19", "Celtic", "Vizela Sub-19", "Youth Cup", false, true},
		{"foreign", "Arsenal", "Chelsea", "Premier League", false, false},
		{"AF inside a word", "Al Ahly", "Zamalek", "AFC Champions League", false, false},
		{"short key must not match", "Transportes Unidos", "Real Madrid", "La Liga", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsInScope(tt.home, tt.away, tt.competition, tt.hasFlag); got != tt.want {
				t.Errorf("IsInScope(%q, %q, %q, %v) = %v, want %v", tt.home, tt.away, tt.competition, tt.hasFlag, got, tt.want)
			}
		})
	}
}

func TestClassifyFixture(t *testing.T) {
	c := New(nil)
	fx := event.RawFixture{HomeTeam: "Leça FC", AwayTeam: "Gondomar SC", CompetitionText: "AF Porto Juvenis"}

	got := c.ClassifyFixture(fx)
	if got.AgeBracket != event.Sub17 || got.PriceEstimate != event.PriceFree {
		t.Errorf("ClassifyFixture() = %+v", got)
	}
	if got.HomeTeam != "Leça FC" {
		t.Errorf("raw fields not carried over: %+v", got.RawFixture)
	}
}
