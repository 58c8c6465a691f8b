package gazetteer

import "github.com/pfrederiksen/rota-da-festa/internal/event"

// staticVenues contains the home grounds of common northern and Aveiro clubs.
// Keys are matched against team names with TeamMatch.
var staticVenues = map[string]event.Venue{
	// Professional clubs
	"Braga":       {Latitude: 41.5617, Longitude: -8.4309, DisplayName: "Estádio Municipal de Braga"},
	"Vitória SC":  {Latitude: 41.4468, Longitude: -8.2974, DisplayName: "Estádio D. Afonso Henriques"},
	"Porto":       {Latitude: 41.1617, Longitude: -8.5839, DisplayName: "Estádio do Dragão"},
	"Beira-Mar":   {Latitude: 40.6416, Longitude: -8.6064, DisplayName: "Estádio Municipal de Aveiro"},
	"Feirense":    {Latitude: 40.9255, Longitude: -8.5414, DisplayName: "Estádio Marcolino de Castro"},
	"Famalicão":   {Latitude: 41.4111, Longitude: -8.5273, DisplayName: "Estádio Municipal de Famalicão"},
	"Gil Vicente": {Latitude: 41.5372, Longitude: -8.6339, DisplayName: "Estádio Cidade de Barcelos"},
	"Rio Ave":     {Latitude: 41.3638, Longitude: -8.7401, DisplayName: "Estádio dos Arcos"},
	"Leixões":     {Latitude: 41.1833, Longitude: -8.7000, DisplayName: "Estádio do Mar"},
	"Varzim":      {Latitude: 41.3833, Longitude: -8.7667, DisplayName: "Estádio do Varzim SC"},
	"Trofense":    {Latitude: 41.3333, Longitude: -8.5500, DisplayName: "Estádio do CD Trofense"},
	"Moreirense":  {Latitude: 41.3831, Longitude: -8.3364, DisplayName: "Parque Comendador Joaquim de Almeida Freitas"},
	"Vizela":      {Latitude: 41.3789, Longitude: -8.3075, DisplayName: "Estádio do FC Vizela"},
	"Arouca":      {Latitude: 40.9333, Longitude: -8.2439, DisplayName: "Estádio Municipal de Arouca"},
	"Oliveirense": {Latitude: 40.8386, Longitude: -8.4776, DisplayName: "Estádio Carlos Osório"},

	// AF Braga
	"Merelinense FC":       {Latitude: 41.5768, Longitude: -8.4482, DisplayName: "Estádio João Soares Vieira"},
	"Maria da Fonte":       {Latitude: 41.6032, Longitude: -8.2589, DisplayName: "Estádio Moinhos Novos"},
	"Dumiense FC":          {Latitude: 41.5621, Longitude: -8.4328, DisplayName: "Campo Celestino Lobo"},
	"Vilaverdense":         {Latitude: 41.6489, Longitude: -8.4356, DisplayName: "Campo Cruz do Reguengo"},
	"GD Joane":             {Latitude: 41.4333, Longitude: -8.4167, DisplayName: "Estádio de Barreiros"},
	"Brito SC":             {Latitude: 41.4886, Longitude: -8.3582, DisplayName: "Parque de Jogos do Brito SC"},
	"Santa Maria FC":       {Latitude: 41.5333, Longitude: -8.5333, DisplayName: "Estádio da Devesa"},
	"Vieira SC":            {Latitude: 41.6333, Longitude: -8.1333, DisplayName: "Estádio Municipal de Vieira"},
	"AD Ninense":           {Latitude: 41.4667, Longitude: -8.5500, DisplayName: "Complexo Desportivo de Nine"},
	"GD Prado":             {Latitude: 41.6000, Longitude: -8.4667, DisplayName: "Complexo Desportivo do Faial"},
	"Pevidém SC":           {Latitude: 41.4167, Longitude: -8.3333, DisplayName: "Parque de Jogos Albano Martins Coelho Lima"},
	"Caçadores das Taipas": {Latitude: 41.4833, Longitude: -8.3500, DisplayName: "Estádio do Montinho"},
	"Berço SC":             {Latitude: 41.4667, Longitude: -8.3333, DisplayName: "Complexo Desportivo de Ponte"},
	"CD Celeirós":          {Latitude: 41.5167, Longitude: -8.4500, DisplayName: "Parque Desportivo de Celeirós"},
	"Forjães SC":           {Latitude: 41.6167, Longitude: -8.7333, DisplayName: "Estádio Horácio Queirós"},
	"AD Fafe":              {Latitude: 41.4500, Longitude: -8.1667, DisplayName: "Parque Municipal de Desportos de Fafe"},
	"Desportivo de Ronfe":  {Latitude: 41.4333, Longitude: -8.3667, DisplayName: "Estádio do Desportivo de Ronfe"},
	"Sandinenses":          {Latitude: 41.4667, Longitude: -8.3833, DisplayName: "Complexo Desportivo D. Maria Teresa"},

	// AF Aveiro
	"ADC Lobão":    {Latitude: 40.9634, Longitude: -8.4876, DisplayName: "Parque de Jogos de Lobão"},
	"Fiães SC":     {Latitude: 40.9921, Longitude: -8.5235, DisplayName: "Estádio do Bolhão"},
	"SC Espinho":   {Latitude: 41.0068, Longitude: -8.6291, DisplayName: "Estádio Comendador Manuel Violas"},
	"SC Beira-Mar": {Latitude: 40.6416, Longitude: -8.6064, DisplayName: "Estádio Municipal de Aveiro"},
	"RD Águeda":    {Latitude: 40.5744, Longitude: -8.4485, DisplayName: "Estádio Municipal de Águeda"},

	// AF Porto
	"SC Rio Tinto": {Latitude: 41.1764, Longitude: -8.5583, DisplayName: "Estádio Cidade de Rio Tinto"},
	"Gondomar SC":  {Latitude: 41.1444, Longitude: -8.5333, DisplayName: "Estádio de São Miguel"},
	"Maia Lidador": {Latitude: 41.2333, Longitude: -8.6167, DisplayName: "Estádio Prof. Dr. José Vieira de Carvalho"},
	"Leça FC":      {Latitude: 41.1833, Longitude: -8.7000, DisplayName: "Estádio do Leça FC"},
}

// StaticVenues returns a copy of the built-in team → venue table
func StaticVenues() map[string]event.Venue {
	out := make(map[string]event.Venue, len(staticVenues))
	for k, v := range staticVenues {
		out[k] = v
	}
	return out
}
