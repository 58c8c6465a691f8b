package main

import (
	"fmt"
	"os"

	"github.com/pfrederiksen/rota-da-festa/internal/calendar"
	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/reconcile"
)

func main() {
	lat, lon := 40.6443, -8.6455
	played := event.Record{
		Name:        "SC Beira-Mar vs GD Estarreja",
		Type:        event.TypeFootball,
		Date:        "2026-03-15",
		Time:        "15:00",
		VenueName:   "Estádio Municipal de Aveiro",
		Latitude:    lat,
		Longitude:   lon,
		Price:       "5€",
		Description: "Jogo extraído do ZeroZero. Futebol Distrital",
		MapsURL:     event.MapsURL(lat, lon),
		Status:      event.StatusApproved,
		Football: &event.Football{
			Category:   "Futebol Distrital",
			AgeBracket: event.Seniores,
			HomeTeam:   "SC Beira-Mar",
			AwayTeam:   "GD Estarreja",
			MatchURL:   "https://www.zerozero.pt/jogo/2026-03-15-beira-mar-estarreja/1",
		},
	}
	postponed := played
	postponed.Name = "Anadia FC vs RD Águeda"
	postponed.Time = event.TimeUnknown
	postponed.Status = event.StatusPostponed
	postponed.StatusNote = reconcile.Note("2026-03-22")

	icsContent := calendar.GenerateFeed([]event.Record{played, postponed}, "Rota da Festa - Teste")

	// Write to file (owner read/write only)
	filename := "test-rota-feed.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated calendar file: %s\n\n", filename)
	fmt.Println("Import it into a calendar app to check the timed event, the all-day")
	fmt.Println("postponed event and the map links.")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
