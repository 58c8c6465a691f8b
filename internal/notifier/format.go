package notifier

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
	"github.com/pfrederiksen/rota-da-festa/internal/reconcile"
)

// MaxMessageLength is the Telegram limit for one message
const MaxMessageLength = 4096

// FormatChange renders one postponement as a Telegram HTML message
func FormatChange(c reconcile.Change) string {
	rec := c.Previous
	var msg strings.Builder

	msg.WriteString("⚠️ <b>Jogo adiado</b>\n\n")
	msg.WriteString(fmt.Sprintf("⚽ <b>%s</b>\n", html.EscapeString(rec.Name)))

	if rec.Football != nil && rec.Category != "" {
		msg.WriteString(fmt.Sprintf("🏆 %s\n", html.EscapeString(rec.Category)))
	}

	when := rec.Date
	if rec.Time != "" && rec.Time != event.TimeUnknown {
		when += " às " + rec.Time
	}
	msg.WriteString(fmt.Sprintf("📅 %s\n", when))

	if rec.VenueName != "" {
		msg.WriteString(fmt.Sprintf("📍 %s\n", html.EscapeString(rec.VenueName)))
	}

	if c.NewDate != "" {
		msg.WriteString(fmt.Sprintf("🔁 Nova data: <b>%s</b>\n", c.NewDate))
	}

	if rec.Football != nil && rec.MatchURL != "" {
		msg.WriteString(fmt.Sprintf("\n🔗 <a href=\"%s\">Ficha do jogo</a>", html.EscapeString(rec.MatchURL)))
	}

	return truncate(msg.String(), MaxMessageLength)
}

// FormatSummary renders a one-message digest of many postponements
func FormatSummary(changes []reconcile.Change) string {
	if len(changes) == 0 {
		return ""
	}
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("⚠️ <b>%d jogo(s) adiado(s)</b>\n\n", len(changes)))
	for _, c := range changes {
		line := fmt.Sprintf("• %s %s", c.Previous.Date, html.EscapeString(c.Previous.Name))
		if c.NewDate != "" {
			line += fmt.Sprintf(" → %s", c.NewDate)
		}
		msg.WriteString(line + "\n")
	}
	return truncate(strings.TrimRight(msg.String(), "\n"), MaxMessageLength)
}

// truncate cuts s to at most max runes, ending in an ellipsis when cut
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
