// Package calendar renders stored events as an iCalendar feed.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/rota-da-festa/internal/event"
)

const (
	prodID   = "-//Rota da Festa//rota-scraper//PT"
	timezone = "Europe/Lisbon"
	// DefaultDuration is the block booked for a fixture with a kick-off time
	DefaultDuration = 2 * time.Hour
)

// uidNamespace seeds the deterministic event UIDs
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://rota-da-festa.pt/eventos"))

// lisbonTimezone is the VTIMEZONE block for Europe/Lisbon (WET/WEST)
const lisbonTimezone = "BEGIN:VTIMEZONE\r\n" +
	"TZID:Europe/Lisbon\r\n" +
	"BEGIN:STANDARD\r\n" +
	"DTSTART:19701025T020000\r\n" +
	"RRULE:FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU\r\n" +
	"TZOFFSETFROM:+0100\r\n" +
	"TZOFFSETTO:+0000\r\n" +
	"TZNAME:WET\r\n" +
	"END:STANDARD\r\n" +
	"BEGIN:DAYLIGHT\r\n" +
	"DTSTART:19700329T010000\r\n" +
	"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU\r\n" +
	"TZOFFSETFROM:+0000\r\n" +
	"TZOFFSETTO:+0100\r\n" +
	"TZNAME:WEST\r\n" +
	"END:DAYLIGHT\r\n" +
	"END:VTIMEZONE\r\n"

// EventUID returns a stable UID for a record's (name, date) key
func EventUID(rec event.Record) string {
	return uuid.NewSHA1(uidNamespace, []byte(rec.Key())).String() + "@rota-da-festa"
}

// GenerateICS generates a calendar holding a single record
func GenerateICS(rec event.Record) string {
	return GenerateFeed([]event.Record{rec}, "")
}

// GenerateFeed generates one calendar with a VEVENT per record. Records with
// an unparseable date are skipped.
func GenerateFeed(recs []event.Record, name string) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(name))
	}
	ics.WriteString("X-WR-TIMEZONE:" + timezone + "\r\n")
	ics.WriteString(lisbonTimezone)

	stamp := formatICSTime(time.Now())
	for _, rec := range recs {
		writeEvent(&ics, rec, stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, rec event.Record, stamp string) {
	day := event.ParseRecordDate(rec.Date)
	if day.IsZero() {
		return
	}

	ics.WriteString("BEGIN:VEVENT\r\n")
	writeLine(ics, "UID:"+EventUID(rec))
	ics.WriteString("DTSTAMP:" + stamp + "\r\n")

	if start, ok := kickoff(day, rec.Time); ok {
		end := start.Add(DefaultDuration)
		ics.WriteString(fmt.Sprintf("DTSTART;TZID=%s:%s\r\n", timezone, formatLocalTime(start)))
		ics.WriteString(fmt.Sprintf("DTEND;TZID=%s:%s\r\n", timezone, formatLocalTime(end)))
	} else {
		ics.WriteString("DTSTART;VALUE=DATE:" + day.Format("20060102") + "\r\n")
		ics.WriteString("DTEND;VALUE=DATE:" + day.AddDate(0, 0, 1).Format("20060102") + "\r\n")
	}

	summary := rec.Name
	if rec.Status == event.StatusPostponed {
		summary = "[ADIADO] " + summary
	}
	writeLine(ics, "SUMMARY:"+escapeICS(summary))

	var desc []string
	if rec.Description != "" {
		desc = append(desc, rec.Description)
	}
	if rec.Price != "" {
		desc = append(desc, "Preço: "+rec.Price)
	}
	if rec.StatusNote != "" {
		desc = append(desc, rec.StatusNote)
	}
	if rec.MapsURL != "" {
		desc = append(desc, "Mapa: "+rec.MapsURL)
	}
	if len(desc) > 0 {
		writeLine(ics, "DESCRIPTION:"+escapeICS(strings.Join(desc, "\n")))
	}

	if rec.VenueName != "" {
		writeLine(ics, "LOCATION:"+escapeICS(rec.VenueName))
	}
	if rec.Latitude != 0 || rec.Longitude != 0 {
		ics.WriteString(fmt.Sprintf("GEO:%s;%s\r\n",
			strconv.FormatFloat(rec.Latitude, 'f', 6, 64),
			strconv.FormatFloat(rec.Longitude, 'f', 6, 64)))
	}
	if rec.Football != nil && rec.Category != "" {
		writeLine(ics, "CATEGORIES:"+escapeICS(rec.Type)+","+escapeICS(rec.Category))
	} else if rec.Type != "" {
		writeLine(ics, "CATEGORIES:"+escapeICS(rec.Type))
	}
	if url := eventURL(rec); url != "" {
		writeLine(ics, "URL:"+url)
	}

	if rec.Status == event.StatusPostponed {
		ics.WriteString("STATUS:CANCELLED\r\n")
	} else {
		ics.WriteString("STATUS:CONFIRMED\r\n")
	}
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// kickoff combines a civil date with an HH:MM clock in Lisbon time. An
// unknown kick-off yields false.
func kickoff(day time.Time, clock string) (time.Time, bool) {
	hhmm, ok := event.NormalizeClock(clock)
	if !ok || hhmm == event.TimeUnknown {
		return time.Time{}, false
	}
	h, _ := strconv.Atoi(hhmm[:2])
	m, _ := strconv.Atoi(hhmm[3:])
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, event.Lisbon), true
}

func eventURL(rec event.Record) string {
	if rec.Football != nil && rec.MatchURL != "" {
		return rec.MatchURL
	}
	return rec.MapsURL
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatLocalTime formats a wall-clock time for use with TZID
func formatLocalTime(t time.Time) string {
	return t.In(event.Lisbon).Format("20060102T150405")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// writeLine writes a content line folded at 75 octets without splitting runes
func writeLine(ics *strings.Builder, line string) {
	limit := 75
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut] + "\r\n ")
		line = line[cut:]
		// the leading space of a continuation line counts toward its length
		limit = 74
	}
	ics.WriteString(line + "\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
