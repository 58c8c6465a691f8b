package gazetteer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minContainmentRatio is the share of the input name a key must cover to
// count as a substring match.
const minContainmentRatio = 0.55

// Fold lowercases s, strips diacritics and collapses whitespace, so that
// "Famalicão" and "FAMALICAO" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// TeamMatch reports whether table key k matches team name n: equal after
// folding, or k contained in n while covering more than 55% of it. "Braga"
// matches "SC Braga"; "US" does not match "Transportes Unidos".
func TeamMatch(k, n string) bool {
	k, n = Fold(k), Fold(n)
	if k == "" || n == "" {
		return false
	}
	if k == n {
		return true
	}
	if !strings.Contains(n, k) {
		return false
	}
	ratio := float64(utf8.RuneCountInString(k)) / float64(utf8.RuneCountInString(n))
	return ratio > minContainmentRatio
}

// ContainsWord reports whether word occurs in text delimited by non-alphanumeric
// runes. Both arguments are folded first.
func ContainsWord(text, word string) bool {
	text, word = Fold(text), Fold(word)
	if word == "" {
		return false
	}
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// teamSuffixPattern matches squad qualifiers at the end of a team name,
// e.g. "SC Braga Sub-19", "Gondomar SC B", "Leça FC (F)".
var teamSuffixPattern = regexp.MustCompile(
	`(?i)\s*(?:\([^)]*\)|\bsub[- ]?\d{2}\b|\bu\d{2}\b|\b(?:juniores|juvenis|iniciados|infantis|benjamins|traquinas|feminino|fem)\.?|\s[ABC])\s*$`)

// CleanTeamName strips squad qualifiers so lookups and geocoding queries see
// the club name only.
func CleanTeamName(name string) string {
	name = strings.TrimSpace(name)
	for {
		cleaned := strings.TrimSpace(teamSuffixPattern.ReplaceAllString(name, ""))
		if cleaned == name || cleaned == "" {
			return name
		}
		name = cleaned
	}
}
