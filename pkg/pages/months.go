package pages

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// The device locale renders date picker cells as "<day> <month> <year>" with
// Hebrew month names.
var hebrewMonths = [12]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

// MonthName returns the Hebrew name of month (1-12); out of range gives January.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return hebrewMonths[0]
	}
	return hebrewMonths[month-1]
}

// MonthNumber returns 1-12 for a Hebrew month name, or -1 when unknown.
func MonthNumber(name string) int {
	name = normalizeText(name)
	for i, m := range hebrewMonths {
		if m == name {
			return i + 1
		}
	}
	return -1
}

// normalizeText composes combining marks and drops the directional control
// characters Android inserts around right-to-left text.
func normalizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\u200e', r == '\u200f', r == '\u061c':
			return -1
		case r >= '\u202a' && r <= '\u202e':
			return -1
		case r >= '\u2066' && r <= '\u2069':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(norm.NFC.String(s))
}
