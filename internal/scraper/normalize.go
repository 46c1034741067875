package scraper

import (
	"regexp"
	"strings"
)

var (
	// "Hoy, Viernes" / "mañana sábado"
	relativeDayPrefix = regexp.MustCompile(`(?i)^(hoy|mañana)\s*,?\s*`)

	// format/audio/room tags appended to the hour on publicine
	trailingTimeTag = regexp.MustCompile(`(ATMOS|DIGITAL|DOLBY|VIP|3D|4D)$`)
)

// NormalizeDay builds the day label from the weekday text and the optional
// "11 de julio" part. A leading "Hoy"/"Mañana" is always dropped, unless it is
// the only text of the label.
func NormalizeDay(weekday, dayMonth string) string {
	weekday = strings.TrimSpace(weekday)
	dayMonth = strings.TrimSpace(dayMonth)
	if stripped := strings.TrimSpace(relativeDayPrefix.ReplaceAllString(weekday, "")); stripped != "" || dayMonth != "" {
		weekday = stripped
	}

	if dayMonth == "" {
		return weekday
	}
	if weekday == "" {
		return dayMonth
	}
	return weekday + " " + dayMonth
}

// NormalizeTime keeps the first line of raw and drops one trailing format tag.
func NormalizeTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[:i]
	}
	raw = trailingTimeTag.ReplaceAllString(strings.TrimSpace(raw), "")
	return strings.TrimSpace(raw)
}

// CleanDayLabel turns line breaks into spaces.
func CleanDayLabel(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "\n", " "))
}
