package utils

import (
	"encoding/json"
	"io"

	"cartelera-bot/internal/scraper"
	"cartelera-bot/pkg/logger"
)

// Stats 汇总一个影院的排片数量
type Stats struct {
	Titles   int
	Films    int
	Days     int
	Sessions int
	Presale  int
}

// CountListings computes listing statistics. Films counts base titles.
func CountListings(listings []scraper.Listing) Stats {
	stats := Stats{
		Titles: len(listings),
		Films:  len(scraper.GroupByBaseTitle(listings)),
	}
	for _, l := range listings {
		if l.HasPresale {
			stats.Presale++
		}
		stats.Days += len(l.Showings)
		for _, d := range l.Showings {
			stats.Sessions += len(d.Times)
		}
	}
	return stats
}

// DebugPrint 以调试格式打印排片数据
func DebugPrint(cinemaID string, listings []scraper.Listing) {
	stats := CountListings(listings)

	logger.Debug("------- DEBUG INFO -------")
	logger.Debug("cinema: %s", cinemaID)
	logger.Debug("titles: %d (%d films)", stats.Titles, stats.Films)
	logger.Debug("presale: %d", stats.Presale)
	logger.Debug("day rows: %d", stats.Days)
	logger.Debug("sessions: %d", stats.Sessions)
	for _, l := range listings {
		logger.Debug("  %s: %d days", l.Title, len(l.Showings))
	}
	logger.Debug("------- DEBUG INFO -------")
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
