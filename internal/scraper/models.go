package scraper

import "strings"

// Listing is one film title as it appears on a listing page. Versions of the same
// film (dubbed, original language, 3D...) are separate listings.
type Listing struct {
	Title      string         `json:"title"`
	HasPresale bool           `json:"has_presale"`
	Showings   []DayShowtimes `json:"showings"`
}

// DayShowtimes holds the showtimes of one day row, in document order.
type DayShowtimes struct {
	Day   string     `json:"day"`
	Times []TimeSlot `json:"times"`
}

// TimeSlot is a bookable session.
type TimeSlot struct {
	Time string `json:"time"`
	URL  string `json:"url"`
}

// BaseTitle returns the title without its parenthesized version qualifier,
// e.g. "Superman (VOSE)" -> "Superman".
func (l Listing) BaseTitle() string {
	return BaseTitle(l.Title)
}

// BaseTitle strips everything from the first "(" on.
func BaseTitle(title string) string {
	if i := strings.Index(title, "("); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

// MovieGroup collects every version of a film under its base title.
type MovieGroup struct {
	BaseTitle string
	Versions  []Listing
}

// HasPresale reports whether any version is on presale.
func (g MovieGroup) HasPresale() bool {
	for _, v := range g.Versions {
		if v.HasPresale {
			return true
		}
	}
	return false
}

// GroupByBaseTitle groups listings by base title, keeping first-seen order for both
// groups and versions.
func GroupByBaseTitle(listings []Listing) []MovieGroup {
	var groups []MovieGroup
	index := make(map[string]int)

	for _, l := range listings {
		base := l.BaseTitle()
		i, ok := index[base]
		if !ok {
			i = len(groups)
			index[base] = i
			groups = append(groups, MovieGroup{BaseTitle: base})
		}
		groups[i].Versions = append(groups[i].Versions, l)
	}
	return groups
}
