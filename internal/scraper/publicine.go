package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cartelera-bot/pkg/logger"
)

// Markup of the publicine cinema page once its scripts have run (Odeón).
const (
	sessionBlockSel = "div.sessions"
	headingSel      = "h2"
	detailsBoxSel   = "div.box"
	dayBlockSel     = "div.box_dia"
	dayLabelSel     = "span.dia"
	showtimesSel    = "div.box_projeccions"
	directLinkSel   = "a[data-href]"
	hourLabelSel    = "div.horari_pelicula"
)

// RenderedListings renders pageURL in a headless browser and extracts its listings.
// It never fails: any error is logged and an empty result returned.
func (s *Scraper) RenderedListings(ctx context.Context, pageURL string) (listings []Listing) {
	listings = []Listing{}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Rendered page extraction panicked for %s: %v", pageURL, r)
			listings = []Listing{}
		}
	}()

	base, err := url.Parse(pageURL)
	if err != nil {
		logger.Error("Invalid page URL %q: %v", pageURL, err)
		return listings
	}

	if s.renderer == nil {
		logger.Error("No renderer configured for %s", pageURL)
		return listings
	}

	logger.Info("Rendering %s", pageURL)
	html, err := s.renderer.Render(ctx, pageURL)
	if err != nil {
		logger.Error("Rendering %s failed: %v", pageURL, err)
		return listings
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Error("Failed to parse rendered HTML from %s: %v", pageURL, err)
		return listings
	}

	listings = ExtractRendered(doc, base)
	logger.Info("Found %d listings at %s", len(listings), pageURL)
	return listings
}

// ExtractRendered returns one Listing per session block that has a heading, a
// details box and at least one day with showtimes. Purchase links are resolved
// against base.
func ExtractRendered(doc *goquery.Document, base *url.URL) []Listing {
	listings := []Listing{}

	doc.Find(sessionBlockSel).Each(func(_ int, block *goquery.Selection) {
		heading := block.Find(headingSel).First()
		if heading.Length() == 0 {
			return
		}
		title := strings.TrimSpace(heading.Text())
		if title == "" {
			return
		}

		box := block.Find(detailsBoxSel).First()
		if box.Length() == 0 {
			return
		}

		var showings []DayShowtimes
		box.Find(dayBlockSel).Each(func(_ int, day *goquery.Selection) {
			if ds, ok := renderedDay(day, base); ok {
				showings = append(showings, ds)
			}
		})

		if len(showings) == 0 {
			return
		}
		listings = append(listings, Listing{Title: title, Showings: showings})
	})

	return listings
}

func renderedDay(day *goquery.Selection, base *url.URL) (DayShowtimes, bool) {
	label := day.Find(dayLabelSel).First()
	if label.Length() == 0 {
		return DayShowtimes{}, false
	}

	projections := day.NextAllFiltered(showtimesSel).First()
	if projections.Length() == 0 {
		return DayShowtimes{}, false
	}

	var times []TimeSlot
	projections.Find(directLinkSel).Each(func(_ int, link *goquery.Selection) {
		hour := link.Find(hourLabelSel).First()
		if hour.Length() == 0 {
			return
		}
		href, _ := link.Attr("data-href")
		times = append(times, TimeSlot{
			Time: NormalizeTime(hour.Text()),
			URL:  resolveURL(base, href),
		})
	})

	if len(times) == 0 {
		return DayShowtimes{}, false
	}
	return DayShowtimes{Day: CleanDayLabel(label.Text()), Times: times}, true
}
