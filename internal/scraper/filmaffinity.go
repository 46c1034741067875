package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cartelera-bot/pkg/logger"
)

// Markup used by the filmaffinity theater-showtimes pages (Cinesa and Yelmo).
const (
	titleMarker    = "span.fs-5"
	presaleMarker  = ".pre-sale-alert"
	presalePhrase  = "Entradas en preventa"
	dayRowSelector = "[data-sess-date]"
	weekdaySel     = "span.wday"
	dayMonthSel    = "span.mday"
	timeLinkSel    = "a.btn"
)

// SharedLayoutListings fetches a filmaffinity showtimes page and extracts its
// listings. Fetch errors are returned as is.
func (s *Scraper) SharedLayoutListings(ctx context.Context, pageURL string) ([]Listing, error) {
	logger.Debug("Fetching shared layout page %s", pageURL)

	doc, err := fetchDocument(ctx, s.httpClient, pageURL)
	if err != nil {
		return nil, err
	}

	listings := ExtractSharedLayout(doc)
	logger.Info("Found %d listings at %s", len(listings), pageURL)
	return listings, nil
}

// ExtractSharedLayout returns one Listing per title marker, in document order.
// A listing owns the siblings that follow its title's parent up to the next sibling
// holding another title marker.
func ExtractSharedLayout(doc *goquery.Document) []Listing {
	listings := []Listing{}

	doc.Find(titleMarker).Each(func(_ int, marker *goquery.Selection) {
		title := strings.TrimSpace(marker.Text())
		if title == "" {
			return
		}

		listing := Listing{Title: title, Showings: []DayShowtimes{}}
		for _, node := range followingGroup(marker) {
			if isPresale(node) {
				listing.HasPresale = true
			}
			listing.Showings = append(listing.Showings, dayRows(node)...)
		}

		listings = append(listings, listing)
	})

	return listings
}

// followingGroup is the run of siblings after the marker's parent that belongs to
// this title.
func followingGroup(marker *goquery.Selection) []*goquery.Selection {
	return takeUntil(marker.Parent().NextAll(), func(sibling *goquery.Selection) bool {
		return sibling.Find(titleMarker).Length() > 0
	})
}

func isPresale(node *goquery.Selection) bool {
	return node.Find(presaleMarker).Length() > 0 || strings.Contains(node.Text(), presalePhrase)
}

// dayRows extracts every day row under node. Rows without time links are dropped;
// rows for the same weekday are kept apart.
func dayRows(node *goquery.Selection) []DayShowtimes {
	var days []DayShowtimes

	node.Find(dayRowSelector).Each(func(_ int, row *goquery.Selection) {
		var times []TimeSlot
		row.Find(timeLinkSel).Each(func(_ int, link *goquery.Selection) {
			href, ok := link.Attr("href")
			if !ok {
				return
			}
			times = append(times, TimeSlot{
				Time: strings.TrimSpace(link.Text()),
				URL:  href,
			})
		})
		if len(times) == 0 {
			return
		}

		days = append(days, DayShowtimes{
			Day:   sharedDayLabel(row),
			Times: times,
		})
	})

	return days
}

func sharedDayLabel(row *goquery.Selection) string {
	weekday := joinedText(row.Find(weekdaySel).First())

	var dayMonth string
	if mday := row.Find(dayMonthSel).First(); mday.Length() > 0 {
		dayMonth = strings.TrimSpace(mday.Text())
	}

	return NormalizeDay(weekday, dayMonth)
}
