package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"cartelera-bot/internal/scraper"
	"cartelera-bot/pkg/logger"
)

type cinemaResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Emoji  string `json:"emoji,omitempty"`
	URL    string `json:"url"`
	Layout string `json:"layout"`
}

// cinemaResult is one entry of the all-cinemas response.
type cinemaResult struct {
	Listings []scraper.Listing `json:"listings"`
	Error    string            `json:"error,omitempty"`
}

type movieResponse struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Year        string  `json:"year"`
	Rating      float64 `json:"rating"`
	Overview    string  `json:"overview"`
	PosterURL   string  `json:"poster_url,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listCinemas(c *gin.Context) {
	cinemas := s.source.Cinemas()
	out := make([]cinemaResponse, 0, len(cinemas))
	for _, cinema := range cinemas {
		out = append(out, cinemaResponse{
			ID:     cinema.ID,
			Name:   cinema.Name,
			Emoji:  cinema.Emoji,
			URL:    cinema.URL,
			Layout: cinema.Layout,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) cinemaListings(c *gin.Context) {
	id := c.Param("id")
	listings, err := s.source.Listings(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, scraper.ErrUnknownCinema) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Listings for %s failed: %v", id, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if listings == nil {
		listings = []scraper.Listing{}
	}
	c.JSON(http.StatusOK, listings)
}

// 同时抓取的影院数上限，渲染型影院每次都会启动一个浏览器
const maxParallelScrapes = 3

// allListings scrapes every cinema concurrently. A failing cinema is reported in
// its entry and does not fail the request; a cancelled request stops the scrapes
// not yet started.
func (s *Server) allListings(c *gin.Context) {
	var (
		mu      sync.Mutex
		results = make(map[string]cinemaResult)
	)

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(maxParallelScrapes)
	for _, cinema := range s.source.Cinemas() {
		cinema := cinema
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			listings, err := s.source.Listings(ctx, cinema.ID)
			result := cinemaResult{Listings: listings}
			if err != nil {
				logger.Warn("Listings for %s failed: %v", cinema.ID, err)
				result.Error = err.Error()
			}
			if result.Listings == nil {
				result.Listings = []scraper.Listing{}
			}

			mu.Lock()
			results[cinema.ID] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("Listings request aborted: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (s *Server) searchMovie(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	if s.lookup == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metadata lookup disabled"})
		return
	}
	movie, ok := s.lookup.Search(c.Request.Context(), title)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no match for " + title})
		return
	}

	c.JSON(http.StatusOK, movieResponse{
		ID:          movie.ID,
		Title:       movie.Title,
		Year:        movie.Year(),
		Rating:      movie.VoteAverage,
		Overview:    movie.Overview,
		PosterURL:   s.lookup.PosterURL(movie.PosterPath),
		ReleaseDate: movie.ReleaseDate,
	})
}
