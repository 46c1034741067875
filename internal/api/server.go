// Package api exposes the listings as read-only JSON over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cartelera-bot/internal/config"
	"cartelera-bot/internal/scraper"
	"cartelera-bot/pkg/logger"
	"cartelera-bot/pkg/tmdb"
)

// ListingSource provides the cinemas and their current listings.
type ListingSource interface {
	Cinemas() []config.CinemaConfig
	Cinema(id string) (config.CinemaConfig, bool)
	Listings(ctx context.Context, cinemaID string) ([]scraper.Listing, error)
}

// MovieLookup finds film metadata by title.
type MovieLookup interface {
	Search(ctx context.Context, title string) (*tmdb.Movie, bool)
	PosterURL(posterPath string) string
}

// Server holds the HTTP API dependencies.
type Server struct {
	addr   string
	source ListingSource
	lookup MovieLookup
}

// NewServer creates the API server.
func NewServer(cfg config.APIConfig, source ListingSource, lookup MovieLookup) *Server {
	return &Server{
		addr:   cfg.Addr,
		source: source,
		lookup: lookup,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), RequestLogger())

	engine.GET("/healthz", s.health)

	api := engine.Group("/api")
	{
		api.GET("/cinemas", s.listCinemas)                 // GET /api/cinemas
		api.GET("/cinemas/:id/listings", s.cinemaListings) // GET /api/cinemas/:id/listings
		api.GET("/listings", s.allListings)                // GET /api/listings
		api.GET("/movies/search", s.searchMovie)           // GET /api/movies/search?title=
	}

	return engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP API stopped")
	return nil
}
