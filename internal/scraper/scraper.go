package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cartelera-bot/internal/config"
	"cartelera-bot/pkg/httpclient"
	"cartelera-bot/pkg/logger"
	"cartelera-bot/pkg/renderer"
)

// ErrUnknownCinema is returned for cinema ids missing from the configuration.
var ErrUnknownCinema = errors.New("unknown cinema")

// Scraper 根据影院配置选择对应的解析器
type Scraper struct {
	cinemas    []config.CinemaConfig
	httpClient *httpclient.Client
	renderer   renderer.Renderer
}

// New creates a scraper for the configured cinemas. r is only used by cinemas with
// the rendered layout.
func New(cfg *config.Config, client *httpclient.Client, r renderer.Renderer) *Scraper {
	if client == nil {
		client = httpclient.NewClient(&cfg.Proxy)
	}
	return &Scraper{
		cinemas:    cfg.Cinemas,
		httpClient: client,
		renderer:   r,
	}
}

// Cinemas returns the configured cinemas in menu order.
func (s *Scraper) Cinemas() []config.CinemaConfig {
	return s.cinemas
}

// Cinema looks up a cinema by id.
func (s *Scraper) Cinema(id string) (config.CinemaConfig, bool) {
	for _, c := range s.cinemas {
		if strings.EqualFold(c.ID, id) {
			return c, true
		}
	}
	return config.CinemaConfig{}, false
}

// Listings scrapes the current listings of one cinema. Each call scrapes live.
func (s *Scraper) Listings(ctx context.Context, cinemaID string) ([]Listing, error) {
	cinema, ok := s.Cinema(cinemaID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCinema, cinemaID)
	}

	logger.Debug("Scraping %s (%s layout)", cinema.Name, cinema.Layout)

	switch cinema.Layout {
	case config.LayoutShared:
		listings, err := s.SharedLayoutListings(ctx, cinema.URL)
		if err != nil {
			return nil, fmt.Errorf("scrape %s: %w", cinema.ID, err)
		}
		return listings, nil
	case config.LayoutRendered:
		return s.RenderedListings(ctx, cinema.URL), nil
	default:
		return nil, fmt.Errorf("unsupported layout %q for cinema %s", cinema.Layout, cinema.ID)
	}
}

// Close 关闭HTTP客户端
func (s *Scraper) Close() error {
	if s.httpClient != nil {
		return s.httpClient.Close()
	}
	return nil
}
