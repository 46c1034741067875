// Package tmdb looks films up on The Movie Database.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cartelera-bot/pkg/logger"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	DefaultLanguage     = "es-ES"
)

// Config holds the lookup settings. An empty APIKey disables lookups.
type Config struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string
	Timeout      time.Duration
}

// Movie is the subset of a search result the bot shows.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	PosterPath  string  `json:"poster_path"`
}

type searchResponse struct {
	Page    int     `json:"page"`
	Results []Movie `json:"results"`
}

// Year returns the release year or "N/A".
func (m *Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return "N/A"
	}
	return m.ReleaseDate[:4]
}

// Client queries the TMDb search API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// New creates a client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = DefaultImageBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{config: cfg, httpClient: httpClient}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.config.APIKey != ""
}

// Search returns the first match for title, searching by the text before any
// parenthesized version qualifier. Errors are logged and reported as no match.
func (c *Client) Search(ctx context.Context, title string) (*Movie, bool) {
	if !c.Enabled() {
		return nil, false
	}

	query := cleanTitle(title)
	if query == "" {
		return nil, false
	}

	movie, err := c.search(ctx, query)
	if err != nil {
		logger.Warn("Error searching film '%s': %v", title, err)
		return nil, false
	}
	if movie == nil {
		logger.Debug("No TMDb match for '%s'", query)
		return nil, false
	}
	return movie, true
}

func (c *Client) search(ctx context.Context, query string) (*Movie, error) {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("query", query)
	params.Set("language", c.config.Language)
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/search/movie?" + params.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TMDb API returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

// PosterURL returns the full poster URL, or "" when the film has no poster.
func (c *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return c.config.ImageBaseURL + posterPath
}

func cleanTitle(title string) string {
	if i := strings.Index(title, "("); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}
