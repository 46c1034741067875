package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "secret", BaseURL: srv.URL}, srv.Client())
}

func TestSearch_FirstResult(t *testing.T) {
	var gotQuery, gotKey, gotLang, gotPath string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotKey = r.URL.Query().Get("api_key")
		gotLang = r.URL.Query().Get("language")
		_, _ = w.Write([]byte(`{"page":1,"results":[
			{"id":1,"title":"Superman","overview":"Clark Kent...","release_date":"2025-07-09","vote_average":7.4,"poster_path":"/abc.jpg"},
			{"id":2,"title":"Superman II"}]}`))
	})

	movie, ok := client.Search(context.Background(), "Superman (VOSE)")
	require.True(t, ok)
	assert.Equal(t, "/search/movie", gotPath)
	assert.Equal(t, "Superman", gotQuery)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "es-ES", gotLang)

	assert.Equal(t, 1, movie.ID)
	assert.Equal(t, "2025", movie.Year())
	assert.Equal(t, 7.4, movie.VoteAverage)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", client.PosterURL(movie.PosterPath))
}

func TestSearch_NoResultCases(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"empty results", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"invalid key", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, tt.handler)
			movie, ok := client.Search(context.Background(), "Elio")
			assert.False(t, ok)
			assert.Nil(t, movie)
		})
	}
}

func TestSearch_DisabledWithoutKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, nil)
	assert.False(t, client.Enabled())

	_, ok := client.Search(context.Background(), "Elio")
	assert.False(t, ok)
	assert.False(t, called)
}

func TestMovieYearAndPoster(t *testing.T) {
	client := New(Config{APIKey: "k"}, nil)
	assert.Equal(t, "", client.PosterURL(""))
	assert.Equal(t, "N/A", (&Movie{}).Year())
	assert.Equal(t, "1999", (&Movie{ReleaseDate: "1999-03-31"}).Year())
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Jurassic World: El renacer", cleanTitle("Jurassic World: El renacer (VOSE) (3D)"))
	assert.Equal(t, "", cleanTitle("(VOSE)"))
	assert.Equal(t, "Elio", cleanTitle(" Elio "))
}
