package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchImageURLPicksFirstLiveImage(t *testing.T) {
	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dead.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer assets.Close()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.URL.Query().Get("q"))
		fmt.Fprintf(w, `<html><body>
			<a href="%s/about">About</a>
			<a href="%s/dead.png">dead</a>
			<a href="%s/alive.png">alive</a>
		</body></html>`, assets.URL, assets.URL, assets.URL)
	}))
	defer search.Close()

	c := New(Options{BaseURL: search.URL, HTTPClient: search.Client()})

	url := c.SearchImageURL(context.Background(), "$MEME")
	assert.Equal(t, assets.URL+"/alive.png", url)
}

func TestSearchImageURLTickerFallbacks(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>no results</body></html>")
	}))
	defer search.Close()

	c := New(Options{BaseURL: search.URL, HTTPClient: search.Client()})

	tt := []struct {
		ticker string
		want   string
	}{
		{"$SUIMEME", "https://example.com/suimeme_character.jpg"},
		{"$TOILET", "https://example.com/toilet_image.jpg"},
		{"$LOFI", "https://example.com/lofi_image.jpg"},
		{"$OTHER", ""},
	}

	for _, tc := range tt {
		assert.Equal(t, tc.want, c.SearchImageURL(context.Background(), tc.ticker), "ticker %s", tc.ticker)
	}
}

func TestSearchImageURLRecoverFromSearchFailure(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer search.Close()

	c := New(Options{BaseURL: search.URL, HTTPClient: search.Client()})

	assert.Equal(t, "https://example.com/suimeme_character.jpg",
		c.SearchImageURL(context.Background(), "$SUIMEME"))
}

func TestEnrichTermAnnotatesOnHit(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="https://example.org/pepe">result</a></body></html>`)
	}))
	defer search.Close()

	c := New(Options{BaseURL: search.URL, HTTPClient: search.Client()})

	enriched, err := c.EnrichTerm(context.Background(), "pepe")
	require.NoError(t, err)
	assert.Equal(t, "pepe (based on web context)", enriched)
}

func TestEnrichTermReturnsOriginalOnMissOrError(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>nothing here</body></html>")
	}))
	defer empty.Close()

	c := New(Options{BaseURL: empty.URL, HTTPClient: empty.Client()})

	enriched, err := c.EnrichTerm(context.Background(), "dancing")
	require.NoError(t, err)
	assert.Equal(t, "dancing", enriched)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	c = New(Options{BaseURL: failing.URL, HTTPClient: failing.Client()})

	enriched, err = c.EnrichTerm(context.Background(), "dancing")
	require.NoError(t, err)
	assert.Equal(t, "dancing", enriched)
}

func TestExtractLinksSkipsSelfAndDuplicates(t *testing.T) {
	body := `<a href="https://search.example/next">next</a>
		<a href="https://a.example/x.png">a</a>
		<a href="https://a.example/x.png">a again</a>
		<a href="https://b.example/y">b</a>`

	links := extractLinks(body, "https://search.example", 5)
	assert.Equal(t, []string{"https://a.example/x.png", "https://b.example/y"}, links)
}

func TestHasImageExtension(t *testing.T) {
	assert.True(t, hasImageExtension("https://x.example/a.PNG"))
	assert.True(t, hasImageExtension("https://x.example/a.jpeg"))
	assert.False(t, hasImageExtension("https://x.example/a.svg"))
	assert.False(t, hasImageExtension("https://x.example/page"))
}
