package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonCrawlSource(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/collinfo.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `[{"id":"CC-MAIN-2025-30","cdx-api":"%[1]s/cdx-new"},{"id":"CC-MAIN-2025-26","cdx-api":"%[1]s/cdx-old"}]`, srv.URL)
	})
	mux.HandleFunc("/cdx-new", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ontario.ca", q.Get("url"))
		assert.Equal(t, "domain", q.Get("matchType"))
		assert.Equal(t, "json", q.Get("output"))
		assert.Equal(t, "10", q.Get("limit"))
		fmt.Fprint(w, "{\"url\": \"https://www.ontario.ca/page/a\"}\n\nnot json\n{\"url\": \"https://www.ontario.ca/b.pdf\"}\n")
	})

	src := NewCommonCrawlSource(srv.Client(), "test-agent", srv.URL+"/collinfo.json", 10, nil)
	urls, err := src.Discover(context.Background(), core.Origin{Name: "Ontario", URL: "https://www.ontario.ca/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.ontario.ca/page/a", "https://www.ontario.ca/b.pdf"}, urls)
}

func TestCommonCrawlSourceNoCaptures(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/collinfo.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `[{"id":"CC-MAIN-2025-30","cdx-api":"%s/cdx"}]`, srv.URL)
	})
	mux.HandleFunc("/cdx", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "No Captures found", http.StatusNotFound)
	})

	src := NewCommonCrawlSource(srv.Client(), "", srv.URL+"/collinfo.json", 0, nil)
	urls, err := src.Discover(context.Background(), core.Origin{Name: "Ontario", URL: "https://www.ontario.ca/"})
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestCommonCrawlSourceIndexDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewCommonCrawlSource(srv.Client(), "", srv.URL, 0, nil)
	_, err := src.Discover(context.Background(), core.Origin{Name: "Ontario", URL: "https://www.ontario.ca/"})
	assert.Error(t, err)
}
