package crawl

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newSitemapServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "User-agent: *\nDisallow: /private\nSitemap: %s/index.xml\n", srv.URL)
	})
	mux.HandleFunc("/index.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%[1]s/pages.xml</loc></sitemap>
  <sitemap><loc>%[1]s/docs.xml.gz</loc></sitemap>
</sitemapindex>`, srv.URL)
	})
	mux.HandleFunc("/pages.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%[1]s/en/health</loc></url>
  <url><loc> %[1]s/fr/sante </loc></url>
</urlset>`, srv.URL)
	})
	mux.HandleFunc("/docs.xml.gz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(gzipped(t, fmt.Sprintf(`<urlset><url><loc>%s/files/report.pdf</loc></url></urlset>`, srv.URL)))
	})
	return srv
}

func TestSitemapSourceFollowsIndexes(t *testing.T) {
	srv := newSitemapServer(t)
	src := NewSitemapSource(srv.Client(), "test-agent", 4, 0, nil)

	urls, err := src.Discover(context.Background(), core.Origin{Name: "Test", URL: srv.URL + "/home"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		srv.URL + "/en/health",
		srv.URL + "/fr/sante",
		srv.URL + "/files/report.pdf",
	}, urls)
}

func TestSitemapSourceCapsURLs(t *testing.T) {
	srv := newSitemapServer(t)
	src := NewSitemapSource(srv.Client(), "", 2, 1, nil)

	urls, err := src.Discover(context.Background(), core.Origin{Name: "Test", URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/en/health"}, urls)
}

func TestSitemapSourceNoSitemap(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	src := NewSitemapSource(srv.Client(), "", 2, 0, nil)

	_, err := src.Discover(context.Background(), core.Origin{Name: "Test", URL: srv.URL})
	assert.Error(t, err)
}
