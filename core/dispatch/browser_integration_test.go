//go:build integration

package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: go test -tags integration ./core/dispatch/
// Needs a local Chrome or Chromium.

func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no chrome binary on PATH")
}

func TestBrowserDispatch(t *testing.T) {
	requireChrome(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/en/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Health</title></head><body><main><p>Rendered</p>` +
			`<p id="late"></p><script>document.getElementById("late").textContent = "by script";</script></main></body></html>`))
	})
	mux.HandleFunc("/en/missing", http.NotFound)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := NewBrowser(Options{
		Parallelism: 2,
		Timeout:     20 * time.Second,
		UserAgent:   "govcrawl-test",
		Limiter:     NewRateLimiter(0, 0, 0, 2, nil),
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	results, err := d.Dispatch(ctx, []string{srv.URL + "/en/health", srv.URL + "/en/missing"})
	require.NoError(t, err)

	got := map[string]core.CrawlResult{}
	for res := range results {
		got[res.URL] = res
	}
	require.Len(t, got, 2)

	ok := got[srv.URL+"/en/health"]
	require.NoError(t, ok.Err)
	assert.Equal(t, 200, ok.StatusCode)
	assert.Contains(t, ok.HTML, "Rendered")
	assert.Contains(t, ok.HTML, "by script")

	missing := got[srv.URL+"/en/missing"]
	assert.Error(t, missing.Err)
	assert.Equal(t, 404, missing.StatusCode)
	assert.Empty(t, missing.HTML)
}
