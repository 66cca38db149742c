package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveItem("Ontario", "html", OutcomeWritten)
		m.ObserveFetch("pdf", time.Second)
		m.AddSeeded("Ontario", 3)
		m.SetProgress("Ontario", 4)
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveItem("Ontario", "html", OutcomeWritten)
	m.ObserveItem("Ontario", "html", OutcomeWritten)
	m.ObserveItem("Ontario", "pdf", OutcomeFailed)
	m.AddSeeded("Alberta", 12)
	m.SetProgress("Ontario", 3)
	m.SetProgress("Ontario", 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ItemsTotal.WithLabelValues("Ontario", "html", OutcomeWritten)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsTotal.WithLabelValues("Ontario", "pdf", OutcomeFailed)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.SeededTotal.WithLabelValues("Alberta")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Processed.WithLabelValues("Ontario")))
}

func TestRouter(t *testing.T) {
	m := New()
	m.AddSeeded("Manitoba", 1)

	srv := httptest.NewServer(m.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `govcrawl_seeded_urls_total{origin="Manitoba"} 1`)
}
