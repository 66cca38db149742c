package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Len(t, cfg.Origins, 10)
	assert.Equal(t, core.Origin{Name: "Quebec", URL: "https://www.quebec.ca/en"}, cfg.Origins[5])
	assert.Equal(t, "sitemap+cc", cfg.Seed.Source)
	assert.Equal(t, 50000, cfg.Seed.MaxURLs)
	assert.Equal(t, 100, cfg.Seed.Concurrency)

	assert.Equal(t, 50, cfg.Fetch.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Fetch.BatchDelay)
	assert.Equal(t, 2*time.Second, cfg.Fetch.PDFDelay)
	assert.Equal(t, 5*time.Second, cfg.Fetch.OriginDelay)
	assert.Equal(t, 30*time.Second, cfg.Fetch.PageTimeout)
	assert.Equal(t, 20, cfg.Fetch.Parallelism)
	assert.Equal(t, RendererHTTP, cfg.Fetch.Renderer)
	assert.Equal(t, 50, cfg.Fetch.MinContentLength)
	assert.False(t, cfg.Fetch.Resume)
	assert.Equal(t, []string{"nav", "footer", "header", "aside", "script", "style", "form"}, cfg.Fetch.ExcludedTags)
	assert.Equal(t, 0.48, cfg.Fetch.Prune.Threshold)
	assert.True(t, cfg.Fetch.Prune.Dynamic)
	assert.Equal(t, 10, cfg.Fetch.Prune.MinWords)
	assert.Equal(t, "canada_gov", cfg.Fetch.Source)

	assert.Equal(t, time.Second, cfg.RateLimit.BaseDelayMin)
	assert.Equal(t, 3*time.Second, cfg.RateLimit.BaseDelayMax)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.MaxDelay)
	assert.Equal(t, 2, cfg.RateLimit.MaxRetries)
	assert.Equal(t, []int{429, 503}, cfg.RateLimit.Codes)

	assert.Equal(t, "file", cfg.Ledger.Kind)
	assert.Equal(t, "all_canada_rag_content.jsonl", cfg.Combine.Output)
}

func TestFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "govcrawl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
origins:
  - name: Yukon
    url: https://yukon.ca/
fetch:
  batch_size: 10
  pdf_delay: 500ms
  renderer: browser
rate_limit:
  codes: [429]
`), 0644))
	t.Setenv("GOVCRAWL_FETCH_BATCH_SIZE", "7")
	t.Setenv("GOVCRAWL_WORK_DIR", "/data/govcrawl")

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, []core.Origin{{Name: "Yukon", URL: "https://yukon.ca/"}}, cfg.Origins)
	assert.Equal(t, 7, cfg.Fetch.BatchSize, "environment wins over file")
	assert.Equal(t, 500*time.Millisecond, cfg.Fetch.PDFDelay)
	assert.Equal(t, RendererBrowser, cfg.Fetch.Renderer)
	assert.Equal(t, []int{429}, cfg.RateLimit.Codes)
	assert.Equal(t, "/data/govcrawl", cfg.WorkDir)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no origins", func(c *Config) { c.Origins = nil }, "at least one origin"},
		{"duplicate origin", func(c *Config) { c.Origins = append(c.Origins, core.Origin{Name: "ontario", URL: "x"}) }, "duplicate origin"},
		{"batch size", func(c *Config) { c.Fetch.BatchSize = 0 }, "batch_size"},
		{"renderer", func(c *Config) { c.Fetch.Renderer = "lynx" }, "renderer"},
		{"ledger", func(c *Config) { c.Ledger.Kind = "sqlite" }, "ledger.kind"},
		{"redis addr", func(c *Config) { c.Ledger.Kind = "redis"; c.Ledger.RedisAddr = "" }, "redis_addr"},
		{"seed source", func(c *Config) { c.Seed.Source = "sitemap+gopher" }, "seed.source"},
		{"delays", func(c *Config) { c.RateLimit.BaseDelayMax = 0 }, "base_delay_max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New("")
			require.NoError(t, err)
			cfg, err := Load(v)
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSelectOrigins(t *testing.T) {
	cfg := &Config{Origins: DefaultOrigins}

	all, err := cfg.SelectOrigins(nil)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	some, err := cfg.SelectOrigins([]string{"ontario", "Nova_Scotia"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "Ontario", some[0].Name)
	assert.Equal(t, "Nova_Scotia", some[1].Name)

	_, err = cfg.SelectOrigins([]string{"Atlantis"})
	assert.Error(t, err)
}
