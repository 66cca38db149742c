package cmd

import (
	"context"
	"testing"

	"github.com/gaurav-prasanna/govcrawl/config"
	"github.com/gaurav-prasanna/govcrawl/core/dispatch"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	v, err := config.New("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"seed", "fetch", "combine"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
}

func TestBindFlagsOverridesConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	c := &cobra.Command{Use: "fetch"}
	c.Flags().Int("batch_size", 0, "")
	c.Flags().Bool("reverse", false, "")
	c.Flags().String("renderer", "", "")
	require.NoError(t, c.Flags().Parse([]string{"--batch_size", "7", "--reverse"}))

	v, err := config.New("")
	require.NoError(t, err)
	require.NoError(t, bindFlags(v, c.Flags()))
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Fetch.BatchSize)
	assert.True(t, cfg.Fetch.Reverse)
	// Unset flags keep the configured default.
	assert.Equal(t, config.RendererHTTP, cfg.Fetch.Renderer)
}

func TestNewDiscoverer(t *testing.T) {
	cfg := defaultConfig(t)

	cfg.Seed.Source = "sitemap+cc+links"
	d, err := newDiscoverer(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, d)

	cfg.Seed.Source = "bogus"
	_, err = newDiscoverer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewDispatcher(t *testing.T) {
	cfg := defaultConfig(t)

	assert.IsType(t, &dispatch.CollyDispatcher{}, newDispatcher(cfg, zap.NewNop()))

	cfg.Fetch.Renderer = config.RendererBrowser
	assert.IsType(t, &dispatch.BrowserDispatcher{}, newDispatcher(cfg, zap.NewNop()))
}

func TestOpenMirrorsNoneConfigured(t *testing.T) {
	cfg := defaultConfig(t)

	sinks, err := openMirrors(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, sinks)
}
