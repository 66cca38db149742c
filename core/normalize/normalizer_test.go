package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := New()
	md, err := n.Normalize(`<main><h2>Coverage</h2><p>Apply <strong>online</strong>.</p><br><br><br><p>Done</p></main>`)
	require.NoError(t, err)

	assert.Contains(t, md, "## Coverage")
	assert.Contains(t, md, "**online**")
	assert.NotContains(t, md, "\n\n\n")
	assert.Equal(t, strings.TrimSpace(md), md)
}
