package assertions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToggle(t *testing.T) {
	t.Cleanup(func() { SetEnabled(false) })

	require.False(t, Enabled())
	SetEnabled(true)
	require.True(t, Enabled())

	require.NotPanics(t, func() {
		Always(true, "deploy receipt succeeded", map[string]any{"contract": "BlogPlatform"})
		Sometimes(true, "draw emitted NFTDrawn", nil)
		Reachable("json storage written", nil)
	})

	SetEnabled(false)
	require.NotPanics(t, func() {
		Unreachable("failed receipt returned without error", nil)
	})
}
