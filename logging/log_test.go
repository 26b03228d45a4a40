package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChildPrefix(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, "dappctl", false)
	child := Child(parent, "events")

	require.Equal(t, "dappctl::events", child.GetPrefix())

	child.Info("scanning", "from", 10)
	require.Contains(t, buf.String(), "dappctl::events")
	require.Contains(t, buf.String(), "scanning")
}

func TestVerboseLevel(t *testing.T) {
	var buf bytes.Buffer
	quiet := NewWithWriter(&buf, "q", false)
	quiet.Debug("hidden")
	require.NotContains(t, buf.String(), "hidden")

	loud := NewWithWriter(&buf, "v", true)
	loud.Debug("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestChildOfNil(t *testing.T) {
	require.NotNil(t, Child(nil, "x"))
}
