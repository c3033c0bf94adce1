package logging

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]pterm.LogLevel{
		"":        pterm.LogLevelInfo,
		"INFO":    pterm.LogLevelInfo,
		"debug":   pterm.LogLevelDebug,
		"warning": pterm.LogLevelWarn,
		"error":   pterm.LogLevelError,
		"off":     pterm.LogLevelDisabled,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWritesThroughPterm(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", &buf, true)
	require.NoError(t, err)

	logger.Info("billing sync finished", "created", 2)

	assert.Contains(t, buf.String(), "billing sync finished")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty", &bytes.Buffer{}, false)
	assert.Error(t, err)
}
