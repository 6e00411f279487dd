package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Run("known names", func(t *testing.T) {
		cases := map[string]Level{
			"debug":   LevelDebug,
			"info":    LevelInfo,
			"":        LevelInfo,
			"WARN":    LevelWarn,
			"warning": LevelWarn,
			"error":   LevelError,
			"off":     LevelOff,
			"none":    LevelOff,
			" Info ":  LevelInfo,
		}
		for input, want := range cases {
			level, err := ParseLevel(input)
			require.NoError(t, err, "input %q", input)
			assert.Equal(t, want, level, "input %q", input)
		}
	})

	t.Run("unknown name is an error", func(t *testing.T) {
		_, err := ParseLevel("verbose")
		assert.Error(t, err)
	})

	t.Run("round-trips through String", func(t *testing.T) {
		for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelOff} {
			parsed, err := ParseLevel(level.String())
			require.NoError(t, err)
			assert.Equal(t, level, parsed)
		}
	})
}

func TestDefaultLogger(t *testing.T) {
	original := GetDefaultLogger()
	defer SetDefaultLogger(original)

	SetDefaultLogger(Noop{})
	assert.Equal(t, Noop{}, GetDefaultLogger())
}
