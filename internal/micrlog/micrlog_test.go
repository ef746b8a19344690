package micrlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevelKnownValues(t *testing.T) {
	cases := map[string]Level{
		"error":   LevelError,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"":        LevelInfo,
		"info":    LevelInfo,
		"debug":   LevelDebug,
	}
	for s, want := range cases {
		got, err := ParseLevel(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseLevelUnknownIsError(t *testing.T) {
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "debug", LevelDebug.String())
}

func TestDebugDoesNotEmitBelowDebugLevel(t *testing.T) {
	l := New(LevelInfo, 8)
	l.Debug("line %d", 1)
	// Not emitted at Info level, but still retained in the ring buffer
	// for a later FlushBuffered call; this just confirms Debug doesn't
	// panic or block when the level excludes it.
	l.FlushBuffered(LevelWarn)
}

func TestRingBufferWrapsAndKeepsMostRecent(t *testing.T) {
	l := New(LevelDebug, 3)
	for i := 0; i < 5; i++ {
		l.Debug("line %d", i)
	}
	assert.Equal(t, 3, l.ringN)
	assert.Equal(t, 5, l.cursor)
	assert.ElementsMatch(t, []string{"[debug] line 2", "[debug] line 3", "[debug] line 4"}, l.ring)
}
