package micrerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKind(t *testing.T) {
	err := Configuration("bad value %d", 7)
	assert.True(t, Is(err, KindConfiguration))
	assert.False(t, Is(err, KindInput))
	assert.False(t, Is(err, KindDetection))
}

func TestIsFalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), KindConfiguration))
}

func TestWrapPreservesCauseAndKind(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindInput, cause, "reading %s", "file.png")
	assert.True(t, Is(err, KindInput))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "reading file.png")
}

func TestDetectionBuildsDetectionKind(t *testing.T) {
	err := Detection("anchor not found")
	assert.True(t, Is(err, KindDetection))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "configuration", KindConfiguration.String())
	assert.Equal(t, "input", KindInput.String())
	assert.Equal(t, "detection", KindDetection.String())
}
