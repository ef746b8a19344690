package overlap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOppositeAndRotate(t *testing.T) {
	for i := 0; i < 8; i++ {
		assert.Equal(t, (i+4)%8, opposite(i))
	}
	assert.Equal(t, 1, rotate(0, 1))
	assert.Equal(t, 7, rotate(0, -1))
	assert.Equal(t, 0, rotate(7, 1))
}

func TestNearestDirection(t *testing.T) {
	assert.Equal(t, 0, nearestDirection(0))
	assert.Equal(t, 2, nearestDirection(90))
	assert.Equal(t, 2, nearestDirection(100))
	assert.Equal(t, 4, nearestDirection(180))
}

func TestAverageDirectionHandlesWrap(t *testing.T) {
	assert.InDelta(t, 45, averageDirection(0, 90), 1e-9)
	// 350 and 10 are 20 degrees apart the short way, average should be 0/360.
	got := averageDirection(350, 10)
	if got > 180 {
		got -= 360
	}
	assert.InDelta(t, 0, got, 1e-6)
}
