package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
	c := Fake(start)

	assert.Equal(t, start, c.Now())

	c.Advance(2 * time.Minute)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 1, 0, 0, time.UTC), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestRealClockMovesForward(t *testing.T) {
	c := Real()
	before := time.Now()
	got := c.Now()
	assert.False(t, got.Before(before))
}
