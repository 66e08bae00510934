package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDoublesUntilMax(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second

	assert.Equal(t, base, Backoff(base, max, 0))
	assert.Equal(t, 200*time.Millisecond, Backoff(base, max, 1))
	assert.Equal(t, 800*time.Millisecond, Backoff(base, max, 3))
	assert.Equal(t, max, Backoff(base, max, 4))
	assert.Equal(t, max, Backoff(base, max, 40))
}

func TestDurationStaysInRange(t *testing.T) {
	d := 10 * time.Millisecond
	for i := 0; i < 100; i++ {
		got := Duration(d, DefaultJitter)
		assert.GreaterOrEqual(t, got, d)
		assert.LessOrEqual(t, got, d+d/2)
	}
}

func TestDurationWithoutJitter(t *testing.T) {
	assert.Equal(t, time.Second, Duration(time.Second, 0))
	assert.Equal(t, time.Duration(0), Duration(0, DefaultJitter))
}
