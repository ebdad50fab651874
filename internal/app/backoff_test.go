package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_GrowsAndCaps(t *testing.T) {
	b := newBackoff(100*time.Millisecond, 350*time.Millisecond)

	d := b.Next()
	assert.InDelta(t, float64(100*time.Millisecond), float64(d), float64(20*time.Millisecond))
	assert.Equal(t, 200*time.Millisecond, b.Current())

	b.Next()
	assert.Equal(t, 350*time.Millisecond, b.Current())
	b.Next()
	assert.Equal(t, 350*time.Millisecond, b.Current())

	b.Reset()
	assert.Equal(t, 100*time.Millisecond, b.Current())
}

func TestBackoff_Defaults(t *testing.T) {
	b := newBackoff(0, 0)
	assert.Equal(t, DefaultBackoffInitial, b.Current())
	assert.Equal(t, DefaultBackoffMax, b.max)

	b = newBackoff(time.Minute, time.Second)
	assert.Equal(t, time.Minute, b.max)
}

func TestBackoff_WaitHonorsContext(t *testing.T) {
	b := newBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, b.Wait(ctx), context.Canceled)
}
