package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitersCap(t *testing.T) {
	w := NewWaiters(2)

	assert.True(t, w.Acquire())
	assert.True(t, w.Acquire())
	assert.False(t, w.Acquire(), "third waiter exceeds the cap")
	assert.Equal(t, 2, w.Active())

	w.Release()
	assert.Equal(t, 1, w.Active())
	assert.True(t, w.Acquire())
}

func TestWaitersReleaseNeverGoesNegative(t *testing.T) {
	w := NewWaiters(1)
	w.Release()
	assert.Equal(t, 0, w.Active())
	assert.True(t, w.Acquire())
}
