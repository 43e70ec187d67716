package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow_UsesInjectedClock(t *testing.T) {
	now := freezeClock(t)
	assert.Equal(t, now, Now())

	SetClock(nil)
	assert.WithinDuration(t, time.Now(), Now(), time.Minute)
	assert.Equal(t, time.UTC, Now().Location())
}
