package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/extramods/modgate-bot/types"
)

func TestSubscriptionWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		currentExpires time.Time
		duration       time.Duration
		infinite       bool
		wantStart      time.Time
		wantExpires    time.Time
	}{
		{
			name:        "first purchase starts now",
			duration:    7 * 24 * time.Hour,
			wantStart:   now,
			wantExpires: now.Add(7 * 24 * time.Hour),
		},
		{
			name:           "purchase stacks on the active expiry",
			currentExpires: now.Add(48 * time.Hour),
			duration:       30 * 24 * time.Hour,
			wantStart:      now.Add(48 * time.Hour),
			wantExpires:    now.Add(48*time.Hour + 30*24*time.Hour),
		},
		{
			name:           "lapsed expiry does not stack",
			currentExpires: now.Add(-time.Hour),
			duration:       24 * time.Hour,
			wantStart:      now,
			wantExpires:    now.Add(24 * time.Hour),
		},
		{
			name:        "infinite pins the sentinel",
			infinite:    true,
			wantStart:   now,
			wantExpires: types.InfiniteExpiry,
		},
		{
			name:           "infinite on top of an active subscription",
			currentExpires: now.Add(48 * time.Hour),
			infinite:       true,
			wantStart:      now.Add(48 * time.Hour),
			wantExpires:    types.InfiniteExpiry,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, expires := subscriptionWindow(now, tc.currentExpires, tc.duration, tc.infinite)
			assert.Equal(t, tc.wantStart, start)
			assert.Equal(t, tc.wantExpires, expires)
		})
	}
}

func TestGateRemovalAllowed(t *testing.T) {
	assert.True(t, gateRemovalAllowed(2, 1))
	assert.True(t, gateRemovalAllowed(1, 0))
	// Deleting the last channel at the default minimum is refused.
	assert.False(t, gateRemovalAllowed(1, 1))
	assert.False(t, gateRemovalAllowed(0, 1))
}
