package messages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/extramods/modgate-bot/types"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;&amp;&quot;&#39;", Escape(`<b>&"'`))
	assert.Equal(t, "plain", Escape("  plain  "))
}

func TestFormatExpiry(t *testing.T) {
	ts := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	assert.Equal(t, "14.03.2026 15:09", FormatExpiry(ts))
}

func TestFormatExpiryInfinite(t *testing.T) {
	assert.Equal(t, "Навсегда", FormatExpiry(types.InfiniteExpiry))
	assert.Equal(t, "Навсегда", FormatExpiry(types.InfiniteExpiry.Add(time.Hour)))
}

func TestSubscriptionLine(t *testing.T) {
	sub := &types.Subscription{
		TariffID:  "7d",
		ExpiresAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
		IsActive:  true,
	}
	assert.Equal(t, "✅ 7d — до 02.01.2026 03:04", SubscriptionLine(sub))

	sub.IsActive = false
	assert.Equal(t, "⏸ 7d — до 02.01.2026 03:04", SubscriptionLine(sub))
}
