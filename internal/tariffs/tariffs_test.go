package tariffs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	tenHours, ok := Get("10h")
	assert.True(t, ok)
	assert.Equal(t, 10*time.Hour, tenHours.Duration())

	week, ok := Get("7d")
	assert.True(t, ok)
	assert.Equal(t, 7*24*time.Hour, week.Duration())

	twoMonths, ok := Get("60d")
	assert.True(t, ok)
	assert.Equal(t, 60*24*time.Hour, twoMonths.Duration())
}

func TestGetUnknown(t *testing.T) {
	_, ok := Get("3y")
	assert.False(t, ok)

	_, ok = Get("")
	assert.False(t, ok)
}

func TestGetTrimsWhitespace(t *testing.T) {
	tariff, ok := Get(" 1d ")
	assert.True(t, ok)
	assert.Equal(t, "1d", tariff.ID)
}

func TestInfiniteTariff(t *testing.T) {
	inf, ok := Get("inf")
	assert.True(t, ok)
	assert.True(t, inf.Infinite)
}

func TestCatalogIsACopy(t *testing.T) {
	first := Catalog()
	first[0].PriceUSD = 999

	second := Catalog()
	assert.NotEqual(t, float64(999), second[0].PriceUSD)
}
