package tariffs

import (
	"strings"
	"time"
)

// Tariff is a purchasable subscription plan. Duration is months+days+hours
// summed; Infinite plans ignore it and expire at the far-future sentinel.
type Tariff struct {
	ID       string
	Label    string
	PriceUSD float64
	Months   int
	Days     int
	Hours    int
	Infinite bool
}

// A month counts as 30 days, matching the durations the tariffs advertise.
// Calendar-month arithmetic would make "30 дней" and "1 месяц" diverge.
const daysPerMonth = 30

func (t Tariff) Duration() time.Duration {
	days := t.Days + t.Months*daysPerMonth
	return time.Duration(days)*24*time.Hour + time.Duration(t.Hours)*time.Hour
}

var catalog = []Tariff{
	{ID: "10h", Label: "10 часов", PriceUSD: 0.17, Hours: 10},
	{ID: "1d", Label: "1 день", PriceUSD: 0.28, Days: 1},
	{ID: "7d", Label: "7 дней", PriceUSD: 0.39, Days: 7},
	{ID: "14d", Label: "14 дней", PriceUSD: 0.50, Days: 14},
	{ID: "30d", Label: "30 дней", PriceUSD: 0.61, Days: 30},
	{ID: "60d", Label: "60 дней", PriceUSD: 0.72, Days: 60},
	{ID: "inf", Label: "Навсегда", PriceUSD: 0.83, Infinite: true},
}

func Catalog() []Tariff {
	out := make([]Tariff, len(catalog))
	copy(out, catalog)
	return out
}

func Get(id string) (Tariff, bool) {
	id = strings.TrimSpace(id)
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Tariff{}, false
}
