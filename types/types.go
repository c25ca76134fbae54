package types

import "time"

// InfiniteExpiry is the expiry stored for lifetime subscriptions. A concrete
// far-future timestamp instead of NULL keeps every expiry comparison total.
var InfiniteExpiry = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// TariffTopup marks a payment row as a balance top-up instead of a tariff.
const TariffTopup = "topup"

type User struct {
	UserID    int64
	Username  string
	FullName  string
	Balance   float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Subscription struct {
	ID        int64
	UserID    int64
	TariffID  string
	StartedAt time.Time
	ExpiresAt time.Time
	IsActive  bool
	CreatedAt time.Time
}

func (s *Subscription) Infinite() bool {
	return !s.ExpiresAt.Before(InfiniteExpiry)
}

type Payment struct {
	ID        int64
	UserID    int64
	InvoiceID string
	TariffID  string
	AmountUSD float64
	IsPaid    bool
	CreatedAt time.Time
}
