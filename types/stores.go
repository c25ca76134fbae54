package types

import "time"

type UserStore interface {
	GetOrCreateUser(userID int64, fullName, username string) (*User, error)
	GetUser(userID int64) (*User, error)
	ListUserIDs() ([]int64, error)
}

// SubscriptionStore is the ledger: rows are appended, never rewritten, and
// only the sweeper flips is_active.
type SubscriptionStore interface {
	GetActiveSubscription(userID int64) (*Subscription, error)
	CreateSubscription(userID int64, tariffID string, duration time.Duration, infinite bool) (*Subscription, error)
	ListSubscriptions(userID int64) ([]*Subscription, error)
	ListExpiringSoon(within time.Duration) ([]*Subscription, error)
	ListExpired() ([]*Subscription, error)
	DeactivateSubscriptions(ids []int64) error
}

// PaymentStore settles each invoice at most once: the Settle* methods flip
// is_paid and apply the credited effect inside a single transaction, and
// report already=true without mutating when the flag was set before.
type PaymentStore interface {
	CreatePayment(userID int64, invoiceID, tariffID string, amountUSD float64) (*Payment, error)
	GetPaymentByInvoice(invoiceID string) (*Payment, error)
	SettleSubscription(invoiceID string, duration time.Duration, infinite bool) (sub *Subscription, already bool, err error)
	SettleTopup(invoiceID string, creditRub float64) (already bool, err error)
	SettleDelivery(invoiceID string) (already bool, err error)
}

type GateChannelStore interface {
	ListGateChannels() ([]*GateChannel, error)
	AddGateChannel(username, title string) (*GateChannel, error)
	RemoveGateChannel(id int64, minRemaining int) error
	CountGateChannels() (int, error)
}

type ModChannelStore interface {
	ListModChannels() ([]*ModChannel, error)
	ListPrivateModChannels() ([]*ModChannel, error)
	AddModChannel(ch ModChannel) (*ModChannel, error)
	RemoveModChannel(id int64) error
}
