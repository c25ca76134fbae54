// Package billing reconciles external invoices with local payment state.
// Settlement is pull-based: the user polls "check payment", and the credited
// effect is applied exactly once no matter how often they poll.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/extramods/modgate-bot/internal/cryptopay"
	"github.com/extramods/modgate-bot/internal/tariffs"
	"github.com/extramods/modgate-bot/types"
)

// TariffVPNPrefix marks payments for one-shot VPN config purchases.
const TariffVPNPrefix = "vpn:"

var ErrUnknownInvoice = errors.New("unknown invoice")

type InvoiceProvider interface {
	CreateInvoice(ctx context.Context, amountUSD float64, description, payload string) (*cryptopay.Invoice, error)
	GetInvoices(ctx context.Context, ids []string) ([]cryptopay.Invoice, error)
}

type Outcome int

const (
	StillPending Outcome = iota
	AlreadySettled
	Settled
)

type PendingInvoice struct {
	InvoiceID string
	PayURL    string
}

type Service struct {
	payments types.PaymentStore
	provider InvoiceProvider
	usdToRub float64
}

func NewService(payments types.PaymentStore, provider InvoiceProvider, usdToRub float64) *Service {
	return &Service{
		payments: payments,
		provider: provider,
		usdToRub: usdToRub,
	}
}

// RequestSubscription mints an invoice for the tariff and records the
// pending payment. A provider failure leaves no payment row behind.
func (s *Service) RequestSubscription(ctx context.Context, userID int64, t tariffs.Tariff) (*PendingInvoice, error) {
	description := fmt.Sprintf("Подписка %s | UID %d", t.Label, userID)
	payload := fmt.Sprintf("%d:%s", userID, t.ID)
	return s.request(ctx, userID, t.ID, t.PriceUSD, description, payload)
}

func (s *Service) RequestTopup(ctx context.Context, userID int64, amountUSD float64) (*PendingInvoice, error) {
	description := fmt.Sprintf("Пополнение баланса | UID %d", userID)
	payload := fmt.Sprintf("%s:%d", types.TariffTopup, userID)
	return s.request(ctx, userID, types.TariffTopup, amountUSD, description, payload)
}

// RequestDelivery is for one-shot purchases (VPN configs): the payoff is
// delivered in the confirmation reply, so the marker carries what to deliver.
func (s *Service) RequestDelivery(ctx context.Context, userID int64, marker string, amountUSD float64, description string) (*PendingInvoice, error) {
	payload := fmt.Sprintf("%s:%d", marker, userID)
	return s.request(ctx, userID, marker, amountUSD, description, payload)
}

func (s *Service) request(ctx context.Context, userID int64, tariffID string, amountUSD float64, description, payload string) (*PendingInvoice, error) {
	invoice, err := s.provider.CreateInvoice(ctx, amountUSD, description, payload)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	if _, err := s.payments.CreatePayment(userID, invoice.ID(), tariffID, amountUSD); err != nil {
		return nil, err
	}
	return &PendingInvoice{InvoiceID: invoice.ID(), PayURL: invoice.PayURL}, nil
}

// Confirm polls the provider and, on the first observed "paid", applies the
// payment's effect atomically with the is_paid flip. Subsequent calls report
// AlreadySettled without touching anything.
func (s *Service) Confirm(ctx context.Context, invoiceID string) (Outcome, *types.Subscription, error) {
	invoices, err := s.provider.GetInvoices(ctx, []string{invoiceID})
	if err != nil {
		return StillPending, nil, fmt.Errorf("poll invoice: %w", err)
	}
	if len(invoices) == 0 {
		return StillPending, nil, ErrUnknownInvoice
	}
	if invoices[0].Status != cryptopay.StatusPaid {
		return StillPending, nil, nil
	}

	payment, err := s.payments.GetPaymentByInvoice(invoiceID)
	if err != nil {
		return StillPending, nil, err
	}
	if payment.IsPaid {
		return AlreadySettled, nil, nil
	}

	switch {
	case payment.TariffID == types.TariffTopup:
		already, err := s.payments.SettleTopup(invoiceID, payment.AmountUSD*s.usdToRub)
		return settleOutcome(already, err), nil, err

	case strings.HasPrefix(payment.TariffID, TariffVPNPrefix):
		already, err := s.payments.SettleDelivery(invoiceID)
		return settleOutcome(already, err), nil, err

	default:
		t, ok := tariffs.Get(payment.TariffID)
		if !ok {
			return StillPending, nil, fmt.Errorf("unknown tariff %q on invoice %s", payment.TariffID, invoiceID)
		}
		sub, already, err := s.payments.SettleSubscription(invoiceID, t.Duration(), t.Infinite)
		return settleOutcome(already, err), sub, err
	}
}

// CreditRub converts an invoice amount into the balance credit it yields.
func (s *Service) CreditRub(amountUSD float64) float64 {
	return amountUSD * s.usdToRub
}

func settleOutcome(already bool, err error) Outcome {
	if err != nil {
		return StillPending
	}
	if already {
		return AlreadySettled
	}
	return Settled
}
