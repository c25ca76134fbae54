package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/extramods/modgate-bot/internal/cryptopay"
	"github.com/extramods/modgate-bot/internal/tariffs"
	"github.com/extramods/modgate-bot/types"
)

func testTariff() tariffs.Tariff {
	t, _ := tariffs.Get("7d")
	return t
}

type fakeProvider struct {
	createErr error
	nextID    int64
	invoices  map[string]cryptopay.Invoice
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{nextID: 100, invoices: map[string]cryptopay.Invoice{}}
}

func (p *fakeProvider) CreateInvoice(ctx context.Context, amountUSD float64, description, payload string) (*cryptopay.Invoice, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.nextID++
	inv := cryptopay.Invoice{InvoiceID: p.nextID, Status: cryptopay.StatusActive, PayURL: "https://t.me/pay"}
	p.invoices[inv.ID()] = inv
	return &inv, nil
}

func (p *fakeProvider) GetInvoices(ctx context.Context, ids []string) ([]cryptopay.Invoice, error) {
	out := make([]cryptopay.Invoice, 0, len(ids))
	for _, id := range ids {
		if inv, ok := p.invoices[id]; ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (p *fakeProvider) markPaid(invoiceID string) {
	inv := p.invoices[invoiceID]
	inv.Status = cryptopay.StatusPaid
	p.invoices[invoiceID] = inv
}

type fakePaymentStore struct {
	payments map[string]*types.Payment

	settledSubs   int
	settledTopups int
	lastCredit    float64
	lastDuration  time.Duration
	lastInfinite  bool
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: map[string]*types.Payment{}}
}

func (s *fakePaymentStore) CreatePayment(userID int64, invoiceID, tariffID string, amountUSD float64) (*types.Payment, error) {
	p := &types.Payment{UserID: userID, InvoiceID: invoiceID, TariffID: tariffID, AmountUSD: amountUSD}
	s.payments[invoiceID] = p
	return p, nil
}

func (s *fakePaymentStore) GetPaymentByInvoice(invoiceID string) (*types.Payment, error) {
	p, ok := s.payments[invoiceID]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (s *fakePaymentStore) SettleSubscription(invoiceID string, duration time.Duration, infinite bool) (*types.Subscription, bool, error) {
	p := s.payments[invoiceID]
	if p.IsPaid {
		return nil, true, nil
	}
	p.IsPaid = true
	s.settledSubs++
	s.lastDuration = duration
	s.lastInfinite = infinite
	return &types.Subscription{UserID: p.UserID, TariffID: p.TariffID, ExpiresAt: time.Now().Add(duration)}, false, nil
}

func (s *fakePaymentStore) SettleTopup(invoiceID string, creditRub float64) (bool, error) {
	p := s.payments[invoiceID]
	if p.IsPaid {
		return true, nil
	}
	p.IsPaid = true
	s.settledTopups++
	s.lastCredit = creditRub
	return false, nil
}

func (s *fakePaymentStore) SettleDelivery(invoiceID string) (bool, error) {
	p := s.payments[invoiceID]
	if p.IsPaid {
		return true, nil
	}
	p.IsPaid = true
	return false, nil
}

func newTestService() (*Service, *fakePaymentStore, *fakeProvider) {
	store := newFakePaymentStore()
	provider := newFakeProvider()
	return NewService(store, provider, 90), store, provider
}

func TestRequestSubscriptionRecordsPayment(t *testing.T) {
	svc, store, _ := newTestService()

	tariff := testTariff()
	pending, err := svc.RequestSubscription(context.Background(), 42, tariff)
	assert.NoError(t, err)
	assert.NotEmpty(t, pending.InvoiceID)
	assert.NotEmpty(t, pending.PayURL)

	payment, err := store.GetPaymentByInvoice(pending.InvoiceID)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), payment.UserID)
	assert.Equal(t, tariff.ID, payment.TariffID)
	assert.False(t, payment.IsPaid)
}

func TestRequestSubscriptionProviderFailureLeavesNoRow(t *testing.T) {
	svc, store, provider := newTestService()
	provider.createErr = errors.New("api down")

	_, err := svc.RequestSubscription(context.Background(), 42, testTariff())
	assert.Error(t, err)
	assert.Empty(t, store.payments)
}

func TestConfirmStillPending(t *testing.T) {
	svc, _, _ := newTestService()

	pending, err := svc.RequestSubscription(context.Background(), 42, testTariff())
	assert.NoError(t, err)

	outcome, sub, err := svc.Confirm(context.Background(), pending.InvoiceID)
	assert.NoError(t, err)
	assert.Equal(t, StillPending, outcome)
	assert.Nil(t, sub)
}

func TestConfirmSettlesOnce(t *testing.T) {
	svc, store, provider := newTestService()

	pending, err := svc.RequestSubscription(context.Background(), 42, testTariff())
	assert.NoError(t, err)
	provider.markPaid(pending.InvoiceID)

	outcome, sub, err := svc.Confirm(context.Background(), pending.InvoiceID)
	assert.NoError(t, err)
	assert.Equal(t, Settled, outcome)
	assert.NotNil(t, sub)
	assert.Equal(t, 1, store.settledSubs)
	assert.Equal(t, 7*24*time.Hour, store.lastDuration)

	// Polling again reports the earlier settlement without re-crediting.
	outcome, sub, err = svc.Confirm(context.Background(), pending.InvoiceID)
	assert.NoError(t, err)
	assert.Equal(t, AlreadySettled, outcome)
	assert.Nil(t, sub)
	assert.Equal(t, 1, store.settledSubs)
}

func TestConfirmTopupConvertsCurrency(t *testing.T) {
	svc, store, provider := newTestService()

	pending, err := svc.RequestTopup(context.Background(), 42, 5)
	assert.NoError(t, err)
	provider.markPaid(pending.InvoiceID)

	outcome, sub, err := svc.Confirm(context.Background(), pending.InvoiceID)
	assert.NoError(t, err)
	assert.Equal(t, Settled, outcome)
	assert.Nil(t, sub)
	assert.Equal(t, 1, store.settledTopups)
	assert.Equal(t, float64(450), store.lastCredit)
}

func TestConfirmUnknownInvoice(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.Confirm(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownInvoice)
}
