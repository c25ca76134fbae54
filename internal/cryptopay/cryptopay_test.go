package cryptopay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateInvoice(t *testing.T) {
	var gotToken string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/createInvoice", r.URL.Path)
		gotToken = r.Header.Get("Crypto-Pay-API-Token")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"invoice_id":321,"status":"active","pay_url":"https://t.me/pay/321"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-token")
	invoice, err := client.CreateInvoice(context.Background(), 0.39, "Подписка 7 дней", "42:7d")

	assert.NoError(t, err)
	assert.Equal(t, "secret-token", gotToken)
	assert.Equal(t, "0.39", gotBody["amount"])
	assert.Equal(t, "USD", gotBody["fiat"])
	assert.Equal(t, "321", invoice.ID())
	assert.Equal(t, StatusActive, invoice.Status)
	assert.Equal(t, "https://t.me/pay/321", invoice.PayURL)
}

func TestGetInvoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getInvoices", r.URL.Path)
		assert.Equal(t, "321,322", r.URL.Query().Get("invoice_ids"))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"items":[{"invoice_id":321,"status":"paid"},{"invoice_id":322,"status":"active"}]}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-token")
	invoices, err := client.GetInvoices(context.Background(), []string{"321", "322"})

	assert.NoError(t, err)
	assert.Len(t, invoices, 2)
	assert.Equal(t, StatusPaid, invoices[0].Status)
	assert.Equal(t, StatusActive, invoices[1].Status)
}

func TestAPIErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"ok":false,"error":{"code":400,"name":"AMOUNT_TOO_SMALL"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-token")
	_, err := client.CreateInvoice(context.Background(), 0.01, "x", "y")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "AMOUNT_TOO_SMALL")
	assert.Equal(t, 1, calls)
}

func TestServerErrorIsRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"invoice_id":321,"status":"active","pay_url":"u"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-token")
	invoice, err := client.CreateInvoice(context.Background(), 0.39, "x", "y")

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(321), invoice.InvoiceID)
}
