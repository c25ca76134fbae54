// Package cryptopay is a minimal client for the CryptoBot payment API:
// invoice creation and status polling, nothing else.
package cryptopay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	StatusActive = "active"
	StatusPaid   = "paid"
)

type Invoice struct {
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
	PayURL    string `json:"pay_url"`
}

func (i Invoice) ID() string {
	return strconv.FormatInt(i.InvoiceID, 10)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// CreateInvoice mints a USD-denominated invoice. Network failures and 5xx
// responses are retried a few times with backoff; an API-level rejection is
// returned as-is.
func (c *Client) CreateInvoice(ctx context.Context, amountUSD float64, description, payload string) (*Invoice, error) {
	body := map[string]string{
		"currency_type":   "fiat",
		"fiat":            "USD",
		"accepted_assets": "USDT,TON,BTC,ETH",
		"amount":          strconv.FormatFloat(amountUSD, 'f', 2, 64),
		"description":     description,
		"payload":         payload,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var invoice Invoice
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		raw, err := c.call(ctx, http.MethodPost, "/createInvoice", data)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &invoice)
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetInvoices fetches current status for the given invoice ids.
func (c *Client) GetInvoices(ctx context.Context, ids []string) ([]Invoice, error) {
	q := url.Values{}
	q.Set("invoice_ids", strings.Join(ids, ","))

	var result struct {
		Items []Invoice `json:"items"`
	}
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		raw, err := c.call(ctx, http.MethodGet, "/getInvoices?"+q.Encode(), nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &result)
	})
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (c *Client) call(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Crypto-Pay-API-Token", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.RetryableError(err)
	}
	if resp.StatusCode >= 500 {
		return nil, retry.RetryableError(fmt.Errorf("cryptopay: status %d", resp.StatusCode))
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("cryptopay: bad response: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("cryptopay: API error: %s", string(parsed.Error))
	}
	return parsed.Result, nil
}
