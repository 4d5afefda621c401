// Package apiclient calls a running paymentd over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alovak/cardflow-gateway/internal/middleware"
)

type Client struct {
	Base string
	HTTP *http.Client
}

func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

// StatusError is a non-2xx answer from paymentd.
type StatusError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("paymentd status=%d body=%s", e.Status, e.Message)
	}
	return fmt.Sprintf("paymentd status=%d %s: %s", e.Status, e.Code, e.Message)
}

type CardCheck struct {
	CardNumber string `json:"card_number"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	CVV        string `json:"cvv,omitempty"`
}

type CardCheckResult struct {
	CardType         string    `json:"card_type"`
	Expiration       time.Time `json:"expiration"`
	CardFace         string    `json:"card_face"`
	MaskedNumber     string    `json:"masked_number"`
	GatewaySupported bool      `json:"gateway_supported"`
}

type Charge struct {
	CardNumber     string `json:"card_number"`
	ExpMonth       string `json:"exp_month"`
	ExpYear        string `json:"exp_year"`
	CVV            string `json:"cvv"`
	Amount         string `json:"amount"`
	CardholderName string `json:"cardholder_name"`
	MerchantRef    string `json:"merchant_ref,omitempty"`
}

// Transaction is the classified gateway answer as paymentd renders it.
type Transaction struct {
	Approved            bool              `json:"approved"`
	Fields              map[string]string `json:"fields"`
	TransactionStatus   string            `json:"transaction_status"`
	TransactionType     string            `json:"transaction_type"`
	BankResponseCode    string            `json:"bank_response_code"`
	GatewayResponseCode string            `json:"gateway_response_code"`
	HTTPStatus          int               `json:"http_status,omitempty"`
}

func (c *Client) ValidateCard(ctx context.Context, req CardCheck) (CardCheckResult, error) {
	var out CardCheckResult
	err := c.post(ctx, "/cards/validate", "", req, &out)
	return out, err
}

// Transact posts a card transaction. kind is authorize, purchase or refund.
// A non-empty idempotencyKey makes retries replay the first answer.
func (c *Client) Transact(ctx context.Context, kind string, req Charge, idempotencyKey string) (Transaction, error) {
	var out Transaction
	err := c.post(ctx, "/transactions/"+kind, idempotencyKey, req, &out)
	return out, err
}

// Tagged captures, voids or refunds an earlier transaction.
func (c *Client) Tagged(ctx context.Context, kind, transactionID, transactionTag, amount string) (Transaction, error) {
	var out Transaction
	body := map[string]string{"transaction_tag": transactionTag, "amount": amount}
	err := c.post(ctx, "/transactions/"+url.PathEscape(transactionID)+"/"+kind, "", body, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, idempotencyKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode/100 != 2 {
		se := &StatusError{Status: resp.StatusCode}
		if json.Unmarshal(body, se) != nil || se.Code == "" {
			se.Code, se.Message = "", strings.TrimSpace(string(body))
		}
		return se
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
