package payeezy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/alovak/cardflow-gateway/internal/card"
	"github.com/alovak/cardflow-gateway/internal/payment"
)

var (
	ErrTransactionIDRequired  = errors.New("transaction id is required")
	ErrTransactionTagRequired = errors.New("transaction tag is required")
)

const maxResponseSize = 1 << 20

// CardRequest is a card-present style request: raw card data straight from the caller.
type CardRequest struct {
	CardNumber     string `json:"card_number"`
	ExpMonth       string `json:"exp_month"`
	ExpYear        string `json:"exp_year"`
	CVV            string `json:"cvv"`
	Amount         string `json:"amount"`
	CardholderName string `json:"cardholder_name"`
	MerchantRef    string `json:"merchant_ref,omitempty"`
}

// TaggedRequest acts on an earlier transaction.
type TaggedRequest struct {
	TransactionID  string `json:"-"`
	TransactionTag string `json:"transaction_tag"`
	Amount         string `json:"amount"`
	MerchantRef    string `json:"merchant_ref,omitempty"`
}

// TokenRequest pays with a previously tokenized card.
type TokenRequest struct {
	Token          string `json:"token"`
	CardType       string `json:"card_type"`
	ExpMonth       string `json:"exp_month"`
	ExpYear        string `json:"exp_year"`
	Amount         string `json:"amount"`
	CardholderName string `json:"cardholder_name"`
	MerchantRef    string `json:"merchant_ref,omitempty"`
}

// Gateway sends validated, signed transactions to a Payeezy endpoint.
type Gateway struct {
	url            string
	currency       string
	signer         *Signer
	client         *http.Client
	logger         *slog.Logger
	fingerprintKey []byte
	now            func() time.Time
	newRef         func() string
}

type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option { return func(g *Gateway) { g.client = c } }

func WithLogger(l *slog.Logger) Option { return func(g *Gateway) { g.logger = l } }

func WithCurrency(code string) Option { return func(g *Gateway) { g.currency = code } }

func WithClock(now func() time.Time) Option { return func(g *Gateway) { g.now = now } }

// WithFingerprintKey sets the key used to fingerprint card numbers in logs.
func WithFingerprintKey(key []byte) Option { return func(g *Gateway) { g.fingerprintKey = key } }

func NewGateway(endpoint string, signer *Signer, opts ...Option) *Gateway {
	g := &Gateway{
		url:      strings.TrimRight(endpoint, "/"),
		currency: DefaultCurrency,
		signer:   signer,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default(),
		now:      time.Now,
		newRef:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(slog.String("gateway", "payeezy"))
	return g
}

func (g *Gateway) Authorize(ctx context.Context, req CardRequest) (*Response, error) {
	return g.card(ctx, Authorize, req)
}

func (g *Gateway) Purchase(ctx context.Context, req CardRequest) (*Response, error) {
	return g.card(ctx, Purchase, req)
}

// Refund returns funds to a card without reference to an earlier transaction.
func (g *Gateway) Refund(ctx context.Context, req CardRequest) (*Response, error) {
	return g.card(ctx, Refund, req)
}

func (g *Gateway) RefundByTag(ctx context.Context, req TaggedRequest) (*Response, error) {
	return g.tagged(ctx, Refund, req)
}

func (g *Gateway) Void(ctx context.Context, req TaggedRequest) (*Response, error) {
	return g.tagged(ctx, Void, req)
}

func (g *Gateway) Capture(ctx context.Context, req TaggedRequest) (*Response, error) {
	return g.tagged(ctx, Capture, req)
}

func (g *Gateway) TokenPurchase(ctx context.Context, req TokenRequest) (*Response, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, &payment.Error{Kind: payment.CardNumberMissing, Message: "token is required"}
	}
	exp, err := payment.ValidateExpirationAt(req.ExpMonth, req.ExpYear, g.now())
	if err != nil {
		return nil, err
	}
	cents, err := payment.ParseAmountToCents(req.Amount)
	if err != nil {
		return nil, err
	}

	payload, err := BuildTokenPayload(TokenPayloadParams{
		CardType:       ParseCardType(req.CardType),
		Token:          strings.TrimSpace(req.Token),
		CardholderName: req.CardholderName,
		Expiration:     exp,
		AmountCents:    cents,
		Currency:       g.currency,
		MerchantRef:    g.merchantRef(req.MerchantRef),
	})
	if err != nil {
		return nil, err
	}

	return g.send(ctx, "", payload, slog.String("card_type", req.CardType))
}

func (g *Gateway) card(ctx context.Context, typ TransactionType, req CardRequest) (*Response, error) {
	details, err := payment.ValidateCreditCardAt(req.CardNumber, req.ExpMonth, req.ExpYear, g.now())
	if err != nil {
		return nil, err
	}
	cvv, err := payment.ValidateSecurityCode(details.Type, req.CVV)
	if err != nil {
		return nil, err
	}
	if _, ok := CardTypeName(details.Type); !ok {
		return nil, &payment.Error{Kind: payment.CardTypeNotSupported, Message: fmt.Sprintf("card type %s is not accepted by the gateway", details.Type)}
	}
	cents, err := payment.ParseAmountToCents(req.Amount)
	if err != nil {
		return nil, err
	}

	payload, err := BuildCardPayload(CardPayloadParams{
		Type:           typ,
		CardType:       details.Type,
		CardholderName: req.CardholderName,
		Number:         details.Number,
		Expiration:     details.Expiration,
		CVV:            cvv,
		AmountCents:    cents,
		Currency:       g.currency,
		MerchantRef:    g.merchantRef(req.MerchantRef),
	})
	if err != nil {
		return nil, err
	}

	attrs := []any{
		slog.String("card", card.Mask(details.Number)),
		slog.String("card_type", details.Type.String()),
	}
	if len(g.fingerprintKey) > 0 {
		attrs = append(attrs, slog.String("fingerprint", card.Fingerprint(details.Number, g.fingerprintKey)))
	}
	return g.send(ctx, "", payload, attrs...)
}

func (g *Gateway) tagged(ctx context.Context, typ TransactionType, req TaggedRequest) (*Response, error) {
	if strings.TrimSpace(req.TransactionID) == "" {
		return nil, ErrTransactionIDRequired
	}
	if strings.TrimSpace(req.TransactionTag) == "" {
		return nil, ErrTransactionTagRequired
	}
	cents, err := payment.ParseAmountToCents(req.Amount)
	if err != nil {
		return nil, err
	}

	payload := BuildTaggedPayload(TaggedPayloadParams{
		Type:           typ,
		TransactionTag: strings.TrimSpace(req.TransactionTag),
		AmountCents:    cents,
		Currency:       g.currency,
		MerchantRef:    g.merchantRef(req.MerchantRef),
	})
	return g.send(ctx, strings.TrimSpace(req.TransactionID), payload, slog.String("transaction_id", req.TransactionID))
}

func (g *Gateway) merchantRef(ref string) string {
	if ref = strings.TrimSpace(ref); ref != "" {
		return ref
	}
	return g.newRef()
}

// send posts payload, to {url}/{transactionID} when an id is given. An error
// status that carries a body is still decoded into a Response.
func (g *Gateway) send(ctx context.Context, transactionID string, payload Payload, attrs ...any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	target := g.url
	if transactionID != "" {
		target += "/" + url.PathEscape(transactionID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if err := g.signer.Sign(req, body); err != nil {
		return nil, fmt.Errorf("signing request: %w", err)
	}

	typ, _ := payload.Get("transaction_type")
	logger := g.logger.With(attrs...).With(slog.Any("transaction_type", typ))

	started := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		logger.Error("gateway request failed", slog.Any("err", err))
		return nil, payment.Faultf(err, "posting to gateway")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		logger.Error("reading gateway response", slog.Any("err", err))
		return nil, payment.Faultf(err, "reading gateway response")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		logger.Error("empty gateway response", slog.Int("status", resp.StatusCode))
		return nil, payment.Faultf(nil, "gateway returned status %d with an empty body", resp.StatusCode)
	}

	result, err := ParseResponse(raw)
	if err != nil {
		logger.Error("undecodable gateway response", slog.Int("status", resp.StatusCode), slog.Any("err", err))
		return nil, payment.Faultf(err, "gateway returned status %d", resp.StatusCode)
	}
	result.HTTPStatus = resp.StatusCode

	logger.Info("gateway transaction",
		slog.Int("status", resp.StatusCode),
		slog.String("transaction_status", result.TransactionStatus.String()),
		slog.String("bank_resp_code", result.Field(FieldBankResponseCode)),
		slog.String("gateway_resp_code", result.Field(FieldGatewayResponseCode)),
		slog.String("correlation_id", result.CorrelationID()),
		slog.Duration("took", time.Since(started)),
	)
	return result, nil
}
