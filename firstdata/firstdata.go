// Package firstdata talks to the legacy First Data Global Gateway e4 (GGE4)
// XML web service. Results are classified with the same code tables as payeezy.
package firstdata

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"github.com/alovak/cardflow-gateway/internal/card"
	"github.com/alovak/cardflow-gateway/internal/expiry"
	"github.com/alovak/cardflow-gateway/internal/payment"
	"github.com/alovak/cardflow-gateway/internal/security"
	"github.com/alovak/cardflow-gateway/payeezy"
)

const (
	contentType = "application/xml"
	resource    = "/transaction/v19"
	timeLayout  = "2006-01-02T15:04:05Z"
)

// TransactionType is the GGE4 Transaction_Type code.
type TransactionType string

const (
	Purchase                         TransactionType = "00"
	PreAuthorization                 TransactionType = "01"
	PreAuthorizationCompletion       TransactionType = "02"
	ForcedPost                       TransactionType = "03"
	Refund                           TransactionType = "04"
	PreAuthorizationOnly             TransactionType = "05"
	PayPalOrder                      TransactionType = "07"
	Void                             TransactionType = "13"
	TaggedPreAuthorizationCompletion TransactionType = "32"
	TaggedVoid                       TransactionType = "33"
	TaggedRefund                     TransactionType = "34"
	CashOut                          TransactionType = "83"
	Activation                       TransactionType = "85"
	BalanceInquiry                   TransactionType = "86"
	Reload                           TransactionType = "88"
	Deactivation                     TransactionType = "89"
)

var ErrTransactionTagRequired = errors.New("transaction tag and authorization number are required")

// Credentials identify a GGE4 terminal.
type Credentials struct {
	ExactID  string
	Password string
	KeyID    string
	HMACKey  string
	URL      string
}

// CredentialsFromSection reads exact_id, password, key_id, hmac_key and url.
// hmac_key may be left empty when the key is held by a WithMAC provider.
func CredentialsFromSection(section map[string]string) (Credentials, error) {
	c := Credentials{
		ExactID:  section["exact_id"],
		Password: section["password"],
		KeyID:    section["key_id"],
		HMACKey:  section["hmac_key"],
		URL:      section["url"],
	}
	if c.ExactID == "" || c.Password == "" || c.KeyID == "" {
		return Credentials{}, fmt.Errorf("firstdata credentials need exact_id, password and key_id")
	}
	if c.URL == "" {
		c.URL = "https://api.demo.globalgatewaye4.firstdata.com"
	}
	return c, nil
}

// Transaction is the GGE4 request document.
type Transaction struct {
	XMLName          xml.Name        `xml:"Transaction"`
	ExactID          string          `xml:"ExactID"`
	Password         string          `xml:"Password"`
	TransactionType  TransactionType `xml:"Transaction_Type"`
	DollarAmount     string          `xml:"DollarAmount"`
	ExpiryDate       string          `xml:"Expiry_Date,omitempty"`
	CardHoldersName  string          `xml:"CardHoldersName,omitempty"`
	CardNumber       string          `xml:"Card_Number,omitempty"`
	VerificationStr2 string          `xml:"VerificationStr2,omitempty"`
	CVDPresenceInd   string          `xml:"CVD_Presence_Ind,omitempty"`
	TransactionTag   string          `xml:"Transaction_Tag,omitempty"`
	AuthorizationNum string          `xml:"Authorization_Num,omitempty"`
	ReferenceNo      string          `xml:"Reference_No,omitempty"`
	CurrencyCode     string          `xml:"Currency_Code,omitempty"`
}

// TransactionResult is the subset of the GGE4 response document that gets classified.
type TransactionResult struct {
	XMLName             xml.Name `xml:"TransactionResult"`
	TransactionApproved string   `xml:"Transaction_Approved"`
	TransactionError    string   `xml:"Transaction_Error"`
	ExactRespCode       string   `xml:"EXact_Resp_Code"`
	ExactMessage        string   `xml:"EXact_Message"`
	BankRespCode        string   `xml:"Bank_Resp_Code"`
	BankMessage         string   `xml:"Bank_Message"`
	TransactionTag      string   `xml:"Transaction_Tag"`
	AuthorizationNum    string   `xml:"Authorization_Num"`
	TransactionType     string   `xml:"Transaction_Type"`
	DollarAmount        string   `xml:"DollarAmount"`
	SequenceNo          string   `xml:"SequenceNo"`
	RetrievalRefNo      string   `xml:"Retrieval_Ref_No"`
	CurrencyCode        string   `xml:"Currency_Code"`
}

// CardRequest is a purchase or pre-authorization by card.
type CardRequest struct {
	CardNumber     string
	ExpMonth       string
	ExpYear        string
	CVV            string
	Amount         string
	CardholderName string
	ReferenceNo    string
}

// TaggedRequest references an earlier transaction by tag and authorization number.
type TaggedRequest struct {
	TransactionTag   string
	AuthorizationNum string
	Amount           string
}

type Client struct {
	creds  Credentials
	mac    security.MACProvider
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithMAC signs with a provider holding the HMAC key, e.g. an HSM, instead of Credentials.HMACKey.
func WithMAC(mac security.MACProvider) Option {
	return func(c *Client) { c.mac = mac }
}

func NewClient(creds Credentials, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		creds:  creds,
		mac:    security.NewHMACSHA1([]byte(creds.HMACKey)),
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With(slog.String("gateway", "firstdata")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Purchase(ctx context.Context, req CardRequest) (*payeezy.Response, error) {
	return c.card(ctx, Purchase, req)
}

func (c *Client) PreAuthorization(ctx context.Context, req CardRequest) (*payeezy.Response, error) {
	return c.card(ctx, PreAuthorization, req)
}

func (c *Client) Complete(ctx context.Context, req TaggedRequest) (*payeezy.Response, error) {
	return c.tagged(ctx, TaggedPreAuthorizationCompletion, req)
}

func (c *Client) Void(ctx context.Context, req TaggedRequest) (*payeezy.Response, error) {
	return c.tagged(ctx, TaggedVoid, req)
}

func (c *Client) Refund(ctx context.Context, req TaggedRequest) (*payeezy.Response, error) {
	return c.tagged(ctx, TaggedRefund, req)
}

func (c *Client) card(ctx context.Context, typ TransactionType, req CardRequest) (*payeezy.Response, error) {
	details, err := payment.ValidateCreditCardAt(req.CardNumber, req.ExpMonth, req.ExpYear, c.now())
	if err != nil {
		return nil, err
	}
	tx := Transaction{
		ExactID:         c.creds.ExactID,
		Password:        c.creds.Password,
		TransactionType: typ,
		ExpiryDate:      expiry.MMYY(details.Expiration),
		CardHoldersName: req.CardholderName,
		CardNumber:      details.Number,
		ReferenceNo:     req.ReferenceNo,
	}
	if strings.TrimSpace(req.CVV) != "" {
		cvv, err := payment.ValidateSecurityCode(details.Type, req.CVV)
		if err != nil {
			return nil, err
		}
		tx.VerificationStr2 = cvv
		tx.CVDPresenceInd = "1"
	}
	if tx.DollarAmount, err = dollarAmount(req.Amount); err != nil {
		return nil, err
	}

	return c.send(ctx, tx, slog.String("card", card.Mask(details.Number)))
}

func (c *Client) tagged(ctx context.Context, typ TransactionType, req TaggedRequest) (*payeezy.Response, error) {
	if strings.TrimSpace(req.TransactionTag) == "" || strings.TrimSpace(req.AuthorizationNum) == "" {
		return nil, ErrTransactionTagRequired
	}
	amount, err := dollarAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, Transaction{
		ExactID:          c.creds.ExactID,
		Password:         c.creds.Password,
		TransactionType:  typ,
		DollarAmount:     amount,
		TransactionTag:   strings.TrimSpace(req.TransactionTag),
		AuthorizationNum: strings.TrimSpace(req.AuthorizationNum),
	}, slog.String("transaction_tag", req.TransactionTag))
}

// dollarAmount normalizes user input to the two decimal form GGE4 expects.
func dollarAmount(s string) (string, error) {
	cents, err := payment.ParseAmount(s)
	if err != nil {
		return "", err
	}
	return payment.FormatCents(cents), nil
}

// ContentDigest is the lowercase hex SHA1 of the body sent as x-gge4-content-sha1.
func ContentDigest(body []byte) string {
	sum := sha1.Sum(body)
	return hex.EncodeToString(sum[:])
}

// Authorization returns the GGE4_API header value for a request body digest and date.
func (c *Client) Authorization(digest, date string) (string, error) {
	mac, err := c.mac.MAC([]byte("POST\n" + contentType + "\n" + digest + "\n" + date + "\n" + resource))
	if err != nil {
		return "", fmt.Errorf("computing gge4 hmac: %w", err)
	}
	return "GGE4_API " + c.creds.KeyID + ":" + base64.StdEncoding.EncodeToString(mac), nil
}

func (c *Client) send(ctx context.Context, tx Transaction, attrs ...any) (*payeezy.Response, error) {
	body, err := xml.MarshalIndent(tx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding transaction: %w", err)
	}

	digest := ContentDigest(body)
	date := c.now().UTC().Format(timeLayout)
	auth, err := c.Authorization(digest, date)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.creds.URL, "/")+resource, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("x-gge4-date", date)
	req.Header.Set("x-gge4-content-sha1", digest)
	req.Header.Set("Authorization", auth)

	logger := c.logger.With(attrs...).With(slog.String("transaction_type", string(tx.TransactionType)))

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("gateway request failed", slog.Any("err", err))
		return nil, payment.Faultf(err, "posting to firstdata")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, payment.Faultf(err, "reading firstdata response")
	}

	var result TransactionResult
	if err := xml.Unmarshal(raw, &result); err != nil {
		// GGE4 answers authentication and format failures with plain text
		logger.Error("undecodable gateway response", slog.Int("status", resp.StatusCode), slog.String("body", strings.TrimSpace(string(raw))))
		return nil, payment.Faultf(err, "firstdata returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	classified := Classify(result)
	classified.HTTPStatus = resp.StatusCode
	logger.Info("gateway transaction",
		slog.Int("status", resp.StatusCode),
		slog.String("exact_resp_code", result.ExactRespCode),
		slog.String("bank_resp_code", result.BankRespCode),
	)
	return classified, nil
}

// Classify maps a GGE4 result onto the payeezy response fields and code tables.
func Classify(r TransactionResult) *payeezy.Response {
	status := "declined"
	if strings.EqualFold(r.TransactionApproved, "true") {
		status = "approved"
	}
	if strings.EqualFold(r.TransactionError, "true") {
		status = "not processed"
	}

	fields := map[string]string{
		payeezy.FieldTransactionStatus:   status,
		payeezy.FieldGatewayResponseCode: r.ExactRespCode,
		payeezy.FieldGatewayMessage:      r.ExactMessage,
		payeezy.FieldBankResponseCode:    r.BankRespCode,
		payeezy.FieldBankMessage:         r.BankMessage,
		payeezy.FieldTransactionTag:      r.TransactionTag,
		payeezy.FieldCurrency:            r.CurrencyCode,
		"authorization_num":              r.AuthorizationNum,
		"retrieval_ref_no":               r.RetrievalRefNo,
		"sequence_no":                    r.SequenceNo,
	}
	if t := transactionTypeName(TransactionType(r.TransactionType)); t != "" {
		fields[payeezy.FieldTransactionType] = t
	}
	if cents, err := payment.ParseAmountToCents(r.DollarAmount); err == nil {
		fields[payeezy.FieldAmount] = cents
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return payeezy.Classify(fields, nil)
}

// transactionTypeName maps GGE4 codes onto the payeezy transaction type names.
func transactionTypeName(t TransactionType) string {
	switch t {
	case Purchase, ForcedPost:
		return payeezy.Purchase.String()
	case PreAuthorization, PreAuthorizationOnly:
		return payeezy.Authorize.String()
	case PreAuthorizationCompletion, TaggedPreAuthorizationCompletion:
		return payeezy.Capture.String()
	case Refund, TaggedRefund:
		return payeezy.Refund.String()
	case Void, TaggedVoid:
		return payeezy.Void.String()
	}
	return ""
}
