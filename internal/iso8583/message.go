package iso8583

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moov-io/iso8583"

	"github.com/alovak/cardflow-gateway/internal/expiry"
	"github.com/alovak/cardflow-gateway/internal/payment"
)

const (
	MTIAuthorizationRequest  = "0100"
	MTIAuthorizationResponse = "0110"

	processingCodePurchase = "000000"
)

// ResponseCode is the classified value of field 39.
type ResponseCode int

const (
	ResponseCodeUnknown ResponseCode = iota
	Approved
	ReferToIssuer
	InvalidMerchant
	PickUpCard
	DoNotHonor
	InvalidTransaction
	InvalidAmount
	InvalidCard
	FormatError
	InsufficientFunds
	ExpiredCard
	TransactionNotPermitted
	ExceedsWithdrawalLimit
	IssuerUnavailable
	SystemMalfunction
)

var responseCodes = map[string]ResponseCode{
	"00": Approved,
	"01": ReferToIssuer,
	"03": InvalidMerchant,
	"04": PickUpCard,
	"05": DoNotHonor,
	"12": InvalidTransaction,
	"13": InvalidAmount,
	"14": InvalidCard,
	"30": FormatError,
	"51": InsufficientFunds,
	"54": ExpiredCard,
	"57": TransactionNotPermitted,
	"61": ExceedsWithdrawalLimit,
	"91": IssuerUnavailable,
	"96": SystemMalfunction,
}

var responseCodeNames = map[ResponseCode]string{
	ResponseCodeUnknown:     "unknown",
	Approved:                "approved",
	ReferToIssuer:           "refer_to_issuer",
	InvalidMerchant:         "invalid_merchant",
	PickUpCard:              "pick_up_card",
	DoNotHonor:              "do_not_honor",
	InvalidTransaction:      "invalid_transaction",
	InvalidAmount:           "invalid_amount",
	InvalidCard:             "invalid_card",
	FormatError:             "format_error",
	InsufficientFunds:       "insufficient_funds",
	ExpiredCard:             "expired_card",
	TransactionNotPermitted: "transaction_not_permitted",
	ExceedsWithdrawalLimit:  "exceeds_withdrawal_limit",
	IssuerUnavailable:       "issuer_unavailable",
	SystemMalfunction:       "system_malfunction",
}

// ParseResponseCode classifies a raw field 39 value; unknown codes are not an error.
func ParseResponseCode(code string) ResponseCode {
	if c, ok := responseCodes[strings.TrimSpace(code)]; ok {
		return c
	}
	return ResponseCodeUnknown
}

// Code returns the field 39 value for c, "" for ResponseCodeUnknown.
func (c ResponseCode) Code() string {
	for k, v := range responseCodes {
		if v == c {
			return k
		}
	}
	return ""
}

func (c ResponseCode) String() string {
	if s, ok := responseCodeNames[c]; ok {
		return s
	}
	return "unknown"
}

func (c ResponseCode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// AuthorizationRequest is everything a 0100 message carries.
type AuthorizationRequest struct {
	Card        payment.Details
	AmountCents int64
	// Currency is the ISO 4217 numeric code, 840 when empty.
	Currency   string
	STAN       string
	RRN        string
	TerminalID string
	MerchantID string
	Time       time.Time
}

// AuthorizationResult is the classified 0110 reply.
type AuthorizationResult struct {
	ResponseCode ResponseCode `json:"response_code"`
	RawCode      string       `json:"raw_code"`
	STAN         string       `json:"stan"`
	RRN          string       `json:"rrn"`
}

func (r AuthorizationResult) Approved() bool { return r.ResponseCode == Approved }

// NewAuthorizationMessage builds a 0100 message from a validated card.
func NewAuthorizationMessage(req AuthorizationRequest) (*iso8583.Message, error) {
	if req.AmountCents < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	currency := req.Currency
	if currency == "" {
		currency = "840"
	}

	msg := iso8583.NewMessage(Spec)
	msg.MTI(MTIAuthorizationRequest)

	values := map[int]string{
		2:  req.Card.Number,
		3:  processingCodePurchase,
		4:  strconv.FormatInt(req.AmountCents, 10),
		7:  req.Time.UTC().Format("0102150405"),
		11: req.STAN,
		14: expiry.YYMM(req.Card.Expiration),
		37: req.RRN,
		41: fixedWidth(req.TerminalID, 8),
		42: fixedWidth(req.MerchantID, 15),
		49: currency,
	}
	for id, v := range values {
		if err := msg.Field(id, v); err != nil {
			return nil, fmt.Errorf("setting field %d: %w", id, err)
		}
	}
	return msg, nil
}

// ParseAuthorizationResponse reads field 39 and the echoed trace fields of a 0110.
func ParseAuthorizationResponse(msg *iso8583.Message) (AuthorizationResult, error) {
	mti, err := msg.GetMTI()
	if err != nil {
		return AuthorizationResult{}, fmt.Errorf("getting mti: %w", err)
	}
	if mti != MTIAuthorizationResponse {
		return AuthorizationResult{}, fmt.Errorf("unexpected mti %s", mti)
	}
	code, err := msg.GetString(39)
	if err != nil {
		return AuthorizationResult{}, fmt.Errorf("getting response code: %w", err)
	}
	stan, _ := msg.GetString(11)
	rrn, _ := msg.GetString(37)

	return AuthorizationResult{
		ResponseCode: ParseResponseCode(code),
		RawCode:      code,
		STAN:         stan,
		RRN:          rrn,
	}, nil
}

// fixedWidth pads with spaces or truncates to n characters.
func fixedWidth(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}
