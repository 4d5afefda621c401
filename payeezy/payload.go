package payeezy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alovak/cardflow-gateway/internal/card"
	"github.com/alovak/cardflow-gateway/internal/expiry"
	"github.com/alovak/cardflow-gateway/internal/payment"
)

// DefaultCurrency is used when a request does not name one.
const DefaultCurrency = "USD"

// Field is one key of a Payload. Value is a string, a bool or a nested Payload.
type Field struct {
	Key   string
	Value any
}

// Payload is an ordered key/value document. It encodes to a JSON object with
// keys in insertion order, which keeps the signed body stable.
type Payload []Field

func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		switch v := f.Value.(type) {
		case string, bool, Payload:
			val, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encoding %s: %w", f.Key, err)
			}
			buf.Write(val)
		default:
			return nil, fmt.Errorf("encoding %s: unsupported value %T", f.Key, f.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value stored under key.
func (p Payload) Get(key string) (any, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys lists the top level keys in order.
func (p Payload) Keys() []string {
	keys := make([]string, len(p))
	for i, f := range p {
		keys[i] = f.Key
	}
	return keys
}

// CardPayloadParams carries already validated card data for BuildCardPayload.
type CardPayloadParams struct {
	Type           TransactionType
	CardType       card.Type
	CardholderName string
	Number         string
	Expiration     time.Time
	CVV            string
	AmountCents    string
	Currency       string
	MerchantRef    string
}

// BuildCardPayload builds the body of an authorize, purchase or refund by card.
func BuildCardPayload(p CardPayloadParams) (Payload, error) {
	brand, ok := CardTypeName(p.CardType)
	if !ok {
		return nil, &payment.Error{Kind: payment.CardTypeNotSupported, Message: fmt.Sprintf("card type %s is not supported", p.CardType)}
	}

	payload := Payload{
		{"merchant_ref", p.MerchantRef},
		{"transaction_type", p.Type.String()},
		{"method", MethodCreditCard.String()},
		{"amount", p.AmountCents},
	}
	if p.Type == Purchase {
		payload = append(payload, Field{"partial_redemption", false})
	}
	payload = append(payload,
		Field{"currency_code", currencyOrDefault(p.Currency)},
		Field{"credit_card", Payload{
			{"type", brand},
			{"cardholder_name", p.CardholderName},
			{"card_number", p.Number},
			{"exp_date", expiry.MMYY(p.Expiration)},
			{"cvv", p.CVV},
		}},
	)
	return payload, nil
}

// TaggedPayloadParams references an earlier transaction by its tag.
type TaggedPayloadParams struct {
	Type           TransactionType
	TransactionTag string
	AmountCents    string
	Currency       string
	MerchantRef    string
}

// BuildTaggedPayload builds the body of a void, capture or refund against a prior transaction.
func BuildTaggedPayload(p TaggedPayloadParams) Payload {
	return Payload{
		{"merchant_ref", p.MerchantRef},
		{"transaction_tag", p.TransactionTag},
		{"transaction_type", p.Type.String()},
		{"method", MethodCreditCard.String()},
		{"amount", p.AmountCents},
		{"currency_code", currencyOrDefault(p.Currency)},
	}
}

// TokenPayloadParams carries a tokenized card for BuildTokenPayload.
type TokenPayloadParams struct {
	CardType       card.Type
	Token          string
	CardholderName string
	Expiration     time.Time
	AmountCents    string
	Currency       string
	MerchantRef    string
}

// BuildTokenPayload builds a purchase paid with a previously issued FDToken.
func BuildTokenPayload(p TokenPayloadParams) (Payload, error) {
	brand, ok := CardTypeName(p.CardType)
	if !ok {
		return nil, &payment.Error{Kind: payment.CardTypeNotSupported, Message: fmt.Sprintf("card type %s is not supported", p.CardType)}
	}

	return Payload{
		{"merchant_ref", p.MerchantRef},
		{"transaction_type", Purchase.String()},
		{"method", MethodToken.String()},
		{"amount", p.AmountCents},
		{"currency_code", currencyOrDefault(p.Currency)},
		{"token", Payload{
			{"token_type", "FDToken"},
			{"token_data", Payload{
				{"type", brand},
				{"value", p.Token},
				{"cardholder_name", p.CardholderName},
				{"exp_date", expiry.MMYY(p.Expiration)},
			}},
		}},
	}, nil
}

func currencyOrDefault(c string) string {
	if c == "" {
		return DefaultCurrency
	}
	return c
}
