package payeezy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Wire field names of a gateway response.
const (
	FieldMethod              = "method"
	FieldAmount              = "amount"
	FieldCurrency            = "currency"
	FieldTransactionStatus   = "transaction_status"
	FieldStatus              = "status"
	FieldValidationStatus    = "validation_status"
	FieldTransactionType     = "transaction_type"
	FieldTransactionID       = "transaction_id"
	FieldTransactionTag      = "transaction_tag"
	FieldBankResponseCode    = "bank_resp_code"
	FieldBankMessage         = "bank_message"
	FieldGatewayResponseCode = "gateway_resp_code"
	FieldGatewayMessage      = "gateway_message"
	FieldCorrelationID       = "correlation_id"
)

// ErrorMessage is one entry of the gateway's Error.messages list.
type ErrorMessage struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Response is a classified gateway reply. Fields keeps every raw string as received.
type Response struct {
	Fields              map[string]string   `json:"fields"`
	Method              MethodType          `json:"method"`
	TransactionStatus   TransactionStatus   `json:"transaction_status"`
	TransactionType     TransactionType     `json:"transaction_type"`
	BankResponseCode    BankResponseCode    `json:"bank_response_code"`
	GatewayResponseCode GatewayResponseCode `json:"gateway_response_code"`
	ErrorMessages       []ErrorMessage      `json:"error_messages"`
	HTTPStatus          int                 `json:"http_status,omitempty"`
}

// scalar accepts any JSON scalar and keeps its text; null decodes to "".
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = ""
	case b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = scalar(str)
	case b[0] == '{' || b[0] == '[':
		return fmt.Errorf("expected scalar, got %s", b[:1])
	default:
		*s = scalar(b)
	}
	return nil
}

type wireResponse struct {
	Method              scalar `json:"method"`
	Amount              scalar `json:"amount"`
	Currency            scalar `json:"currency"`
	TransactionStatus   scalar `json:"transaction_status"`
	Status              scalar `json:"status"`
	ValidationStatus    scalar `json:"validation_status"`
	TransactionType     scalar `json:"transaction_type"`
	TransactionID       scalar `json:"transaction_id"`
	TransactionTag      scalar `json:"transaction_tag"`
	BankResponseCode    scalar `json:"bank_resp_code"`
	BankMessage         scalar `json:"bank_message"`
	GatewayResponseCode scalar `json:"gateway_resp_code"`
	GatewayMessage      scalar `json:"gateway_message"`
	CorrelationID       scalar `json:"correlation_id"`
	Error               *struct {
		Messages []struct {
			Code        scalar `json:"code"`
			Description scalar `json:"description"`
		} `json:"messages"`
	} `json:"Error"`
}

func (w *wireResponse) fields() map[string]string {
	fields := make(map[string]string)
	for name, v := range map[string]scalar{
		FieldMethod:              w.Method,
		FieldAmount:              w.Amount,
		FieldCurrency:            w.Currency,
		FieldTransactionStatus:   w.TransactionStatus,
		FieldStatus:              w.Status,
		FieldValidationStatus:    w.ValidationStatus,
		FieldTransactionType:     w.TransactionType,
		FieldTransactionID:       w.TransactionID,
		FieldTransactionTag:      w.TransactionTag,
		FieldBankResponseCode:    w.BankResponseCode,
		FieldBankMessage:         w.BankMessage,
		FieldGatewayResponseCode: w.GatewayResponseCode,
		FieldGatewayMessage:      w.GatewayMessage,
		FieldCorrelationID:       w.CorrelationID,
	} {
		if v != "" {
			fields[name] = string(v)
		}
	}
	return fields
}

// ParseResponse decodes a gateway JSON body. Every field is optional.
func ParseResponse(body []byte) (*Response, error) {
	var w wireResponse
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("decoding gateway response: %w", err)
	}

	var messages []ErrorMessage
	if w.Error != nil {
		for _, m := range w.Error.Messages {
			messages = append(messages, ErrorMessage{Code: string(m.Code), Description: string(m.Description)})
		}
	}

	return Classify(w.fields(), messages), nil
}

// Classify resolves the raw fields against the static code tables. Values not
// found in a table classify as that table's Unknown. Classifying the Fields and
// ErrorMessages of a Response again yields an equal Response.
func Classify(fields map[string]string, messages []ErrorMessage) *Response {
	raw := make(map[string]string, len(fields))
	for k, v := range fields {
		raw[k] = v
	}
	msgs := make([]ErrorMessage, len(messages))
	copy(msgs, messages)

	return &Response{
		Fields:              raw,
		Method:              ParseMethodType(raw[FieldMethod]),
		TransactionStatus:   ParseTransactionStatus(raw[FieldTransactionStatus]),
		TransactionType:     ParseTransactionType(raw[FieldTransactionType]),
		BankResponseCode:    ParseBankResponseCode(raw[FieldBankResponseCode]),
		GatewayResponseCode: ParseGatewayResponseCode(raw[FieldGatewayResponseCode]),
		ErrorMessages:       msgs,
	}
}

// Field returns a raw response field, "" when absent.
func (r *Response) Field(name string) string { return r.Fields[name] }

func (r *Response) TransactionID() string  { return r.Fields[FieldTransactionID] }
func (r *Response) TransactionTag() string { return r.Fields[FieldTransactionTag] }
func (r *Response) Amount() string         { return r.Fields[FieldAmount] }
func (r *Response) Currency() string       { return r.Fields[FieldCurrency] }
func (r *Response) BankMessage() string    { return r.Fields[FieldBankMessage] }
func (r *Response) GatewayMessage() string { return r.Fields[FieldGatewayMessage] }
func (r *Response) CorrelationID() string  { return r.Fields[FieldCorrelationID] }

// Approved reports an approved status from both the gateway and the bank.
func (r *Response) Approved() bool {
	return r.TransactionStatus == Approved && r.GatewayResponseCode == TransactionNormal &&
		BankBandOf(r.Fields[FieldBankResponseCode]) == BankBandApproved
}

// BankBand is the band of the raw bank code, so codes missing from the table still group.
func (r *Response) BankBand() BankBand { return BankBandOf(r.Fields[FieldBankResponseCode]) }

func (r *Response) GatewayBand() GatewayBand { return r.GatewayResponseCode.Band() }

// Err summarizes the error messages, nil when there are none.
func (r *Response) Err() error {
	if len(r.ErrorMessages) == 0 {
		return nil
	}
	parts := make([]string, len(r.ErrorMessages))
	for i, m := range r.ErrorMessages {
		parts[i] = m.Code + ": " + m.Description
	}
	return fmt.Errorf("gateway error: %s", strings.Join(parts, "; "))
}
