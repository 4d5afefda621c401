package payment

import (
	"errors"
	"fmt"
)

// Kind identifies why a payment instrument or gateway call was rejected.
type Kind int

const (
	KindUnknown Kind = iota
	CardNumberMissing
	CardNumberInvalid
	CardTypeNotSupported
	ExpirationMissing
	ExpirationFormat
	ExpirationOutOfRange
	CardExpired
	SecurityCodeMissing
	SecurityCodeFormat
	AmountMissing
	AmountInvalid
	TransportFault
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	CardNumberMissing:    "card_number_missing",
	CardNumberInvalid:    "card_number_invalid",
	CardTypeNotSupported: "card_type_not_supported",
	ExpirationMissing:    "expiration_missing",
	ExpirationFormat:     "expiration_format",
	ExpirationOutOfRange: "expiration_out_of_range",
	CardExpired:          "card_expired",
	SecurityCodeMissing:  "security_code_missing",
	SecurityCodeFormat:   "security_code_format",
	AmountMissing:        "amount_missing",
	AmountInvalid:        "amount_invalid",
	TransportFault:       "transport_fault",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Error is the single error type for validation failures and transport faults.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Faultf builds a TransportFault wrapping the underlying cause.
func Faultf(err error, format string, args ...any) *Error {
	return &Error{Kind: TransportFault, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so callers can compare against the Err* values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrCardNumberMissing    = &Error{Kind: CardNumberMissing}
	ErrCardNumberInvalid    = &Error{Kind: CardNumberInvalid}
	ErrCardTypeNotSupported = &Error{Kind: CardTypeNotSupported}
	ErrExpirationMissing    = &Error{Kind: ExpirationMissing}
	ErrExpirationFormat     = &Error{Kind: ExpirationFormat}
	ErrExpirationOutOfRange = &Error{Kind: ExpirationOutOfRange}
	ErrCardExpired          = &Error{Kind: CardExpired}
	ErrSecurityCodeMissing  = &Error{Kind: SecurityCodeMissing}
	ErrSecurityCodeFormat   = &Error{Kind: SecurityCodeFormat}
	ErrAmountMissing        = &Error{Kind: AmountMissing}
	ErrAmountInvalid        = &Error{Kind: AmountInvalid}
	ErrTransportFault       = &Error{Kind: TransportFault}
)

// KindOf returns the Kind carried by err, KindUnknown when err is not a payment error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsValidation reports whether err is a caller-fixable validation failure.
func IsValidation(err error) bool {
	k := KindOf(err)
	return k != KindUnknown && k != TransportFault
}
