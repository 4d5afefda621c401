package payeezy

import (
	"strings"

	"github.com/alovak/cardflow-gateway/internal/card"
)

// lookup is a read-only two way mapping between enum values and their wire strings.
// The first wire string listed for a value is the one written back out.
type lookup[T comparable] struct {
	unknown  T
	fold     bool
	toWire   map[T]string
	fromWire map[string]T
}

type pair[T comparable] struct {
	wire  string
	value T
}

func newLookup[T comparable](unknown T, fold bool, pairs ...pair[T]) *lookup[T] {
	l := &lookup[T]{
		unknown:  unknown,
		fold:     fold,
		toWire:   make(map[T]string, len(pairs)),
		fromWire: make(map[string]T, len(pairs)),
	}
	for _, p := range pairs {
		if _, ok := l.toWire[p.value]; !ok {
			l.toWire[p.value] = p.wire
		}
		l.fromWire[l.key(p.wire)] = p.value
	}
	return l
}

func (l *lookup[T]) key(s string) string {
	s = strings.TrimSpace(s)
	if l.fold {
		return strings.ToLower(s)
	}
	return s
}

func (l *lookup[T]) parse(s string) T {
	if v, ok := l.fromWire[l.key(s)]; ok {
		return v
	}
	return l.unknown
}

func (l *lookup[T]) wire(v T) (string, bool) {
	s, ok := l.toWire[v]
	return s, ok
}

func (l *lookup[T]) size() int { return len(l.fromWire) }

// TransactionType is the kind of operation requested from the gateway.
type TransactionType int

const (
	TransactionTypeUnknown TransactionType = iota
	Authorize
	Purchase
	Void
	Capture
	Split
	Refund
)

var transactionTypes = newLookup(TransactionTypeUnknown, true,
	pair[TransactionType]{"authorize", Authorize},
	pair[TransactionType]{"purchase", Purchase},
	pair[TransactionType]{"void", Void},
	pair[TransactionType]{"capture", Capture},
	pair[TransactionType]{"split", Split},
	pair[TransactionType]{"refund", Refund},
)

func ParseTransactionType(s string) TransactionType { return transactionTypes.parse(s) }

func (t TransactionType) String() string {
	if s, ok := transactionTypes.wire(t); ok {
		return s
	}
	return "unknown"
}

func (t TransactionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// MethodType is the payment method carried by a transaction.
type MethodType int

const (
	MethodTypeUnknown MethodType = iota
	MethodCreditCard
	MethodToken
)

var methodTypes = newLookup(MethodTypeUnknown, true,
	pair[MethodType]{"credit_card", MethodCreditCard},
	pair[MethodType]{"token", MethodToken},
)

func ParseMethodType(s string) MethodType { return methodTypes.parse(s) }

func (m MethodType) String() string {
	if s, ok := methodTypes.wire(m); ok {
		return s
	}
	return "unknown"
}

func (m MethodType) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// TransactionStatus is the gateway's verdict; matched case-insensitively.
type TransactionStatus int

const (
	TransactionStatusUnknown TransactionStatus = iota
	Approved
	Declined
	NotProcessed
)

var transactionStatuses = newLookup(TransactionStatusUnknown, true,
	pair[TransactionStatus]{"approved", Approved},
	pair[TransactionStatus]{"declined", Declined},
	pair[TransactionStatus]{"not processed", NotProcessed},
)

func ParseTransactionStatus(s string) TransactionStatus { return transactionStatuses.parse(s) }

func (s TransactionStatus) String() string {
	if w, ok := transactionStatuses.wire(s); ok {
		return w
	}
	return "unknown"
}

func (s TransactionStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// cardTypes lists the brands this gateway accepts and the names it expects for them.
var cardTypes = newLookup(card.Invalid, true,
	pair[card.Type]{"American Express", card.AmericanExpress},
	pair[card.Type]{"Visa", card.Visa},
	pair[card.Type]{"Mastercard", card.MasterCard},
	pair[card.Type]{"Discover", card.Discover},
)

// CardTypeName returns the gateway's name for a brand; false when the gateway does not accept it.
func CardTypeName(t card.Type) (string, bool) { return cardTypes.wire(t) }

// ParseCardType maps a gateway brand name back to a card.Type, card.Invalid when unknown.
func ParseCardType(s string) card.Type { return cardTypes.parse(s) }
