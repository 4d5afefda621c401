package card

import (
	"strings"
	"unicode"
)

// Type is the card brand derived from the leading digit and length of a card number.
type Type int

const (
	Invalid Type = iota
	Visa
	MasterCard
	AmericanExpress
	Diners
	Discover
)

var typeNames = map[Type]string{
	Invalid:         "invalid",
	Visa:            "visa",
	MasterCard:      "mastercard",
	AmericanExpress: "american_express",
	Diners:          "diners",
	Discover:        "discover",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return typeNames[Invalid]
}

// MarshalText lets Type appear as its name in JSON documents.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// SecurityCodeLength returns the CVV length for the brand, 0 when the brand has none.
func (t Type) SecurityCodeLength() int {
	switch t {
	case AmericanExpress:
		return 4
	case Visa, MasterCard, Discover, Diners:
		return 3
	default:
		return 0
	}
}

// Sanitize removes every whitespace rune from a card number.
func Sanitize(number string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, number)
}

// Classify returns the brand of a card number, Invalid when it matches none.
func Classify(number string) Type {
	s := Sanitize(number)
	if s == "" {
		return Invalid
	}

	switch s[0] {
	case '3':
		switch len(s) {
		case 14:
			return Diners
		case 15:
			return AmericanExpress
		}
	case '4':
		if len(s) == 13 || len(s) == 16 {
			return Visa
		}
	case '5':
		if len(s) == 16 {
			return MasterCard
		}
	case '6':
		if len(s) == 16 {
			return Discover
		}
	}
	return Invalid
}
