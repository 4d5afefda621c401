// Package micr reads the routing, account and check numbers from a check's MICR line.
package micr

import (
	"errors"
	"fmt"
)

const (
	fieldSeparator = '<'
	rejectSymbol   = '?'
)

var (
	// ErrRejectSymbol means the reader could not recognise a character on the line.
	ErrRejectSymbol = errors.New("micr reject symbol")
	// ErrUnterminatedTransit means a transit field was opened and never closed.
	ErrUnterminatedTransit = errors.New("micr transit field not terminated")
)

// Check holds the numbers printed on a check's MICR line.
type Check struct {
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	CheckNumber   string `json:"check_number"`
}

func isTransit(c byte) bool { return c == 'T' || c == 't' }

func isOnUs(c byte) bool { return c == 'O' || c == 'o' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isMicrCharacter(c byte) bool {
	return isDigit(c) || isTransit(c) || isOnUs(c)
}

// ParseCheck scans buf from offset up to a field separator or the end of the buffer.
// It returns the offset just past where scanning stopped.
func ParseCheck(buf []byte, offset int) (int, Check, error) {
	var chk Check
	if offset < 0 || offset > len(buf) {
		return offset, chk, fmt.Errorf("offset %d outside buffer of %d bytes", offset, len(buf))
	}

	cur := offset
	for cur < len(buf) {
		c := buf[cur]
		switch {
		case c == rejectSymbol:
			return cur, chk, fmt.Errorf("at offset %d: %w", cur, ErrRejectSymbol)
		case c == fieldSeparator:
			return cur + 1, chk, nil
		case !isMicrCharacter(c):
			cur++
		case isTransit(c):
			next, digits, err := scanSpan(buf, cur+1, isTransit)
			if err != nil {
				return next, chk, err
			}
			if next >= len(buf) || !isTransit(buf[next]) {
				return next, chk, fmt.Errorf("at offset %d: %w", cur, ErrUnterminatedTransit)
			}
			chk.RoutingNumber = digits
			cur = next + 1
		case isOnUs(c):
			next, digits, err := scanSpan(buf, cur+1, endsOnUs)
			if err != nil {
				return next, chk, err
			}
			chk.CheckNumber = digits
			cur = next
			if cur < len(buf) && isOnUs(buf[cur]) {
				cur++
			}
		default:
			next, digits, err := scanSpan(buf, cur, endsAccount)
			if err != nil {
				return next, chk, err
			}
			chk.AccountNumber += digits
			cur = next
		}
	}
	return cur, chk, nil
}

func endsOnUs(c byte) bool { return isOnUs(c) || c == fieldSeparator }

func endsAccount(c byte) bool { return isOnUs(c) || isTransit(c) || c == fieldSeparator }

// scanSpan collects digits from start until stop matches, skipping unreadable noise.
// The returned offset points at the stopping byte, or len(buf).
func scanSpan(buf []byte, start int, stop func(byte) bool) (int, string, error) {
	digits := make([]byte, 0, 16)
	cur := start
	for ; cur < len(buf); cur++ {
		c := buf[cur]
		if c == rejectSymbol {
			return cur, "", fmt.Errorf("at offset %d: %w", cur, ErrRejectSymbol)
		}
		if stop(c) {
			break
		}
		if isDigit(c) {
			digits = append(digits, c)
		}
	}
	return cur, string(digits), nil
}

// IsValidRoutingNumber checks the ABA weighted checksum of a nine digit routing number.
func IsValidRoutingNumber(routing string) bool {
	if len(routing) != 9 {
		return false
	}
	checksum := 0
	for i := 0; i < len(routing); i += 3 {
		for j, w := range [3]int{3, 7, 1} {
			c := routing[i+j]
			if !isDigit(c) {
				return false
			}
			checksum += int(c-'0') * w
		}
	}
	return checksum != 0 && checksum%10 == 0
}
