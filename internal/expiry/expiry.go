package expiry

import (
    "errors"
    "fmt"
    "strconv"
    "strings"
    "time"
)

var (
    defaultLoc = time.Local
    // pivotWindow is how many years ahead of now a two-digit year may land.
    pivotWindow = 20
    maxYear     = 9999
)

var (
    ErrFormat     = errors.New("expiration must be numeric")
    ErrOutOfRange = errors.New("expiration out of range")
)

// SetDefaultExpiryLocation sets the location end-of-month instants are computed in.
func SetDefaultExpiryLocation(loc *time.Location) {
    if loc != nil {
        defaultLoc = loc
    }
}

// Location returns the configured expiry location.
func Location() *time.Location {
    return defaultLoc
}

// ParseMonth parses a 1..12 month. A leading sign is accepted so "-1" is out of range, not malformed.
func ParseMonth(s string) (int, error) {
    m, err := strconv.Atoi(strings.TrimSpace(s))
    if err != nil {
        return 0, fmt.Errorf("month %q: %w", s, ErrFormat)
    }
    if m < 1 || m > 12 {
        return 0, fmt.Errorf("month %d must be 1..12: %w", m, ErrOutOfRange)
    }
    return m, nil
}

// ParseYear parses an unsigned numeric year. One and two digit years are expanded
// relative to now, longer ones are taken literally.
func ParseYear(s string, now time.Time) (int, error) {
    s = strings.TrimSpace(s)
    if s == "" || !isDigits(s) {
        return 0, fmt.Errorf("year %q: %w", s, ErrFormat)
    }
    y, err := strconv.Atoi(s)
    if errors.Is(err, strconv.ErrRange) {
        return 0, fmt.Errorf("year %q: %w", s, ErrOutOfRange)
    }
    if err != nil {
        return 0, fmt.Errorf("year %q: %w", s, ErrFormat)
    }
    switch {
    case len(s) <= 2:
        return ExpandYear(y, now), nil
    case y > maxYear:
        return 0, fmt.Errorf("year %d: %w", y, ErrOutOfRange)
    default:
        return y, nil
    }
}

// ExpandYear maps a two-digit year into the century window ending pivotWindow years after now.
func ExpandYear(yy int, now time.Time) int {
    current := now.Year()
    y := current/100*100 + yy
    if y > current+pivotWindow {
        y -= 100
    } else if y <= current+pivotWindow-100 {
        y += 100
    }
    return y
}

// EndOfMonth returns the last day of the month at 23:59:59 in loc.
func EndOfMonth(year, month int, loc *time.Location) time.Time {
    if loc == nil {
        loc = defaultLoc
    }
    firstNext := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
    return firstNext.Add(-time.Second)
}

// IsExpired reports whether 'at' is strictly after the expiration instant.
func IsExpired(end, at time.Time) bool {
    return at.After(end)
}

// MMYY formats an expiration instant for gateway payloads.
func MMYY(t time.Time) string {
    return fmt.Sprintf("%02d%02d", int(t.Month()), t.Year()%100)
}

// YYMM formats an expiration instant the way ISO 8583 field 14 carries it.
func YYMM(t time.Time) string {
    return fmt.Sprintf("%02d%02d", t.Year()%100, int(t.Month()))
}

// CardFace formats an expiration instant as printed on a card.
func CardFace(t time.Time) string {
    return fmt.Sprintf("%02d/%02d", int(t.Month()), t.Year()%100)
}

// ParseCardFace splits "MM/YY" or "MMYY" into month and year strings without validating them.
func ParseCardFace(in string) (string, string, error) {
    s := strings.TrimSpace(in)
    if i := strings.IndexByte(s, '/'); i >= 0 {
        return s[:i], s[i+1:], nil
    }
    if len(s) != 4 {
        return "", "", fmt.Errorf("card face must be MM/YY or MMYY")
    }
    return s[:2], s[2:], nil
}

func isDigits(s string) bool {
    for i := 0; i < len(s); i++ {
        if s[i] < '0' || s[i] > '9' {
            return false
        }
    }
    return true
}
