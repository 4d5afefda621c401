package expiry

import (
    "errors"
    "testing"
    "time"
)

func TestFormats_Rollover(t *testing.T) {
    end := EndOfMonth(2030, 12, time.UTC)
    if got := YYMM(end); got != "3012" {
        t.Fatalf("YYMM got %s want %s", got, "3012")
    }
    if got := MMYY(end); got != "1230" {
        t.Fatalf("MMYY got %s want %s", got, "1230")
    }
    if got := CardFace(end); got != "12/30" {
        t.Fatalf("CardFace got %s want %s", got, "12/30")
    }
}

func TestEndOfMonth(t *testing.T) {
    cases := []struct {
        year, month int
        want        time.Time
    }{
        {2030, 2, time.Date(2030, time.February, 28, 23, 59, 59, 0, time.UTC)},
        {2028, 2, time.Date(2028, time.February, 29, 23, 59, 59, 0, time.UTC)},
        {2030, 4, time.Date(2030, time.April, 30, 23, 59, 59, 0, time.UTC)},
        {2030, 12, time.Date(2030, time.December, 31, 23, 59, 59, 0, time.UTC)},
    }
    for _, c := range cases {
        if got := EndOfMonth(c.year, c.month, time.UTC); !got.Equal(c.want) {
            t.Fatalf("EndOfMonth(%d, %d) got %v want %v", c.year, c.month, got, c.want)
        }
    }
}

func TestIsExpired_Boundary(t *testing.T) {
    end := EndOfMonth(2030, 2, time.UTC)
    if IsExpired(end, end) {
        t.Fatalf("expected not expired at end instant")
    }
    if !IsExpired(end, end.Add(time.Second)) {
        t.Fatalf("expected expired one second after end")
    }
    if IsExpired(end, time.Date(2030, time.February, 1, 0, 0, 0, 0, time.UTC)) {
        t.Fatalf("expected not expired early in the month")
    }
}

func TestParseMonth(t *testing.T) {
    for _, s := range []string{"1", "01", " 12 "} {
        if _, err := ParseMonth(s); err != nil {
            t.Fatalf("ParseMonth(%q) unexpected err: %v", s, err)
        }
    }
    for _, s := range []string{"0", "13", "-1"} {
        if _, err := ParseMonth(s); !errors.Is(err, ErrOutOfRange) {
            t.Fatalf("ParseMonth(%q) got %v want ErrOutOfRange", s, err)
        }
    }
    for _, s := range []string{"ab", "1a", "1.5"} {
        if _, err := ParseMonth(s); !errors.Is(err, ErrFormat) {
            t.Fatalf("ParseMonth(%q) got %v want ErrFormat", s, err)
        }
    }
}

func TestParseYear(t *testing.T) {
    now := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
    cases := []struct {
        in   string
        want int
    }{
        {"01", 2001},
        {"26", 2026},
        {"46", 2046},
        {"47", 1947},
        {"99", 1999},
        {"7", 2007},
        {"2031", 2031},
        {"0026", 26},
        {"203", 203},
    }
    for _, c := range cases {
        got, err := ParseYear(c.in, now)
        if err != nil {
            t.Fatalf("ParseYear(%q) err: %v", c.in, err)
        }
        if got != c.want {
            t.Fatalf("ParseYear(%q) got %d want %d", c.in, got, c.want)
        }
    }
    for _, s := range []string{"-50", "abc", "+30", "20x0", ""} {
        if _, err := ParseYear(s, now); !errors.Is(err, ErrFormat) {
            t.Fatalf("ParseYear(%q) got %v want ErrFormat", s, err)
        }
    }
    // numeric input is never a format error, whatever its length
    for _, s := range []string{"20301", "999999999999", "99999999999999999999999"} {
        if _, err := ParseYear(s, now); !errors.Is(err, ErrOutOfRange) {
            t.Fatalf("ParseYear(%q) got %v want ErrOutOfRange", s, err)
        }
    }
}

func TestParseCardFace(t *testing.T) {
    m, y, err := ParseCardFace("04/29")
    if err != nil || m != "04" || y != "29" {
        t.Fatalf("got %q %q %v", m, y, err)
    }
    m, y, err = ParseCardFace("0429")
    if err != nil || m != "04" || y != "29" {
        t.Fatalf("got %q %q %v", m, y, err)
    }
    if _, _, err := ParseCardFace("429"); err == nil {
        t.Fatalf("expected error for short card face")
    }
}
