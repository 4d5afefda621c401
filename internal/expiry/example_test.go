package expiry_test

import (
    "fmt"
    "time"

    "github.com/alovak/cardflow-gateway/internal/expiry"
)

func Example() {
    // fixed date for reproducible output
    now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

    year, _ := expiry.ParseYear("31", now)
    end := expiry.EndOfMonth(year, 1, time.UTC)

    fmt.Println("YYMM:", expiry.YYMM(end))     // ISO 8583 field 14
    fmt.Println("MMYY:", expiry.MMYY(end))     // gateway payloads
    fmt.Println("Face:", expiry.CardFace(end)) // card face
    fmt.Println("Expired:", expiry.IsExpired(end, now))
    // Output:
    // YYMM: 3101
    // MMYY: 0131
    // Face: 01/31
    // Expired: false
}
