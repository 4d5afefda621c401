package card

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is a keyed HMAC-SHA256 of the sanitized number, safe to log and correlate.
func Fingerprint(number string, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(Sanitize(number)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
