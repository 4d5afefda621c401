package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"
)

// MACProvider computes a keyed MAC over a message. The key lives with the provider,
// either in process memory or inside an HSM.
type MACProvider interface {
	MAC(message []byte) ([]byte, error)
}

// SoftwareMAC keeps the key in memory and computes an HMAC with the given hash.
type SoftwareMAC struct {
	newHash func() hash.Hash
	key     []byte
}

func NewHMACSHA256(key []byte) *SoftwareMAC {
	return &SoftwareMAC{newHash: sha256.New, key: key}
}

func NewHMACSHA1(key []byte) *SoftwareMAC {
	return &SoftwareMAC{newHash: sha1.New, key: key}
}

func (p *SoftwareMAC) MAC(message []byte) ([]byte, error) {
	if len(p.key) == 0 {
		return nil, fmt.Errorf("mac key is required")
	}
	h := hmac.New(p.newHash, p.key)
	h.Write(message)
	return h.Sum(nil), nil
}

// Nonce returns a cryptographically random 32-bit value.
func Nonce() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("reading random nonce: %w", err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// Wipe zeroes a key buffer once it is no longer needed.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

var _ MACProvider = (*SoftwareMAC)(nil)
