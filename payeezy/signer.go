package payeezy

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/alovak/cardflow-gateway/internal/security"
)

// Request headers set by Signer.
const (
	HeaderAPIKey        = "apikey"
	HeaderToken         = "token"
	HeaderNonce         = "nonce"
	HeaderTimestamp     = "timestamp"
	HeaderAuthorization = "Authorization"
)

// Signer adds the HMAC authentication headers the gateway expects on every request.
type Signer struct {
	apiKey string
	token  string
	mac    security.MACProvider
	nonce  func() (uint32, error)
	now    func() time.Time
}

// NewSigner signs with mac, normally security.NewHMACSHA256 over the API secret
// or an HSM-backed provider holding the same key.
func NewSigner(apiKey, token string, mac security.MACProvider) *Signer {
	return &Signer{
		apiKey: apiKey,
		token:  token,
		mac:    mac,
		nonce:  security.Nonce,
		now:    time.Now,
	}
}

// Authorization computes base64(HMAC(apikey + nonce + timestamp + token + body)).
func (s *Signer) Authorization(nonce, timestamp string, body []byte) (string, error) {
	msg := make([]byte, 0, len(s.apiKey)+len(nonce)+len(timestamp)+len(s.token)+len(body))
	msg = append(msg, s.apiKey...)
	msg = append(msg, nonce...)
	msg = append(msg, timestamp...)
	msg = append(msg, s.token...)
	msg = append(msg, body...)

	sum, err := s.mac.MAC(msg)
	if err != nil {
		return "", fmt.Errorf("computing request hmac: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sum), nil
}

// Sign sets the content and authentication headers for body on req.
func (s *Signer) Sign(req *http.Request, body []byte) error {
	n, err := s.nonce()
	if err != nil {
		return err
	}
	nonce := strconv.FormatUint(uint64(n), 10)
	timestamp := strconv.FormatInt(s.now().UnixMilli(), 10)

	auth, err := s.Authorization(nonce, timestamp, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderAPIKey, s.apiKey)
	req.Header.Set(HeaderToken, s.token)
	req.Header.Set(HeaderNonce, nonce)
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderAuthorization, auth)
	return nil
}
