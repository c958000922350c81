package notification

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer computes webhook payload signatures. The signature is an
// HMAC-SHA256 over the exact request body bytes, hex encoded; any
// re-serialization on the receiving side breaks verification.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer for a shared secret
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the hex HMAC-SHA256 signature of payload
func (s *Signer) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches payload. Comparison is
// constant-time.
func (s *Signer) Verify(payload []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}
