package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var ErrCookieSignature = errors.New("cookie signature mismatch")

// CookieSigner appends an HMAC-SHA256 signature to cookie values as value.signature.
type CookieSigner struct {
	secret []byte
}

func NewCookieSigner(secret string) *CookieSigner {
	return &CookieSigner{secret: []byte(secret)}
}

func (s *CookieSigner) Sign(value string) string {
	return value + "." + s.signature(value)
}

// Unsign returns the original value when the signature verifies.
func (s *CookieSigner) Unsign(signed string) (string, error) {
	idx := strings.LastIndex(signed, ".")
	if idx <= 0 {
		return "", ErrCookieSignature
	}

	value, sig := signed[:idx], signed[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(s.signature(value))) {
		return "", ErrCookieSignature
	}

	return value, nil
}

func (s *CookieSigner) signature(value string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(value))
	return base64.RawStdEncoding.EncodeToString(mac.Sum(nil))
}
