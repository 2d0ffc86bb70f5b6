package otp

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/xlzd/gotp"
)

const (
	DefaultLength = 6

	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generator produces short one-time codes from the [0-9A-Z] alphabet.
type Generator interface {
	RandomCode(length int) string
}

// AlphanumericGenerator draws every character from the full [0-9A-Z] alphabet.
type AlphanumericGenerator struct{}

func NewAlphanumericGenerator() *AlphanumericGenerator {
	return &AlphanumericGenerator{}
}

func (g *AlphanumericGenerator) RandomCode(length int) string {
	if length <= 0 {
		length = DefaultLength
	}

	max := big.NewInt(int64(len(alphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic(err)
		}
		code[i] = alphabet[n.Int64()]
	}

	return string(code)
}

// GOTPGenerator uses gotp base32 secrets, a subset of the same alphabet.
// RandomSecret encodes length random bytes, so its output is always longer
// than length and is cut down to it.
type GOTPGenerator struct{}

func NewGOTPGenerator() *GOTPGenerator {
	return &GOTPGenerator{}
}

func (g *GOTPGenerator) RandomCode(length int) string {
	if length <= 0 {
		length = DefaultLength
	}

	secret := gotp.RandomSecret(length)
	if len(secret) < length {
		// gotp returns "" when it cannot read random bytes
		return NewAlphanumericGenerator().RandomCode(length)
	}
	return secret[:length]
}

// New picks a generator by name, falling back to the alphanumeric one.
func New(kind string) Generator {
	if kind == "gotp" {
		return NewGOTPGenerator()
	}
	return NewAlphanumericGenerator()
}

// ExpiresAt is the moment a code issued at now stops being valid.
func ExpiresAt(now time.Time, ttl time.Duration) time.Time {
	return now.Add(ttl)
}
