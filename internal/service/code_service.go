package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// DefaultCodeLength matches the length of generated short codes unless
// configured otherwise.
const DefaultCodeLength = 7

// MaxGenerateAttempts bounds the create-path retry loop on short-code
// collisions. Exhausting it means the code space is effectively full.
const MaxGenerateAttempts = 5

// codeAlphabet is URL-safe with ambiguous characters (0/O, 1/l/I) removed.
const codeAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode draws a cryptographically unpredictable code of length n.
// It does not guarantee uniqueness; the store's unique index does, and
// the create path retries on violation.
func GenerateCode(n int) (string, error) {
	if n <= 0 {
		n = DefaultCodeLength
	}

	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < n; i++ {
		j, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[j.Int64()])
	}
	return b.String(), nil
}
