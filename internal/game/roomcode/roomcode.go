// Package roomcode generates the short codes players type to find a game.
package roomcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Length of a room code
	Length = 6

	// Charset leaves out look-alikes such as 0/O and 1/I
	Charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxAttempts = 32
)

// ErrExhausted is returned when no free code was drawn
var ErrExhausted = errors.New("no free room code")

// New draws a random code
func New() (string, error) {
	n := big.NewInt(int64(len(Charset)))
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", fmt.Errorf("failed to draw room code: %w", err)
		}
		b.WriteByte(Charset[idx.Int64()])
	}
	return b.String(), nil
}

// Unique draws codes until taken reports one as free
func Unique(taken func(code string) bool) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code, err := New()
		if err != nil {
			return "", err
		}
		if !taken(code) {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Normalize maps user input onto the code alphabet's case
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code could have been produced by New
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(Charset, r) {
			return false
		}
	}
	return true
}
