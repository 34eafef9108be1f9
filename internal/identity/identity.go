// Package identity assigns stable identifiers to newly drawn annotations.
package identity

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const (
	ShortIDLength   = 8
	shortIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// 62*4 = 248; bytes at or above it are rejected to keep symbols uniform.
const rejectAbove = byte(len(shortIDAlphabet) * (256 / len(shortIDAlphabet)))

// Assigner generates (id, shortID) pairs from a random source.
// It holds no mutable state, so it is safe for concurrent use whenever its source is.
type Assigner struct {
	source io.Reader
}

func NewAssigner(source io.Reader) *Assigner {
	if source == nil {
		source = rand.Reader
	}
	return &Assigner{source: source}
}

var defaultAssigner = NewAssigner(nil)

// NewIdentity uses the process-wide crypto/rand source.
func NewIdentity() (string, string, error) {
	return defaultAssigner.NewIdentity()
}

func (a *Assigner) NewIdentity() (id string, shortID string, err error) {
	u, err := uuid.NewRandomFromReader(a.source)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate highlight id: %w", err)
	}

	shortID, err = a.newShortID()
	if err != nil {
		return "", "", err
	}

	return u.String(), shortID, nil
}

func (a *Assigner) newShortID() (string, error) {
	out := make([]byte, 0, ShortIDLength)
	buf := make([]byte, ShortIDLength*2)

	for len(out) < ShortIDLength {
		if _, err := io.ReadFull(a.source, buf); err != nil {
			return "", fmt.Errorf("failed to generate short id: %w", err)
		}
		for _, b := range buf {
			if b >= rejectAbove {
				continue
			}
			out = append(out, shortIDAlphabet[int(b)%len(shortIDAlphabet)])
			if len(out) == ShortIDLength {
				break
			}
		}
	}

	return string(out), nil
}

// IsShortID reports whether s has the shape produced by NewIdentity.
func IsShortID(s string) bool {
	if len(s) != ShortIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z') {
			return false
		}
	}
	return true
}
