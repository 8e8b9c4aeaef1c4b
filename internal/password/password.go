// Package password turns plaintext passwords into storable digests and checks
// candidates against them.
//
// Two digest formats are understood. New digests use the configured scheme;
// Matches accepts either format so records written under the legacy scheme
// keep working after the default changes.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the longest password bcrypt can digest, in bytes.
const MaxLength = 72

// ErrTooLong is returned by Hash for passwords bcrypt would truncate.
var ErrTooLong = errors.New("password exceeds 72 bytes")

// Scheme names a digest format.
type Scheme string

const (
	// SchemeBcrypt produces salted bcrypt digests.
	SchemeBcrypt Scheme = "bcrypt"
	// SchemeSHA256 produces the legacy unsalted hex SHA-256 digest.
	SchemeSHA256 Scheme = "sha256"
)

// Hasher hashes and verifies passwords.
type Hasher struct {
	scheme Scheme
	cost   int
}

// New returns a Hasher for scheme. cost is only used by bcrypt; values
// outside bcrypt's range select bcrypt.DefaultCost.
func New(scheme Scheme, cost int) (*Hasher, error) {
	switch scheme {
	case SchemeBcrypt, SchemeSHA256:
	case "":
		scheme = SchemeBcrypt
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{scheme: scheme, cost: cost}, nil
}

// Scheme reports the scheme used for new digests.
func (h *Hasher) Scheme() Scheme {
	return h.scheme
}

// Hash returns a digest of password.
func (h *Hasher) Hash(password string) (string, error) {
	if h.scheme == SchemeSHA256 {
		return LegacyDigest(password), nil
	}
	if len(password) > MaxLength {
		return "", ErrTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(b), nil
}

// Matches reports whether password produces digest.
func (h *Hasher) Matches(password, digest string) bool {
	switch {
	case isBcrypt(digest):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	case IsLegacy(digest):
		want := LegacyDigest(password)
		return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(digest))) == 1
	default:
		return false
	}
}

// LegacyDigest computes the SHA-256 hash of password as lowercase hex.
func LegacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// IsLegacy reports whether digest has the shape of a LegacyDigest.
func IsLegacy(digest string) bool {
	if len(digest) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}
