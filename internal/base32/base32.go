// Package base32 encodes and decodes TOTP secrets using the RFC 4648 base32
// alphabet without padding.
package base32

import (
	"encoding/base32"
	"errors"
	"strings"
)

// Alphabet is the RFC 4648 base32 symbol set.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// ErrInvalidCharacter is returned by DecodeStrict for input outside the alphabet.
var ErrInvalidCharacter = errors.New("base32: invalid character")

var rawEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Encode packs b into base32 text with no padding characters.
func Encode(b []byte) string {
	return rawEncoding.EncodeToString(b)
}

// Decode is lenient: input is upper-cased, every character outside the
// alphabet is dropped and a trailing partial byte is discarded. It never fails.
func Decode(s string) []byte {
	clean := filter(s)
	// 1, 3 or 6 leftover symbols carry no complete byte.
	switch len(clean) % 8 {
	case 1, 3, 6:
		clean = clean[:len(clean)-1]
	}
	out, err := rawEncoding.DecodeString(clean)
	if err != nil {
		// unreachable for filtered input of a legal length
		return nil
	}
	return out
}

// DecodeStrict decodes s case-insensitively and rejects anything that is not
// an alphabet symbol or trailing '=' padding.
func DecodeStrict(s string) ([]byte, error) {
	upper := strings.ToUpper(strings.TrimRight(s, "="))
	for i := 0; i < len(upper); i++ {
		if strings.IndexByte(Alphabet, upper[i]) < 0 {
			return nil, ErrInvalidCharacter
		}
	}
	return Decode(upper), nil
}

func filter(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if r < 128 && strings.IndexByte(Alphabet, byte(r)) >= 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
