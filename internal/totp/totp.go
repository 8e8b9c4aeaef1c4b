// Package totp generates and verifies RFC 6238 time-based one-time passwords
// compatible with standard authenticator apps (SHA1, 6 digits, 30s period).
package totp

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"

	"vibeauth/internal/base32"
)

const (
	// Period is the length of one time step.
	Period = 30 * time.Second
	// Digits is the number of characters in a code.
	Digits = 6
	// DefaultWindow tolerates one step of clock skew in each direction.
	DefaultWindow = 1
	// DefaultSecretSize is the number of random bytes in a new secret.
	DefaultSecretSize = 20
)

// Engine computes and checks codes. The zero value is not usable; call New.
type Engine struct {
	window int
	now    func() time.Time
	rand   io.Reader
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used by CodeNow and VerifyNow.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRandom overrides the entropy source for GenerateSecret.
func WithRandom(r io.Reader) Option {
	return func(e *Engine) { e.rand = r }
}

// WithWindow sets the default verification window in steps.
func WithWindow(steps int) Option {
	return func(e *Engine) { e.window = steps }
}

// New returns an Engine with a ±1 step window, the wall clock and crypto/rand.
func New(opts ...Option) *Engine {
	e := &Engine{
		window: DefaultWindow,
		now:    time.Now,
		rand:   rand.Reader,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func validateOpts(window int) pqtotp.ValidateOpts {
	if window < 0 {
		window = 0
	}
	return pqtotp.ValidateOpts{
		Period:    uint(Period / time.Second),
		Skew:      uint(window),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// canonical re-encodes a secret through the lenient decoder so that stray
// characters and odd lengths never reach the HMAC key parser.
func canonical(secret string) string {
	return base32.Encode(base32.Decode(secret))
}

// GenerateSecret returns n random bytes as base32 text. n <= 0 selects
// DefaultSecretSize.
func (e *Engine) GenerateSecret(n int) (string, error) {
	if n <= 0 {
		n = DefaultSecretSize
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(e.rand, buf); err != nil {
		return "", fmt.Errorf("error generating OTP secret: %w", err)
	}
	return base32.Encode(buf), nil
}

// Code returns the 6-digit code for the time step containing at.
func (e *Engine) Code(secret string, at time.Time) (string, error) {
	code, err := pqtotp.GenerateCodeCustom(canonical(secret), at, validateOpts(0))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP code: %w", err)
	}
	return code, nil
}

// CodeNow returns the code for the engine's current time.
func (e *Engine) CodeNow(secret string) (string, error) {
	return e.Code(secret, e.now())
}

// Verify reports whether code matches any step in [at-window, at+window].
// Malformed codes never match.
func (e *Engine) Verify(code, secret string, at time.Time, window int) bool {
	ok, err := pqtotp.ValidateCustom(code, canonical(secret), at, validateOpts(window))
	return err == nil && ok
}

// VerifyNow checks code at the engine's current time with its default window.
func (e *Engine) VerifyNow(code, secret string) bool {
	return e.Verify(code, secret, e.now(), e.window)
}

// Window returns the default verification window in steps.
func (e *Engine) Window() int {
	return e.window
}
