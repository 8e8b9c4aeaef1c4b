// Package session issues and tracks bearer sessions. A session starts
// unverified after the password check and is promoted once the second
// factor succeeds. Expiry is enforced when a token is validated.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultTTL is the lifetime of a session from issuance.
const DefaultTTL = time.Hour

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// State is the position of a login attempt in the two-step flow.
type State string

const (
	StateNew                State = "NEW"
	StateCredentialsPending State = "CREDENTIALS_PENDING"
	StateOTPPending         State = "OTP_PENDING"
	StateAuthenticated      State = "AUTHENTICATED"
	StateFailed             State = "FAILED"
)

// Session binds an opaque token to a user until ExpiresAt.
type Session struct {
	Token       string    `json:"sessionToken"`
	SubjectID   string    `json:"subjectId"`
	Email       string    `json:"email"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	OTPVerified bool      `json:"otpVerified"`
}

// ValidAt reports whether the session has not expired at now.
func (s Session) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// State reports OTP_PENDING until the second factor is verified.
func (s Session) State() State {
	if s.OTPVerified {
		return StateAuthenticated
	}
	return StateOTPPending
}

// Manager holds sessions in process memory.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
	rand     io.Reader
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRandom overrides the entropy source for tokens.
func WithRandom(r io.Reader) Option {
	return func(m *Manager) { m.rand = r }
}

// NewManager returns a Manager issuing sessions valid for ttl. A non-positive
// ttl selects DefaultTTL.
func NewManager(ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
		rand:     rand.Reader,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates an unverified session for the user.
func (m *Manager) Issue(subjectID, email string) (Session, error) {
	token, err := m.newToken()
	if err != nil {
		return Session{}, err
	}
	now := m.now()
	s := Session{
		Token:     token,
		SubjectID: subjectID,
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()
	return s, nil
}

// Promote marks a valid session as having passed the second factor. Token
// and expiry are unchanged.
func (m *Manager) Promote(token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.validateLocked(token)
	if err != nil {
		return Session{}, err
	}
	s.OTPVerified = true
	m.sessions[token] = s
	return s, nil
}

// Validate returns the session for token if it exists and has not expired.
// Expired sessions stay tracked until Revoke or Sweep so that a later logout
// can still resolve their subject.
func (m *Manager) Validate(token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateLocked(token)
}

func (m *Manager) validateLocked(token string) (Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if !s.ValidAt(m.now()) {
		return Session{}, ErrSessionExpired
	}
	return s, nil
}

// Lookup returns the session for token without checking expiry.
func (m *Manager) Lookup(token string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	return s, ok
}

// Revoke removes the session. Unknown tokens are ignored.
func (m *Manager) Revoke(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Sweep removes expired sessions and returns how many were dropped.
func (m *Manager) Sweep() int {
	return len(m.SweepExpired())
}

// SweepExpired removes expired sessions and returns them.
func (m *Manager) SweepExpired() []Session {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []Session
	for token, s := range m.sessions {
		if !s.ValidAt(now) {
			delete(m.sessions, token)
			expired = append(expired, s)
		}
	}
	return expired
}

// HasVerified reports whether subjectID holds an unexpired session that has
// passed the second factor.
func (m *Manager) HasVerified(subjectID string) bool {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.SubjectID == subjectID && s.OTPVerified && s.ValidAt(now) {
			return true
		}
	}
	return false
}

// Len returns the number of tracked sessions, expired ones included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(m.rand, b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
