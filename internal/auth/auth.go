// Package auth implements signup, two-step login (password, then TOTP) and
// logout on top of a user store and a session manager.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vibeauth/internal/logging"
	"vibeauth/internal/models"
	"vibeauth/internal/password"
	"vibeauth/internal/session"
	"vibeauth/internal/store"
	"vibeauth/internal/totp"
	"vibeauth/internal/util"
)

// DefaultIssuer labels accounts in authenticator apps.
const DefaultIssuer = "SharpCoderVibe"

// Config tunes a Service. Zero values select the package defaults.
type Config struct {
	Issuer string
	// MaxOTPFailures wrong codes lock the email and session for OTPLockout.
	MaxOTPFailures int
	OTPLockout     time.Duration
}

// Service orchestrates the login state machine. Users live in the store and
// sessions in the manager; the service itself only counts failed codes.
type Service struct {
	users    store.UserStore
	sessions *session.Manager
	hasher   *password.Hasher
	otp      *totp.Engine
	cfg      Config
	log      logging.Logger
	now      func() time.Time
	attempts *lockout

	// dummyDigest is compared against when the email is unknown so a miss
	// costs the same as a wrong password.
	dummyDigest string
}

// NewService wires a Service. An empty issuer selects DefaultIssuer.
func NewService(users store.UserStore, sessions *session.Manager, hasher *password.Hasher, engine *totp.Engine, cfg Config, log logging.Logger) *Service {
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	dummy, _ := hasher.Hash(uuid.NewString())
	return &Service{
		users:       users,
		sessions:    sessions,
		hasher:      hasher,
		otp:         engine,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
		attempts:    newLockout(cfg.MaxOTPFailures, cfg.OTPLockout),
		dummyDigest: dummy,
	}
}

// SignupResult is the registered user and the URI to provision the
// authenticator app with.
type SignupResult struct {
	User            models.PublicUser `json:"user"`
	ProvisioningURI string            `json:"provisioningUri"`
}

// OTPRequest identifies the login attempt by session token or, when no
// token is given, by email.
type OTPRequest struct {
	Email        string
	SessionToken string
	Code         string
}

// OTPResult is returned by a successful VerifyOTP.
type OTPResult struct {
	User    models.PublicUser
	Session session.Session
}

// Signup registers a user with a fresh TOTP secret. The returned URI is
// what the client renders as a QR code.
func (s *Service) Signup(ctx context.Context, displayName, email, pw string) (SignupResult, error) {
	if email == "" || pw == "" {
		return SignupResult{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if !util.ValidateEmail(email) {
		return SignupResult{}, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return SignupResult{}, ErrDuplicateEmail
	}
	if !errors.Is(err, store.ErrNotFound) {
		return SignupResult{}, storageErr("find user", err)
	}

	secret, err := s.otp.GenerateSecret(totp.DefaultSecretSize)
	if err != nil {
		return SignupResult{}, err
	}
	digest, err := s.hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return SignupResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return SignupResult{}, err
	}

	user := models.User{
		ID:               uuid.NewString(),
		Email:            email,
		DisplayName:      displayName,
		CredentialDigest: digest,
		TOTPSecret:       secret,
		IsLoggedIn:       false,
		CreatedAt:        s.now().UTC(),
	}

	// Nothing has been written yet, so an aborted request leaves no trace.
	if err := ctx.Err(); err != nil {
		return SignupResult{}, err
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return SignupResult{}, ErrDuplicateEmail
		}
		return SignupResult{}, storageErr("insert user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return SignupResult{
		User:            user.Public(),
		ProvisioningURI: totp.ProvisioningURI(email, s.cfg.Issuer, secret),
	}, nil
}

// Login checks the password and opens a session awaiting the second factor.
func (s *Service) Login(ctx context.Context, email, pw string) (session.Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.Matches(pw, s.dummyDigest)
			return session.Session{}, ErrInvalidCredentials
		}
		return session.Session{}, storageErr("find user", err)
	}
	if !s.hasher.Matches(pw, user.CredentialDigest) {
		s.log.Warn(ctx, "password mismatch", "user_id", user.ID)
		return session.Session{}, ErrInvalidCredentials
	}

	sess, err := s.sessions.Issue(user.ID, user.Email)
	if err != nil {
		return session.Session{}, err
	}
	s.log.Debug(ctx, "password accepted, awaiting otp", "user_id", user.ID)
	return sess, nil
}

// VerifyOTP checks an authenticator code. On success the session is promoted
// and the user is flagged as logged in. Without a session token a new
// session is opened for the email.
func (s *Service) VerifyOTP(ctx context.Context, req OTPRequest) (OTPResult, error) {
	var pending *session.Session
	email := req.Email
	if req.SessionToken != "" {
		sess, err := s.sessions.Validate(req.SessionToken)
		if err != nil {
			return OTPResult{}, err
		}
		pending = &sess
		email = sess.Email
	}
	if email == "" {
		return OTPResult{}, fmt.Errorf("%w: email or session token is required", ErrInvalidInput)
	}

	keys := []string{emailKey(email)}
	if pending != nil {
		keys = append(keys, sessionKey(pending.Token))
	}
	if s.attempts.locked(s.now(), keys...) {
		s.log.Warn(ctx, "otp refused, too many failed attempts")
		return OTPResult{}, ErrInvalidCode
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.attempts.fail(s.now(), keys...)
			return OTPResult{}, ErrInvalidCode
		}
		return OTPResult{}, storageErr("find user", err)
	}
	if pending != nil && pending.SubjectID != user.ID {
		s.attempts.fail(s.now(), keys...)
		return OTPResult{}, ErrInvalidCode
	}
	if !s.otp.VerifyNow(req.Code, user.TOTPSecret) {
		s.attempts.fail(s.now(), keys...)
		s.log.Warn(ctx, "otp mismatch", "user_id", user.ID)
		return OTPResult{}, ErrInvalidCode
	}
	s.attempts.reset(keys...)

	if err := ctx.Err(); err != nil {
		return OTPResult{}, err
	}
	if err := s.users.SetLoggedIn(ctx, user.ID, true); err != nil {
		return OTPResult{}, storageErr("set logged in", err)
	}

	if pending == nil {
		sess, err := s.sessions.Issue(user.ID, user.Email)
		if err != nil {
			return OTPResult{}, err
		}
		pending = &sess
	}
	promoted, err := s.sessions.Promote(pending.Token)
	if err != nil {
		return OTPResult{}, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return OTPResult{User: user.Public(), Session: promoted}, nil
}

// Authenticate returns the session for token if it has cleared the second
// factor.
func (s *Service) Authenticate(ctx context.Context, token string) (session.Session, error) {
	sess, err := s.sessions.Validate(token)
	if err != nil {
		return session.Session{}, err
	}
	if !sess.OTPVerified {
		return session.Session{}, ErrOTPRequired
	}
	return sess, nil
}

// CurrentUser resolves a verified session to its user.
func (s *Service) CurrentUser(ctx context.Context, token string) (models.PublicUser, error) {
	sess, err := s.Authenticate(ctx, token)
	if err != nil {
		return models.PublicUser{}, err
	}
	user, err := s.users.FindByEmail(ctx, sess.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sessions.Revoke(token)
			return models.PublicUser{}, ErrSessionNotFound
		}
		return models.PublicUser{}, storageErr("find user", err)
	}
	return user.Public(), nil
}

// Logout clears the user's login flag and revokes the session. Unknown or
// already revoked tokens are a no-op; expired sessions are still cleared.
// The session is revoked even when the store update fails.
func (s *Service) Logout(ctx context.Context, token string) error {
	sess, ok := s.sessions.Lookup(token)
	if !ok {
		return nil
	}
	defer s.sessions.Revoke(token)

	if err := s.users.SetLoggedIn(ctx, sess.SubjectID, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return storageErr("set logged out", err)
	}
	s.log.Info(ctx, "user logged out", "user_id", sess.SubjectID)
	return nil
}

// SweepSessions drops expired sessions and clears the login flag of users
// left without a verified session. It returns the number of sessions
// removed.
func (s *Service) SweepSessions(ctx context.Context) int {
	expired := s.sessions.SweepExpired()
	cleared := make(map[string]bool)
	for _, sess := range expired {
		if !sess.OTPVerified || cleared[sess.SubjectID] || s.sessions.HasVerified(sess.SubjectID) {
			continue
		}
		cleared[sess.SubjectID] = true
		if err := s.users.SetLoggedIn(ctx, sess.SubjectID, false); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.log.Warn(ctx, "clearing login flag of expired session failed", "user_id", sess.SubjectID, "error", err)
		}
	}
	s.attempts.prune(s.now())
	return len(expired)
}
