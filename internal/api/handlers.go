// Package api exposes the auth service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"vibeauth/internal/auth"
	"vibeauth/internal/logging"
	"vibeauth/internal/models"
	"vibeauth/internal/session"
	"vibeauth/internal/totp"
)

const (
	maxBodyBytes  = 1 << 20
	defaultQRSize = 256
)

// Handler serves the auth endpoints on top of an auth.Service.
type Handler struct {
	svc     *auth.Service
	log     logging.Logger
	timeout time.Duration
}

// NewRouter registers the auth endpoints. timeout bounds each request's
// service call; zero disables it.
func NewRouter(svc *auth.Service, log logging.Logger, timeout time.Duration) *mux.Router {
	h := &Handler{svc: svc, log: log, timeout: timeout}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	a := router.PathPrefix("/auth").Subrouter()
	a.HandleFunc("/signup", h.signup).Methods(http.MethodPost)
	a.HandleFunc("/login", h.login).Methods(http.MethodPost)
	a.HandleFunc("/otp", h.verifyOTP).Methods(http.MethodPost)
	a.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	a.HandleFunc("/qr", h.qr).Methods(http.MethodPost)
	a.Handle("/me", h.requireSession(http.HandlerFunc(h.me))).Methods(http.MethodGet)
	return router
}

func (h *Handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, auth.KindInvalidPayload, "Invalid request payload")
		return false
	}
	return true
}

// logFailure records unexpected errors; expected outcomes such as a wrong
// password are logged by the service.
func (h *Handler) logFailure(ctx context.Context, op string, err error) {
	if auth.Kind(err) == auth.KindStorageError {
		h.log.Error(ctx, op+" failed", "error", err)
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"displayName"`
		Email       string `json:"email"`
		Password    string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, auth.KindInvalidPayload, "Missing fields")
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	res, err := h.svc.Signup(ctx, req.DisplayName, req.Email, req.Password)
	if err != nil {
		h.logFailure(ctx, "signup", err)
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type sessionResponse struct {
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	OTPVerified  bool      `json:"otpVerified"`
}

func newSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
		OTPVerified:  s.OTPVerified,
	}
}

type otpResponse struct {
	User models.PublicUser `json:"user"`
	sessionResponse
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, auth.KindInvalidPayload, "Missing fields")
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	sess, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logFailure(ctx, "login", err)
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		SessionToken string `json:"sessionToken"`
		Code         string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Code == "" || (req.Email == "" && req.SessionToken == "") {
		writeJSONError(w, http.StatusBadRequest, auth.KindInvalidPayload, "Missing fields")
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	res, err := h.svc.VerifyOTP(ctx, auth.OTPRequest{
		Email:        req.Email,
		SessionToken: req.SessionToken,
		Code:         req.Code,
	})
	if err != nil {
		h.logFailure(ctx, "otp verification", err)
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, otpResponse{
		User:            res.User,
		sessionResponse: newSessionResponse(res.Session),
	})
}

// logout always answers 200; a failed store update is only logged.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionToken string `json:"sessionToken"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	_ = json.NewDecoder(r.Body).Decode(&req)
	token := req.SessionToken
	if token == "" {
		token = bearerToken(r)
	}

	if token != "" {
		ctx, cancel := h.context(r)
		defer cancel()
		if err := h.svc.Logout(ctx, token); err != nil {
			h.log.Warn(ctx, "logout store update failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		writeAuthError(w, session.ErrSessionNotFound)
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()
	user, err := h.svc.CurrentUser(ctx, sess.Token)
	if err != nil {
		h.logFailure(ctx, "current user", err)
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// qr renders a provisioning URI. The URI carries the TOTP secret, so it is
// read from the body and never from the request line.
func (h *Handler) qr(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URI  string `json:"uri"`
		Size int    `json:"size"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.URI == "" {
		writeJSONError(w, http.StatusBadRequest, auth.KindInvalidPayload, "Missing uri")
		return
	}
	size := req.Size
	if size == 0 {
		size = defaultQRSize
	}
	if size < 64 || size > 1024 {
		writeJSONError(w, http.StatusBadRequest, auth.KindInvalidPayload, "size must be between 64 and 1024")
		return
	}
	png, err := totp.QRCode(req.URI, size)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, auth.KindInvalidPayload, "Invalid provisioning uri")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
