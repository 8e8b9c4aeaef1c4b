package api

import (
	"encoding/json"
	"net/http"

	"vibeauth/internal/auth"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes {"error": kind, "message": message}.
func writeJSONError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{"error": kind, "message": message})
}

// writeAuthError maps a service error to its status and generic message.
// Internal details never reach the client.
func writeAuthError(w http.ResponseWriter, err error) {
	kind := auth.Kind(err)
	writeJSONError(w, statusFor(kind), kind, messages[kind])
}

var messages = map[string]string{
	auth.KindDuplicateEmail:     "Email already registered",
	auth.KindInvalidCredentials: "Invalid email or password",
	auth.KindInvalidCode:        "Invalid authentication code",
	auth.KindSessionExpired:     "Session expired, please log in again",
	auth.KindSessionNotFound:    "Session not found, please log in again",
	auth.KindOTPRequired:        "Authenticator code required",
	auth.KindInvalidPayload:     "Invalid request payload",
	auth.KindStorageError:       "Request failed, please try again",
}

func statusFor(kind string) int {
	switch kind {
	case auth.KindDuplicateEmail, auth.KindInvalidCredentials, auth.KindInvalidCode, auth.KindInvalidPayload:
		return http.StatusBadRequest
	case auth.KindSessionExpired, auth.KindSessionNotFound, auth.KindOTPRequired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
