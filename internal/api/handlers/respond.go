package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/rotzhost/rotzcoder/internal/auth"
	"github.com/rotzhost/rotzcoder/internal/keyvault"
	"github.com/rotzhost/rotzcoder/internal/llm"
	"github.com/rotzhost/rotzcoder/internal/research"
	"github.com/rotzhost/rotzcoder/internal/routing"
	"github.com/rotzhost/rotzcoder/internal/user"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError renders the flat error envelope. Anything that maps to a
// 500 gets a generic message; the detail goes to the log only.
func writeError(w http.ResponseWriter, err error) {
	status := errStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// errStatus is the single sentinel-to-status table for the API.
func errStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrTOTPNotEnabled),
		errors.Is(err, keyvault.ErrBadKeyFormat),
		errors.Is(err, keyvault.ErrUnknownProvider),
		errors.Is(err, llm.ErrUnknownProvider),
		errors.Is(err, llm.ErrInvalidAPIKey),
		errors.Is(err, llm.ErrModelNotFound),
		errors.Is(err, routing.ErrBadTaskType),
		errors.Is(err, routing.ErrUnknownProvider),
		errors.Is(err, routing.ErrModelRequired),
		errors.Is(err, research.ErrEmptyPrompt),
		errors.Is(err, research.ErrNoAPIKey),
		errors.Is(err, user.ErrBadRole):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidTOTP),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized

	case errors.Is(err, auth.ErrUserDisabled),
		errors.Is(err, user.ErrSuperAdminImmutable),
		errors.Is(err, user.ErrSelfChange):
		return http.StatusForbidden

	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, keyvault.ErrKeyNotFound),
		errors.Is(err, routing.ErrRouteNotFound),
		errors.Is(err, research.ErrTaskNotFound):
		return http.StatusNotFound

	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrTOTPAlreadyEnabled),
		errors.Is(err, routing.ErrDuplicateRoute):
		return http.StatusConflict

	case errors.Is(err, auth.ErrTooManyAttempts),
		errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests

	case errors.Is(err, llm.ErrUpstream):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// clientIP assumes the RealIP middleware already rewrote RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
