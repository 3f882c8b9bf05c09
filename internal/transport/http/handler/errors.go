package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-api-otp/internal/domain"
)

// Verification outcome codes returned alongside 400 responses.
const (
	codeNotFound = "not_found"
	codeExpired  = "expired"
	codeInvalid  = "invalid"
)

// httpError maps a service error onto a status code and JSON body.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrCodeNotFound):
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Error: "OTP not found or already used", Code: codeNotFound})
	case errors.Is(err, domain.ErrCodeExpired):
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Error: "OTP expired", Code: codeExpired})
	case errors.Is(err, domain.ErrCodeInvalid):
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Error: "invalid OTP", Code: codeInvalid})
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
