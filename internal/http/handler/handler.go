package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gamexhub/gamex-panel/internal/http/response"
	"github.com/gamexhub/gamex-panel/internal/service"
	"github.com/gamexhub/gamex-panel/internal/validation"
)

// bind decodes the JSON body into dst and validates it. On failure it has
// already written the 400 response and returns false. An empty body decodes
// to the zero value so partial updates can reach the "no fields" check.
func bind(w http.ResponseWriter, r *http.Request, v *validation.Validator, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		response.Error(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := v.Struct(dst); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			response.ValidationErrors(w, r, verrs)
			return false
		}
		slog.ErrorContext(r.Context(), "validate request", "error", err)
		response.InternalError(w, r)
		return false
	}
	return true
}

// writeServiceError maps service sentinels onto statuses. Anything unknown is
// logged and collapsed to a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrAccountNotFound):
		response.Error(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrDuplicateAccount):
		response.Error(w, r, http.StatusBadRequest, "email or username is already in use")
	case errors.Is(err, service.ErrSuperadminExists):
		response.Error(w, r, http.StatusBadRequest, "only one superadmin is allowed")
	case errors.Is(err, service.ErrForbiddenTarget):
		response.Error(w, r, http.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrNoFieldsToUpdate):
		response.Error(w, r, http.StatusBadRequest, "no fields to update")
	case errors.Is(err, service.ErrInvalidRole):
		response.Error(w, r, http.StatusBadRequest, "invalid role, must be 'user' or 'admin'")
	case errors.Is(err, service.ErrLookupKeyRequired):
		response.Error(w, r, http.StatusBadRequest, "user_id or username is required")
	case errors.Is(err, service.ErrResetTokenInvalid), errors.Is(err, service.ErrResetTokenUsed):
		response.Error(w, r, http.StatusBadRequest, "token is invalid or expired")
	case errors.Is(err, service.ErrMailDelivery):
		response.Error(w, r, http.StatusInternalServerError, "failed to send password reset email")
	case errors.Is(err, service.ErrGameNotFound):
		response.Error(w, r, http.StatusNotFound, "game not found")
	case errors.Is(err, service.ErrInvalidImagePath):
		response.Error(w, r, http.StatusBadRequest, "image path must be relative to the upload directory")
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		response.InternalError(w, r)
	}
}

type tokenResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type createdResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}
