package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/http/middleware"
	"github.com/gamexhub/gamex-panel/internal/http/response"
	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/service"
	"github.com/gamexhub/gamex-panel/internal/validation"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"min=6,hasdigit,hasletter,hasupper"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

type profileUpdateRequest struct {
	Username *string `json:"username" validate:"omitempty,notblank"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"notblank"`
	NewPassword string `json:"newPassword" validate:"min=6,hasdigit,hasletter,hasupper"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"min=6,hasdigit,hasupper"`
}

// AuthHandler serves the end-user surface under /api.
type AuthHandler struct {
	auth           service.AuthServiceInterface
	accounts       service.AccountServiceInterface
	resets         service.PasswordResetServiceInterface
	validator      *validation.Validator
	concealUnknown bool
}

func NewAuthHandler(auth service.AuthServiceInterface, accounts service.AccountServiceInterface, resets service.PasswordResetServiceInterface, v *validation.Validator, concealUnknown bool) *AuthHandler {
	return &AuthHandler{auth: auth, accounts: accounts, resets: resets, validator: v, concealUnknown: concealUnknown}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	account, err := h.auth.Register(r.Context(), domain.RoleUser, service.RegisterInput{Email: req.Email, Username: req.Username, Password: req.Password})
	if err != nil {
		observability.Audit(r, "user.register", "failure", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.register", "success", "user_id", account.UserID)
	response.JSON(w, r, http.StatusCreated, createdResponse{Message: "registration successful", UserID: account.UserID})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		observability.Audit(r, "user.login", "failure")
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.login", "success", "user_id", res.Account.UserID)
	response.JSON(w, r, http.StatusOK, tokenResponse{Message: "login successful", Token: res.Token, ExpiresAt: res.ExpiresAt.Unix()})
}

func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "you have access to this protected route",
		"user": map[string]string{
			"user_id":  claims.UserID,
			"email":    claims.Email,
			"username": claims.Username,
		},
	})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	account, err := h.accounts.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, account.View(false))
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if err := h.accounts.UpdateProfile(r.Context(), claims.UserID, service.ProfileUpdate{Email: req.Email, Username: req.Username}); err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.profile.update", "success", "user_id", claims.UserID)
	response.Message(w, r, http.StatusOK, "profile updated")
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	err := h.accounts.ChangePassword(r.Context(), claims.UserID, req.OldPassword, req.NewPassword)
	if errors.Is(err, service.ErrInvalidCredentials) {
		observability.Audit(r, "user.password.change", "failure", "user_id", claims.UserID)
		response.Error(w, r, http.StatusUnauthorized, "old password is incorrect")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.password.change", "success", "user_id", claims.UserID)
	response.Message(w, r, http.StatusOK, "password changed")
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	err := h.resets.RequestReset(r.Context(), req.Email)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrAccountNotFound) && h.concealUnknown:
	case errors.Is(err, service.ErrAccountNotFound):
		observability.Audit(r, "user.password.reset_request", "failure", "reason", "unknown_email")
		response.Error(w, r, http.StatusNotFound, "email not found")
		return
	default:
		observability.Audit(r, "user.password.reset_request", "failure")
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.password.reset_request", "success")
	response.Message(w, r, http.StatusOK, "a password reset link has been sent to your email")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	if err := h.resets.Redeem(r.Context(), chi.URLParam(r, "token"), req.NewPassword); err != nil {
		observability.Audit(r, "user.password.reset", "failure")
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.password.reset", "success")
	response.Message(w, r, http.StatusOK, "password has been reset")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	raw, _ := middleware.TokenFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), raw, claims); err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.logout", "success", "user_id", claims.UserID)
	response.Message(w, r, http.StatusOK, "logout successful")
}
