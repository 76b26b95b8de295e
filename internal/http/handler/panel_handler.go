package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/http/response"
	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/service"
	"github.com/gamexhub/gamex-panel/internal/validation"
)

type panelRegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"min=6"`
}

type panelLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"notblank"`
}

type accountUpdateRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Username *string `json:"username" validate:"omitempty,notblank"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	NewRole  *string `json:"newRole"`
}

type lookupRequest struct {
	UserID   string `json:"user_id"`
	LegacyID string `json:"userId"`
	Username string `json:"username"`
}

// PanelHandler serves the account management surface of one panel role.
// The admin and superadmin routers each get their own instance.
type PanelHandler struct {
	role      domain.Role
	scope     service.ManagementScope
	auth      service.AuthServiceInterface
	accounts  service.AccountServiceInterface
	validator *validation.Validator
}

func NewAdminHandler(auth service.AuthServiceInterface, accounts service.AccountServiceInterface, v *validation.Validator) *PanelHandler {
	return &PanelHandler{role: domain.RoleAdmin, scope: service.AdminScope, auth: auth, accounts: accounts, validator: v}
}

func NewSuperadminHandler(auth service.AuthServiceInterface, accounts service.AccountServiceInterface, v *validation.Validator) *PanelHandler {
	return &PanelHandler{role: domain.RoleSuperadmin, scope: service.SuperadminScope, auth: auth, accounts: accounts, validator: v}
}

func (h *PanelHandler) event(name string) string {
	return string(h.role) + "." + name
}

// Register creates an account of the handler's role: an admin through the
// admin surface, the single superadmin through the superadmin surface.
func (h *PanelHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req panelRegisterRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	in := service.RegisterInput{Email: req.Email, Username: req.Username, Password: req.Password}
	var (
		account *domain.Account
		err     error
	)
	if h.role == domain.RoleSuperadmin {
		account, err = h.auth.BootstrapSuperadmin(r.Context(), in)
	} else {
		account, err = h.auth.Register(r.Context(), domain.RoleAdmin, in)
	}
	if err != nil {
		observability.Audit(r, h.event("register"), "failure", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, h.event("register"), "success", "user_id", account.UserID)
	response.JSON(w, r, http.StatusCreated, createdResponse{Message: string(h.role) + " created", UserID: account.UserID})
}

func (h *PanelHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req panelLoginRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	res, err := h.auth.LoginAs(r.Context(), h.role, req.Email, req.Password)
	if err != nil {
		observability.Audit(r, h.event("login"), "failure")
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, h.event("login"), "success", "user_id", res.Account.UserID)
	response.JSON(w, r, http.StatusOK, tokenResponse{Message: "login successful", Token: res.Token, ExpiresAt: res.ExpiresAt.Unix()})
}

// ListUsers sorts by username when sort=asc|desc. Without page or page_size
// every row is returned; totals are always reported in headers.
func (h *PanelHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var verrs validation.Errors
	page, ok := queryInt(q.Get("page"))
	if !ok {
		verrs = append(verrs, validation.FieldError{Field: "page", Message: "page must be a positive integer"})
	}
	pageSize, ok := queryInt(q.Get("page_size"))
	if !ok {
		verrs = append(verrs, validation.FieldError{Field: "page_size", Message: "page_size must be a positive integer"})
	}
	sort := strings.ToLower(q.Get("sort"))
	if sort != "" && sort != "asc" && sort != "desc" {
		verrs = append(verrs, validation.FieldError{Field: "sort", Message: "sort must be one of: asc desc"})
	}
	if len(verrs) > 0 {
		response.ValidationErrors(w, r, verrs)
		return
	}

	res, err := h.accounts.List(r.Context(), h.scope, service.ListOptions{Descending: sort == "desc", Page: page, PageSize: pageSize})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	views := make([]domain.AccountView, 0, len(res.Items))
	for _, a := range res.Items {
		views = append(views, a.View(true))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(res.Total, 10))
	w.Header().Set("X-Total-Pages", strconv.Itoa(res.TotalPages))
	response.JSON(w, r, http.StatusOK, views)
}

// LookupUser reads user_id or username from the query string, then from a
// JSON body for clients that send one with GET.
func (h *PanelHandler) LookupUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := lookupRequest{UserID: q.Get("user_id"), LegacyID: q.Get("userId"), Username: q.Get("username")}
	if req.UserID == "" && req.LegacyID == "" && req.Username == "" && r.ContentLength != 0 {
		if !bind(w, r, h.validator, &req) {
			return
		}
	}
	id := req.UserID
	if id == "" {
		id = req.LegacyID
	}
	h.writeAccount(w, r, service.AccountLookup{UserID: id, Username: req.Username})
}

func (h *PanelHandler) UserByID(w http.ResponseWriter, r *http.Request) {
	h.writeAccount(w, r, service.AccountLookup{UserID: chi.URLParam(r, "userId")})
}

func (h *PanelHandler) writeAccount(w http.ResponseWriter, r *http.Request, lookup service.AccountLookup) {
	account, err := h.accounts.Find(r.Context(), h.scope, lookup)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, account.View(true))
}

func (h *PanelHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req accountUpdateRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	userID := chi.URLParam(r, "userId")
	in := service.AccountUpdate{Email: req.Email, Username: req.Username, Password: req.Password, Role: req.NewRole}
	if err := h.accounts.Update(r.Context(), h.scope, userID, in); err != nil {
		observability.Audit(r, h.event("user.update"), "failure", "target", userID, "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, h.event("user.update"), "success", "target", userID)
	response.Message(w, r, http.StatusOK, "user updated")
}

func (h *PanelHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := h.accounts.Delete(r.Context(), h.scope, userID); err != nil {
		observability.Audit(r, h.event("user.delete"), "failure", "target", userID, "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, h.event("user.delete"), "success", "target", userID)
	response.Message(w, r, http.StatusOK, "user deleted")
}

// queryInt accepts an absent value as 0.
func queryInt(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
