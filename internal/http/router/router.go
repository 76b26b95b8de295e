package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/http/handler"
	"github.com/gamexhub/gamex-panel/internal/http/middleware"
	"github.com/gamexhub/gamex-panel/internal/http/response"
	"github.com/gamexhub/gamex-panel/internal/service"
)

type Dependencies struct {
	AuthHandler           *handler.AuthHandler
	AdminHandler          *handler.PanelHandler
	SuperadminHandler     *handler.PanelHandler
	GameHandler           *handler.GameHandler
	HealthHandler         *handler.HealthHandler
	Authenticator         service.AccessTokenAuthenticator
	CORSOrigins           []string
	BodyLimitBytes        int64
	AdminRegistrationOpen bool
	EnableOTelHTTP        bool
}

var userFacingRoles = []domain.Role{domain.RoleUser, domain.RoleAdmin, domain.RoleSuperadmin}

func NewRouter(dep Dependencies) http.Handler {
	if dep.BodyLimitBytes <= 0 {
		dep.BodyLimitBytes = 1 << 20
	}
	authenticate := middleware.Authenticate(dep.Authenticator)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(dep.BodyLimitBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", dep.HealthHandler.Root)
	r.Get("/health/live", dep.HealthHandler.Live)
	r.Get("/health/ready", dep.HealthHandler.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", dep.AuthHandler.Register)
		r.Post("/login", dep.AuthHandler.Login)
		r.Post("/request-password-reset", dep.AuthHandler.RequestPasswordReset)
		r.Post("/reset-password/{token}", dep.AuthHandler.ResetPassword)
		r.Group(func(r chi.Router) {
			r.Use(authenticate, middleware.RequireRoles(userFacingRoles...))
			r.Get("/protected", dep.AuthHandler.Protected)
			r.Get("/profile", dep.AuthHandler.Profile)
			r.Put("/profile/update", dep.AuthHandler.UpdateProfile)
			r.Put("/change-password", dep.AuthHandler.ChangePassword)
			r.Post("/logout", dep.AuthHandler.Logout)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		if dep.AdminRegistrationOpen {
			r.Post("/admins/register", dep.AdminHandler.Register)
		} else {
			r.With(authenticate, middleware.RequireRoles(domain.RoleSuperadmin)).Post("/admins/register", dep.AdminHandler.Register)
		}
		r.Post("/admins/login", dep.AdminHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(authenticate, middleware.RequireRoles(domain.RoleAdmin))
			r.Get("/users", dep.AdminHandler.ListUsers)
			r.Get("/users/profile", dep.AdminHandler.LookupUser)
			r.Put("/users/{userId}", dep.AdminHandler.UpdateUser)
			r.Delete("/users/{userId}", dep.AdminHandler.DeleteUser)

			r.Post("/games", dep.GameHandler.Create)
			r.Get("/games", dep.GameHandler.List)
			r.Get("/games/{gameId}", dep.GameHandler.Get)
			r.Put("/games/{gameId}", dep.GameHandler.Update)
			r.Delete("/games/{gameId}", dep.GameHandler.Delete)
		})
	})

	r.Route("/superadmin", func(r chi.Router) {
		r.Post("/superadmin", dep.SuperadminHandler.Register)
		r.Post("/login", dep.SuperadminHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(authenticate, middleware.RequireRoles(domain.RoleSuperadmin))
			r.Get("/users", dep.SuperadminHandler.ListUsers)
			r.Get("/users/profile/{userId}", dep.SuperadminHandler.UserByID)
			r.Put("/users/{userId}", dep.SuperadminHandler.UpdateUser)
			r.Delete("/users/{userId}", dep.SuperadminHandler.DeleteUser)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
