package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"rocr/backend/internal/audit"
	contacthandler "rocr/backend/internal/contact/handler"
	contactservice "rocr/backend/internal/contact/service"
	healthhandler "rocr/backend/internal/health/handler"
	identityhandler "rocr/backend/internal/identity/handler"
	identityservice "rocr/backend/internal/identity/service"
	"rocr/backend/internal/platform/httpx"
	"rocr/backend/internal/platform/rbac"
	"rocr/backend/internal/platform/validation"
	"rocr/backend/internal/ratelimit"
	"rocr/backend/internal/security"
	"rocr/backend/internal/server/middleware"
	userhandler "rocr/backend/internal/user/handler"
	userservice "rocr/backend/internal/user/service"
)

// Deps holds the services and infrastructure the HTTP API is built from.
type Deps struct {
	Logger zerolog.Logger
	// Production hides internal error text and restricts CORS to AllowedOrigins.
	Production     bool
	AllowedOrigins []string

	Tokens *security.TokenProvider
	// Users resolves access token subjects for the auth middleware.
	Users    middleware.UserLoader
	Auth     *identityservice.AuthService
	Accounts *userservice.UserService
	Contacts *contactservice.ContactService

	Limiter *ratelimit.Limiter
	// AuditLogger records mutating requests. If nil, requests are not audited.
	AuditLogger audit.AuditLogger
	// Health serves /health. If nil, a handler without a database check is used.
	Health *healthhandler.Handler
	// Validator checks request bodies. If nil, a default one is created.
	Validator *validation.Validator
}

// NewRouter builds the HTTP API.
//
// Route → handler mapping:
//   - /api/v1/auth     → internal/identity/handler
//   - /api/v1/users    → internal/user/handler (admin only)
//   - /api/v1/contacts → internal/contact/handler
//   - /health, /       → internal/health/handler
func NewRouter(deps Deps) http.Handler {
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	if deps.Health == nil {
		deps.Health = healthhandler.NewHandler(nil, nil)
	}
	if deps.AuditLogger == nil {
		deps.AuditLogger = audit.Nop{}
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(ratelimit.NewMemoryStore(nil), ratelimit.WithLogger(deps.Logger))
	}

	rd := &httpx.Renderer{Production: deps.Production}
	authn := middleware.NewAuthenticator(deps.Tokens, deps.Users, rd)
	auditReq := middleware.Audit(deps.AuditLogger)
	limit := deps.Limiter.Middleware

	authH := identityhandler.NewAuthHandler(deps.Auth, deps.Validator)
	userH := userhandler.NewUserHandler(deps.Accounts, deps.Validator)
	contactH := contacthandler.NewContactHandler(deps.Contacts, deps.Validator)

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.ClientIPHandler)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(deps.AllowedOrigins, deps.Production))
	r.NotFound(httpx.NotFound)
	r.MethodNotAllowed(httpx.MethodNotAllowed)

	r.Get("/", healthhandler.Root)
	r.Get("/health", deps.Health.Health)
	r.Get("/health/ready", deps.Health.Ready)
	r.Get("/health/live", deps.Health.Live)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", healthhandler.APIInfo)

		r.Route("/auth", func(r chi.Router) {
			r.With(limit(ratelimit.Auth)).Post("/login", rd.Handle(authH.Login))
			r.With(limit(ratelimit.Auth)).Post("/refresh", rd.Handle(authH.Refresh))
			r.Group(func(r chi.Router) {
				r.Use(limit(ratelimit.General), authn.Require)
				r.Post("/logout", rd.Handle(authH.Logout))
				r.Get("/me", rd.Handle(authH.Me))
				r.Post("/update-password", rd.Handle(authH.UpdatePassword))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(limit(ratelimit.General), authn.Require, auditReq, rbac.AdminOnly)
			r.Get("/", rd.Handle(userH.List))
			r.Post("/", rd.Handle(userH.Create))
			r.Get("/{id}", rd.Handle(userH.Get))
			r.Patch("/{id}", rd.Handle(userH.Update))
			r.Delete("/{id}", rd.Handle(userH.Deactivate))
			r.With(limit(ratelimit.Strict)).Post("/{id}/reset-password", rd.Handle(userH.ResetPassword))
		})

		r.Route("/contacts", func(r chi.Router) {
			r.With(limit(ratelimit.Public), authn.Optional).Post("/", rd.Handle(contactH.Submit))
			r.Group(func(r chi.Router) {
				r.Use(limit(ratelimit.General), authn.Require, auditReq)
				r.Get("/", rd.Handle(contactH.List))
				r.Get("/stats/summary", rd.Handle(contactH.Stats))
				r.Get("/{id}", rd.Handle(contactH.Get))
				r.Patch("/{id}", rd.Handle(contactH.Update))
				r.With(rbac.ManagerOnly).Delete("/{id}", rd.Handle(contactH.Delete))
			})
		})
	})

	return otelhttp.NewHandler(r, "rocr-api")
}
