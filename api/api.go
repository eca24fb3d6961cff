// Package api implements the session, cookie, and CSRF layer of the club
// backend: encrypted auth-token cookies, derived-secret synchronizer tokens,
// and the middleware that business-logic routes compose for authentication
// and role checks.
//
// Per request the stages run in a fixed order: the CSRF middleware first
// (ensures a session identifier exists and gates state-changing methods),
// then authentication resolution, then role authorization. Each stage reads
// and writes the request context only through the accessors in this package.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/boulodrome/clubhouse/auth"
	"github.com/boulodrome/clubhouse/config"
	"github.com/boulodrome/clubhouse/csrf"
	"github.com/boulodrome/clubhouse/storage"
)

// API holds the dependencies needed by the auth handlers and middleware.
type API struct {
	store   storage.Repository
	tokens  *auth.TokenService
	csrf    *csrf.Engine
	policy  cookiePolicy
	audit   *auditLogger
	metrics *metricsCollector
	webhook *auditWebhook
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithAlertFunc installs a callback fired when the login-failure rate
// exceeds its threshold.
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) {
		a.metrics = newMetricsCollector(fn)
	}
}

// WithAuditWebhook forwards audit events to an external HTTP endpoint.
// authHeader is an optional "Header: Value" string attached to each request.
func WithAuditWebhook(url, authHeader string) Option {
	return func(a *API) {
		a.webhook = newAuditWebhook(url, authHeader)
	}
}

// New creates a new API instance. The keyring behind tokens and engine must
// stay alive for the lifetime of the API.
func New(cfg *config.Config, store storage.Repository, tokens *auth.TokenService, engine *csrf.Engine, opts ...Option) *API {
	a := &API{
		store:  store,
		tokens: tokens,
		csrf:   engine,
		policy: newCookiePolicy(cfg),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	a.audit.metrics = a.metrics
	a.audit.webhook = a.webhook
	return a
}

// Close drains background resources. With an audit webhook configured it
// blocks until queued events are delivered.
func (a *API) Close() {
	if a.webhook != nil {
		a.webhook.close()
	}
}

// Router returns a chi.Router with the auth routes mounted. The CSRF
// middleware is applied to the whole subtree; consumers mounting their own
// routes elsewhere should apply VerifyCSRF themselves.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(a.VerifyCSRF)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, nil))

	r.Get("/csrf-token", a.CSRFToken)
	r.Post("/auth/login", a.Login)
	r.Post("/auth/logout", a.Logout)
	r.With(a.CheckAuth).Get("/auth/status", a.Status)

	return r
}
