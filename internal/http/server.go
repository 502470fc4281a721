package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"soda/internal/identity"
	applog "soda/internal/log"
	"soda/internal/middleware/ratelimit"
	"soda/internal/middleware/security"
	"soda/internal/middleware/trace"
	"soda/internal/services"
	"soda/internal/session"
	appweb "soda/web"
)

// Deps are the collaborators the web server needs.
type Deps struct {
	Logger     *applog.Logger
	Resolver   *session.Resolver
	Transient  session.Store
	Remembered session.Store
	Summaries  *services.SummaryService
	PairRates  [2]decimal.Decimal

	LoginRatePerMinute int
	CookieSecure       bool
	Production         bool

	// Ready reports whether the data backend is reachable. Nil means always.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	templates  *template.Template
	logger     *applog.Logger
	resolver   *session.Resolver
	transient  session.Store
	remembered session.Store
	summaries  *services.SummaryService
	pairRates  [2]decimal.Decimal
	ready      func(context.Context) error

	cookieSecure bool
	started      time.Time

	traceMiddleware *trace.Middleware
	loginLimiter    *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and configures the routes.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Resolver == nil || deps.Summaries == nil {
		return nil, errors.New("http server requires a session resolver and a summary service")
	}
	if deps.Transient == nil || deps.Remembered == nil {
		return nil, errors.New("http server requires transient and remembered session stores")
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.Discard()
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates:       t,
		logger:          logger.WithComponent(applog.ComponentHTTP),
		resolver:        deps.Resolver,
		transient:       deps.Transient,
		remembered:      deps.Remembered,
		summaries:       deps.Summaries,
		pairRates:       deps.PairRates,
		ready:           deps.Ready,
		cookieSecure:    deps.CookieSecure,
		started:         time.Now(),
		traceMiddleware: trace.NewMiddleware(logger, clientIP),
		loginLimiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.LoginRatePerMinute}, logger),
	}

	headersCfg := security.DefaultHeadersConfig()
	headersCfg.Production = deps.Production
	headers := security.NewHeadersMiddleware(headersCfg, logger)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.traceMiddleware.Handler)
	r.Use(applog.Middleware(logger, trace.GetRequestID))
	r.Use(middleware.Recoverer)
	r.Use(headers.Middleware)

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.withIdentity)

		r.Get("/login", s.handleLoginPage)
		r.With(s.loginLimiter.Middleware()).Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/", s.handleLanding)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(identity.RoleFull))
			r.Get("/dashboard", s.handleDashboard)
			r.Post("/dashboard/summaries", s.handleSaveSummary)
			r.Post("/dashboard/cancel", s.handleCancel)
			r.Post("/dashboard/summaries/{id}/delete", s.handleDeleteSummary)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(""))
			r.Get("/tax", s.handleTax)
			r.Get("/tax/pair", s.handleTaxPair)
		})

		r.NotFound(s.handleLanding)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		metrics := s.traceMiddleware.GetMetrics()
		s.logger.InfoContext(ctx, "HTTP server shutting down",
			applog.FieldOperation, applog.OpShutdown,
			"total_requests", metrics.TotalRequests,
			"failed_requests", metrics.FailedRequests,
			"rate_limited", s.loginLimiter.Rejected())
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the data backend
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "backend": "ok"}

	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			checks["backend"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
