package security

import (
	"fmt"
	"net/http"

	"github.com/unrolled/secure"

	applog "soda/internal/log"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	CSP string

	// HSTS is only sent over HTTPS.
	HSTSMaxAge            int64
	HSTSIncludeSubdomains bool

	ReferrerPolicy    string
	PermissionsPolicy string

	// Production turns on the HTTPS redirect.
	Production bool
}

// DefaultHeadersConfig returns the headers used by the web UI. Scripts are
// limited to the application itself and the htmx CDN.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: "default-src 'self'; " +
			"script-src 'self' https://unpkg.com; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"connect-src 'self'; " +
			"object-src 'none'; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'",

		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,

		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: "geolocation=(), microphone=(), camera=(), payment=()",
	}
}

// Options maps the configuration onto unrolled/secure.
func (c HeadersConfig) Options() secure.Options {
	return secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: c.CSP,
		ReferrerPolicy:        c.ReferrerPolicy,
		PermissionsPolicy:     c.PermissionsPolicy,
		STSSeconds:            c.HSTSMaxAge,
		STSIncludeSubdomains:  c.HSTSIncludeSubdomains,
		SSLRedirect:           c.Production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !c.Production,
	}
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	secure *secure.Secure
	logger *applog.Logger
}

// NewHeadersMiddleware creates a new security headers middleware
func NewHeadersMiddleware(config HeadersConfig, logger *applog.Logger) *HeadersMiddleware {
	if logger == nil {
		logger = applog.Discard()
	}
	return &HeadersMiddleware{
		secure: secure.New(config.Options()),
		logger: logger.WithComponent(applog.ComponentHTTP),
	}
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.secure.Process(w, r); err != nil {
			// Process has already written the redirect or rejection.
			h.logger.WarnContext(r.Context(), "Secure headers blocked request",
				applog.FieldPath, r.URL.Path,
				applog.FieldError, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware adds caching headers for static assets
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
