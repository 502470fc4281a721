package ratelimit

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/httprate"

	applog "soda/internal/log"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	// Window defaults to one minute.
	Window time.Duration
}

// DefaultConfig returns the login limit.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 10,
		Window:            time.Minute,
	}
}

// Limiter counts requests per client IP and rejects the excess with 429.
type Limiter struct {
	config   Config
	logger   *applog.Logger
	rejected int64
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config, logger *applog.Logger) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Limiter{
		config: config,
		logger: logger.WithComponent(applog.ComponentHTTP),
	}
}

// Middleware limits the wrapped handler. Each call returns a limiter with
// its own counters.
func (l *Limiter) Middleware() func(http.Handler) http.Handler {
	return httprate.Limit(l.config.RequestsPerMinute, l.config.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(l.reject),
	)
}

func (l *Limiter) reject(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&l.rejected, 1)
	l.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldClientIP, r.RemoteAddr)
	w.Header().Set("Retry-After", strconv.Itoa(int(l.config.Window.Seconds())))
	http.Error(w, "Demasiados intentos. Intente de nuevo en un momento.", http.StatusTooManyRequests)
}

// Rejected returns how many requests have been turned away.
func (l *Limiter) Rejected() int64 {
	return atomic.LoadInt64(&l.rejected)
}
