package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// ServerConfig holds the options for NewRouter.
type ServerConfig struct {
	ServiceName   string
	IsDevelopment bool
	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Pass "*" (dev only) to allow all origins.
	CORSAllowedOrigins string
	// RequestsPerMinute is the per-IP budget used by the in-memory limiter.
	RequestsPerMinute int
	// RateLimiter replaces the in-memory limiter when set (Redis-backed).
	RateLimiter func(http.Handler) http.Handler
	// HandlerTimeout bounds every handler; zero means 30s.
	HandlerTimeout time.Duration
}

// Middlewares are the app-specific middlewares NewRouter installs ahead of
// the chi built-ins. Nil entries are skipped.
type Middlewares struct {
	Logger   func(http.Handler) http.Handler
	Recovery func(http.Handler) http.Handler
	Sentry   func(http.Handler) http.Handler
	Otel     func(http.Handler) http.Handler
}

// NewRouter returns a chi.Mux pre-wired with the standard middleware stack
// and JSON 404/405 handlers.
//
// Middleware order (outermost first):
//  1. RequestID
//  2. Otel: one span per request
//  3. Logger: one line per request, with trace and request ids
//  4. Recovery: turns panics (including sentry re-panics) into a JSON 500
//  5. Sentry: captures panics, re-panics
//  6. RealIP
//  7. Rate limit: Redis fixed window or in-memory per IP
//  8. CORS
//  9. Body limit: 1 MB
//  10. Timeout
//  11. Security headers
func NewRouter(cfg ServerConfig, mw Middlewares) *chi.Mux {
	sec := secure.New(secure.Options{
		STSSeconds:            63072000,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), usb=(), magnetometer=(), gyroscope=()",
		IsDevelopment:         cfg.IsDevelopment,
	})

	limiter := cfg.RateLimiter
	if limiter == nil {
		perMinute := cfg.RequestsPerMinute
		if perMinute <= 0 {
			perMinute = 100
		}
		limiter = httprate.Limit(perMinute, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				JSONError(w, http.StatusTooManyRequests, "Too many requests")
			}),
		)
	}

	timeout := cfg.HandlerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	stack := []func(http.Handler) http.Handler{middleware.RequestID}
	for _, m := range []func(http.Handler) http.Handler{mw.Otel, mw.Logger, mw.Recovery, mw.Sentry} {
		if m != nil {
			stack = append(stack, m)
		}
	}
	stack = append(stack,
		middleware.RealIP,
		limiter,
		CORSMiddleware(cfg.CORSAllowedOrigins),
		RequestBodyLimit(1<<20),
		middleware.Timeout(timeout),
		sec.Handler,
	)

	r := chi.NewRouter()
	r.Use(stack...)
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)
	return r
}

// CORSMiddleware returns a CORS handler restricted to the given allowed origins.
// allowedOrigins is a comma-separated list (e.g. "https://app.example.com,http://localhost:3000").
func CORSMiddleware(allowedOrigins string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   parseOrigins(allowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

func parseOrigins(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p := strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// RequestBodyLimit caps the request body at maxBytes. Reads past the cap
// fail, which JSON decoding surfaces as a 400.
func RequestBodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// NewServer returns an *http.Server with production-ready timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
