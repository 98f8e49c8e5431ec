// Package web exposes the parsing service as a JSON HTTP API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/JonMunkholm/importme/internal/config"
	"github.com/JonMunkholm/importme/internal/core"
	mw "github.com/JonMunkholm/importme/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the parsing API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)

	// A request may wait for a parse slot and then run a full parse.
	s.router.Use(middleware.Timeout(s.cfg.Parse.MaxWaitTime + s.cfg.Parse.Timeout))

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		// Schemas
		r.Get("/schemas", s.handleListSchemas)
		r.Get("/schemas/{schemaKey}/template", s.handleDownloadTemplate)

		// Parsing
		r.Post("/parse/{schemaKey}", s.handleParse)
		r.Get("/status", s.handleStatus)

		// Stored runs
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Get("/runs/{runID}/errors.csv", s.handleExportRunErrors)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter is a fixed-window request limiter per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries once per window until stopped.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware rate limits by client IP. TrustedRealIP has already rewritten
// RemoteAddr for requests coming through a trusted proxy.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSONStatus(w, http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate limit exceeded",
				Message: "Too many requests.",
				Action:  "Wait a minute and try again.",
				Code:    "RATE001",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON. Encoding errors are only logged since
// headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
