package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	applog "fintrack/internal/log"
	"fintrack/internal/registry"
	"fintrack/internal/services"
)

type Server struct {
	http.Server
	auth        *auth.Service
	registry    *registry.Registry
	txns        *services.TransactionService
	recurring   *services.RecurringService
	rateLimiter *rateLimiter
	metrics     securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, authSvc *auth.Service, reg *registry.Registry, txns *services.TransactionService, recurring *services.RecurringService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		auth:        authSvc,
		registry:    reg,
		txns:        txns,
		recurring:   recurring,
		rateLimiter: newRateLimiter(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           applog.Middleware(s.secure(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /api/auth/signout", s.handleSignOut)

	mux.HandleFunc("GET /api/transactions", s.withAuth(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withAuth(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withAuth(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withAuth(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/transactions/months", s.withAuth(s.handleMonths))
	mux.HandleFunc("GET /api/transactions/search", s.withAuth(s.handleSearch))

	mux.HandleFunc("GET /api/categories", s.withAuth(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withAuth(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withAuth(s.handleRenameCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withAuth(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/ledger", s.withAuth(s.handleLedger))

	mux.HandleFunc("GET /api/recurring", s.withAuth(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.withAuth(s.handleCreateRecurring))
	mux.HandleFunc("PUT /api/recurring/{id}", s.withAuth(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.withAuth(s.handleDeleteRecurring))

	mux.HandleFunc("GET /api/stream/transactions", s.withAuth(s.handleStreamTransactions))
	mux.HandleFunc("GET /api/stream/categories", s.withAuth(s.handleStreamCategories))

	return s
}

// secure applies rate limiting to mutating requests and sets security
// headers on everything.
func (s *Server) secure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)

		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.rateLimiter.allow(clientIP, &s.metrics) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP,
					"method", r.Method,
					"url", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				ErrorResponse(http.StatusTooManyRequests, CodeRemoteOperation, "rate limit exceeded").Write(w)
				return
			}
		}

		setSecurityHeaders(w)
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
