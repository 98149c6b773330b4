// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"mfn/internal/log"
	"mfn/internal/middleware/ratelimit"
	"mfn/internal/middleware/security"
	"mfn/internal/services"
)

type Server struct {
	http.Server
	ledger   *services.Ledger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	validate *validator.Validate
	logger   *log.Logger
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.Ledger, logger *log.Logger) *Server {
	mux := http.NewServeMux()
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:   ledger,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector: security.NewDetector(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		started:  time.Now(),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/cards", s.handleRegisterCard)
	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("GET /api/cards/{number}", s.handleGetCard)
	mux.HandleFunc("POST /api/cards/{number}/debts", s.handleAddDebt)
	mux.HandleFunc("GET /api/cards/{number}/debts", s.handleListDebts)
	mux.HandleFunc("GET /api/cards/{number}/debts/last", s.handleLastDebt)
	mux.HandleFunc("GET /api/debts/{id}/installments", s.handleListInstallments)
	mux.HandleFunc("POST /api/debts/{id}/installments/{seq}/pay", s.handlePayInstallment)

	mux.HandleFunc("POST /api/wallets", s.handleCreateWallet)
	mux.HandleFunc("GET /api/wallets", s.handleListWallets)
	mux.HandleFunc("GET /api/wallets/{name}", s.handleGetWallet)
	mux.HandleFunc("DELETE /api/wallets/{name}", s.handleDeleteWallet)
	mux.HandleFunc("POST /api/wallets/{name}/income", s.handleIncome)
	mux.HandleFunc("POST /api/wallets/{name}/expense", s.handleExpense)
	mux.HandleFunc("GET /api/wallets/{name}/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transfers", s.handleTransfer)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.AccessLog(handler)
	handler = log.RequestIDMiddleware(requestID)(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"security": map[string]int64{
			"rate_limited":        s.limiter.Hits(),
			"rate_limit_clients":  int64(s.limiter.ActiveClients()),
			"suspicious_requests": s.detector.GetMetrics().SuspiciousRequests,
		},
	})
}

// handleReady reports 503 until the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ledger.Ping(ctx); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed", log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"storage": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"storage": "ok",
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
}
