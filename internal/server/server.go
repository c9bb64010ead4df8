// Package server exposes the betting escrow over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
	"github.com/NJCinnamond/sports-betting-dapp/internal/server/handler"
	"github.com/NJCinnamond/sports-betting-dapp/internal/server/middleware"
	"github.com/NJCinnamond/sports-betting-dapp/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	// RateLimit is the per-client request budget per minute applied to the
	// staking endpoints. 0 disables limiting.
	RateLimit int
	// Limiter backs the staking rate limit; nil disables limiting.
	Limiter domain.RateLimiter
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Reports may be nil when settlement archival is disabled.
type Handlers struct {
	Health   *handler.HealthHandler
	Fixtures *handler.FixtureHandler
	Stakes   *handler.StakeHandler
	Oracle   *handler.OracleHandler
	Credits  *handler.CreditHandler
	Audit    *handler.AuditHandler
	Reports  *handler.ReportHandler
}

// Server is the headless HTTP + WebSocket API server for the betting escrow.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Rate limiting applies only to the stake-mutation endpoints; reads and
	// lifecycle operations stay unthrottled.
	limitStakes := func(h http.HandlerFunc) http.HandlerFunc {
		if cfg.Limiter == nil || cfg.RateLimit <= 0 {
			return h
		}
		limited := middleware.RateLimit(cfg.Limiter, cfg.RateLimit, time.Minute)(h)
		return limited.ServeHTTP
	}

	// --- Register routes ---

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Fixture endpoints.
	mux.HandleFunc("GET /api/fixtures/{id}", handlers.Fixtures.GetFixture)
	mux.HandleFunc("GET /api/fixtures/{id}/totals", handlers.Fixtures.GetTotals)
	mux.HandleFunc("POST /api/fixtures/{id}/open", handlers.Fixtures.OpenFixture)
	mux.HandleFunc("POST /api/fixtures/{id}/reconcile", handlers.Fixtures.ReconcileFixture)
	mux.HandleFunc("POST /api/fixtures/{id}/refund", handlers.Fixtures.RefundFixture)

	// Settlement query endpoints.
	mux.HandleFunc("GET /api/fixtures/{id}/payouts", handlers.Fixtures.ListPayouts)
	mux.HandleFunc("GET /api/fixtures/{id}/payouts/{participant}", handlers.Fixtures.GetPayout)
	mux.HandleFunc("GET /api/fixtures/{id}/commission", handlers.Fixtures.GetCommission)

	// Stake endpoints.
	mux.HandleFunc("POST /api/fixtures/{id}/stakes", limitStakes(handlers.Stakes.PlaceStake))
	mux.HandleFunc("POST /api/fixtures/{id}/unstakes", limitStakes(handlers.Stakes.RemoveStake))
	mux.HandleFunc("GET /api/fixtures/{id}/stakes/{participant}", handlers.Stakes.GetStakes)

	// Oracle webhook endpoints, authenticated by shared secret rather than
	// the API key.
	mux.HandleFunc("POST /api/oracle/kickoff", handlers.Oracle.HandleKickoff)
	mux.HandleFunc("POST /api/oracle/result", handlers.Oracle.HandleResult)

	// Oracle-credit ledger endpoints.
	mux.HandleFunc("POST /api/credits/deposit", handlers.Credits.Deposit)
	mux.HandleFunc("POST /api/credits/withdraw", handlers.Credits.Withdraw)
	mux.HandleFunc("GET /api/credits/{participant}", handlers.Credits.GetBalance)

	// Audit log.
	mux.HandleFunc("GET /api/audit", handlers.Audit.ListEntries)

	// Archived settlement reports (only when archival is enabled).
	if handlers.Reports != nil {
		mux.HandleFunc("GET /api/reports", handlers.Reports.ListReports)
		mux.HandleFunc("GET /api/reports/{path...}", handlers.Reports.GetReport)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIKey is empty). Oracle webhooks carry
	// their own shared-secret authentication; the health check carries none.
	h = middleware.Auth(cfg.APIKey, "/api/oracle/", "/api/health")(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// corsMiddleware returns middleware that sets CORS headers for the allowed
// origins. If no origins are specified, it defaults to allowing all origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0 // allow all if none specified
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Webhook-Secret")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			// Handle preflight requests.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
