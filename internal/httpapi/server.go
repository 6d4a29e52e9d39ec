// Package httpapi exposes the JSON HTTP API and handlers.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/auth"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/db"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/ledger"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/version"
)

// loginRateLimit bounds credential guessing per client IP.
const (
	loginRateMax    = 10
	loginRateWindow = time.Minute
)

type Server struct {
	DB             *db.DB
	Ledger         *ledger.Service
	Tokens         *auth.TokenIssuer
	Logger         *slog.Logger
	BindAddr       string
	Port           int
	AllowedOrigins []string

	loginLimiter *fixedWindowLimiter
}

// Handler builds the full middleware/mux chain.
func (s *Server) Handler() http.Handler {
	if s.loginLimiter == nil {
		s.loginLimiter = newFixedWindowLimiter(loginRateMax, loginRateWindow)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/me", s.withAuth(s.handleMe))
	mux.HandleFunc("/api/auth/logout", s.withAuth(s.handleLogout))

	mux.HandleFunc("/api/donations", s.withAuth(s.handleDonations))
	mux.HandleFunc("/api/donations/total", s.withAuth(s.handleDonationsTotal))
	mux.HandleFunc("/api/distributions", s.withAuth(s.handleDistributions))
	mux.HandleFunc("/api/distributions/total", s.withAuth(s.handleDistributionsTotal))
	mux.HandleFunc("/api/dashboard/stats", s.withAuth(s.handleDashboardStats))

	mux.HandleFunc("/api/families", s.withAuth(s.handleFamilies))
	mux.HandleFunc("/api/families/", s.withAuth(s.handleFamilyByID))

	var h http.Handler = mux
	h = s.withRecover(h)
	h = s.withRequestLog(h)
	h = s.withCORS(h)
	h = withSecurityHeaders(h)
	return h
}

// ListenAndServe starts the HTTP server and blocks until it fails or
// ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.DB == nil || s.Ledger == nil || s.Tokens == nil || s.Logger == nil {
		return errors.New("db, ledger, tokens, and logger are required")
	}

	addr := s.BindAddr + ":" + strconv.Itoa(s.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "basket inventory API",
		"version": version.Version,
		"endpoints": map[string]string{
			"auth":          "/api/auth",
			"families":      "/api/families",
			"donations":     "/api/donations",
			"distributions": "/api/distributions",
			"dashboard":     "/api/dashboard",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeLedgerError maps the ledger error taxonomy onto HTTP statuses.
// Store failures are logged in detail and surfaced generically.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
		return
	}
	var insufficient *ledger.InsufficientStockError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "insufficient stock",
			"available": insufficient.Available,
		})
		return
	}
	if errors.Is(err, ledger.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	s.Logger.Error("store failure", "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// rfc3339 renders a stored unix-second timestamp for API responses.
func rfc3339(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-content-type-options", "nosniff")
		w.Header().Set("x-frame-options", "DENY")
		w.Header().Set("referrer-policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
