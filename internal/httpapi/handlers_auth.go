package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/auth"
)

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// handleLogin verifies credentials and issues a session token. Unknown
// username and wrong password produce identical responses.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if ok, retry := s.loginLimiter.Allow(clientIP(r)); !ok {
		w.Header().Set("retry-after", retryAfterSeconds(retry))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many login attempts"})
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password are required"})
		return
	}

	ctx := r.Context()
	u, ok, err := s.DB.GetUserByUsername(ctx, req.Username)
	if err != nil {
		s.Logger.Error("login lookup failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	okPw, err := auth.VerifyPassword(req.Password, u.PassHash)
	if err != nil || !okPw {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	tok, err := s.Tokens.Mint(u.ID, u.Username)
	if err != nil {
		s.Logger.Error("token mint failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": tok,
		"user":  userPayload{ID: u.ID, Username: u.Username},
	})
}

// handleMe returns the identity bound to the presented token.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	claims := claimsFrom(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"user": userPayload{ID: claims.UserID(), Username: claims.Username},
	})
}

// handleLogout is symbolic: tokens are stateless, so the client just
// discards its copy.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func retryAfterSeconds(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	return strconv.Itoa(int(d.Seconds()))
}
