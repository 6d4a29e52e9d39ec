// Package httpapi tests cover the login flow and the ledger handlers
// through the full middleware chain.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/auth"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/db"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/ledger"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/setup"
)

// testLogger silences logs during handler tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	ctx := context.Background()
	d, err := db.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := setup.EnsureDefaultAdmin(ctx, d, testLogger()); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	s := &Server{
		DB:             d,
		Ledger:         &ledger.Service{DB: d},
		Tokens:         auth.NewTokenIssuer("test-secret", time.Hour),
		Logger:         testLogger(),
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	return s, s.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	r := httptest.NewRequest(method, path, rd)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	w := doJSON(t, h, "POST", "/api/auth/login", "", map[string]string{
		"username": setup.DefaultAdminUsername,
		"password": setup.DefaultAdminPassword,
	})
	if w.Code != 200 {
		t.Fatalf("login status=%d body=%s", w.Code, strings.TrimSpace(w.Body.String()))
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	if resp.Token == "" {
		t.Fatalf("empty token")
	}
	return resp.Token
}

func TestLoginAndMe(t *testing.T) {
	_, h := newTestServer(t)
	tok := login(t, h)

	w := doJSON(t, h, "GET", "/api/auth/me", tok, nil)
	if w.Code != 200 {
		t.Fatalf("me status=%d body=%s", w.Code, strings.TrimSpace(w.Body.String()))
	}
	var resp struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decode(t, w, &resp)
	if resp.User.Username != setup.DefaultAdminUsername {
		t.Fatalf("username=%q", resp.User.Username)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, h := newTestServer(t)

	// Unknown user and wrong password must be indistinguishable.
	for _, creds := range []map[string]string{
		{"username": "nobody", "password": "whatever"},
		{"username": setup.DefaultAdminUsername, "password": "wrong"},
	} {
		w := doJSON(t, h, "POST", "/api/auth/login", "", creds)
		if w.Code != 401 {
			t.Fatalf("status=%d body=%s", w.Code, strings.TrimSpace(w.Body.String()))
		}
		var resp struct {
			Error string `json:"error"`
		}
		decode(t, w, &resp)
		if resp.Error != "invalid credentials" {
			t.Fatalf("error=%q", resp.Error)
		}
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	_, h := newTestServer(t)

	for _, path := range []string{
		"/api/donations", "/api/distributions", "/api/families",
		"/api/dashboard/stats", "/api/auth/me",
	} {
		w := doJSON(t, h, "GET", path, "", nil)
		if w.Code != 401 {
			t.Fatalf("%s status=%d", path, w.Code)
		}
	}

	w := doJSON(t, h, "GET", "/api/donations", "garbage-token", nil)
	if w.Code != 401 {
		t.Fatalf("garbage token status=%d", w.Code)
	}
}

func TestDonationDistributionFlow(t *testing.T) {
	_, h := newTestServer(t)
	tok := login(t, h)

	w := doJSON(t, h, "POST", "/api/donations", tok, map[string]any{
		"responsibleName": "Maria Silva",
		"cpf":             "12345678900",
		"quantity":        10,
	})
	if w.Code != 201 {
		t.Fatalf("donation status=%d body=%s", w.Code, strings.TrimSpace(w.Body.String()))
	}
	var dn struct {
		ID        string `json:"id"`
		Quantity  int64  `json:"quantity"`
		Type      string `json:"type"`
		CreatedAt string `json:"createdAt"`
	}
	decode(t, w, &dn)
	if dn.ID == "" || dn.Quantity != 10 || dn.Type != "entry" {
		t.Fatalf("donation=%+v", dn)
	}
	if _, err := time.Parse(time.RFC3339, dn.CreatedAt); err != nil {
		t.Fatalf("createdAt %q: %v", dn.CreatedAt, err)
	}

	w = doJSON(t, h, "POST", "/api/distributions", tok, map[string]any{
		"familyId":         "fam-1",
		"familyName":       "Souza",
		"pickupPersonName": "Joao Souza",
		"quantity":         4,
	})
	if w.Code != 201 {
		t.Fatalf("distribution status=%d body=%s", w.Code, strings.TrimSpace(w.Body.String()))
	}

	w = doJSON(t, h, "GET", "/api/dashboard/stats", tok, nil)
	if w.Code != 200 {
		t.Fatalf("stats status=%d", w.Code)
	}
	var stats struct {
		TotalDonations      int64 `json:"totalDonations"`
		TotalDistributions  int64 `json:"totalDistributions"`
		AvailableBaskets    int64 `json:"availableBaskets"`
		RecentDistributions []struct {
			FamilyName string `json:"familyName"`
		} `json:"recentDistributions"`
	}
	decode(t, w, &stats)
	if stats.TotalDonations != 10 || stats.TotalDistributions != 4 || stats.AvailableBaskets != 6 {
		t.Fatalf("stats=%+v", stats)
	}
	if len(stats.RecentDistributions) != 1 || stats.RecentDistributions[0].FamilyName != "Souza" {
		t.Fatalf("recent=%+v", stats.RecentDistributions)
	}

	w = doJSON(t, h, "GET", "/api/donations/total", tok, nil)
	var total struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &total)
	if total.Total != 10 {
		t.Fatalf("donations total=%d", total.Total)
	}
}

func TestDistributionInsufficientStock(t *testing.T) {
	_, h := newTestServer(t)
	tok := login(t, h)

	w := doJSON(t, h, "POST", "/api/donations", tok, map[string]any{
		"responsibleName": "Doador", "quantity": 3,
	})
	if w.Code != 201 {
		t.Fatalf("donation status=%d", w.Code)
	}

	w = doJSON(t, h, "POST", "/api/distributions", tok, map[string]any{
		"familyId": "fam-2", "familyName": "Lima", "pickupPersonName": "Ana Lima", "quantity": 5,
	})
	if w.Code != 409 {
		t.Fatalf("status=%d body=%s", w.Code, strings.TrimSpace(w.Body.String()))
	}
	var resp struct {
		Error     string `json:"error"`
		Available int64  `json:"available"`
	}
	decode(t, w, &resp)
	if resp.Error != "insufficient stock" || resp.Available != 3 {
		t.Fatalf("resp=%+v", resp)
	}

	// Nothing was recorded.
	w = doJSON(t, h, "GET", "/api/distributions/total", tok, nil)
	var total struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &total)
	if total.Total != 0 {
		t.Fatalf("distributions total=%d", total.Total)
	}
}

func TestDonationValidation(t *testing.T) {
	_, h := newTestServer(t)
	tok := login(t, h)

	w := doJSON(t, h, "POST", "/api/donations", tok, map[string]any{
		"responsibleName": "", "quantity": 5,
	})
	if w.Code != 400 {
		t.Fatalf("status=%d", w.Code)
	}
	var resp struct {
		Field string `json:"field"`
	}
	decode(t, w, &resp)
	if resp.Field != "responsibleName" {
		t.Fatalf("field=%q", resp.Field)
	}

	w = doJSON(t, h, "POST", "/api/donations", tok, map[string]any{
		"responsibleName": "Maria", "quantity": 0,
	})
	if w.Code != 400 {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	_, h := newTestServer(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < loginRateMax+1; i++ {
		last = doJSON(t, h, "POST", "/api/auth/login", "", map[string]string{
			"username": "nobody", "password": "wrong",
		})
	}
	if last.Code != 429 {
		t.Fatalf("status=%d", last.Code)
	}
	if last.Header().Get("retry-after") == "" {
		t.Fatalf("missing retry-after")
	}
}

func TestFamilyLifecycle(t *testing.T) {
	_, h := newTestServer(t)
	tok := login(t, h)

	w := doJSON(t, h, "POST", "/api/families", tok, map[string]any{
		"name":             "Familia Santos",
		"motherName":       "Clara Santos",
		"numberOfChildren": 2,
		"isEmployed":       true,
		"children": []map[string]any{
			{"name": "Pedro", "age": 7},
			{"name": "Lia", "age": 4},
		},
	})
	if w.Code != 201 {
		t.Fatalf("create status=%d body=%s", w.Code, strings.TrimSpace(w.Body.String()))
	}
	var created struct {
		ID       string `json:"id"`
		Children []struct {
			Name string `json:"name"`
		} `json:"children"`
	}
	decode(t, w, &created)
	if created.ID == "" || len(created.Children) != 2 {
		t.Fatalf("created=%+v", created)
	}

	w = doJSON(t, h, "GET", "/api/families", tok, nil)
	var list []struct {
		ID string `json:"id"`
	}
	decode(t, w, &list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list=%+v", list)
	}

	w = doJSON(t, h, "PUT", "/api/families/"+created.ID, tok, map[string]any{
		"name":       "Familia Santos",
		"motherName": "Clara Santos",
		"isEmployed": false,
		"children":   []map[string]any{{"name": "Pedro", "age": 8}},
	})
	if w.Code != 200 {
		t.Fatalf("update status=%d body=%s", w.Code, strings.TrimSpace(w.Body.String()))
	}
	var updated struct {
		IsEmployed bool `json:"isEmployed"`
		Children   []struct {
			Age int64 `json:"age"`
		} `json:"children"`
	}
	decode(t, w, &updated)
	if updated.IsEmployed || len(updated.Children) != 1 || updated.Children[0].Age != 8 {
		t.Fatalf("updated=%+v", updated)
	}

	w = doJSON(t, h, "DELETE", "/api/families/"+created.ID, tok, nil)
	if w.Code != 200 {
		t.Fatalf("delete status=%d", w.Code)
	}
	w = doJSON(t, h, "GET", "/api/families/"+created.ID, tok, nil)
	if w.Code != 404 {
		t.Fatalf("get after delete status=%d", w.Code)
	}
}

func TestFamilyValidation(t *testing.T) {
	_, h := newTestServer(t)
	tok := login(t, h)

	w := doJSON(t, h, "POST", "/api/families", tok, map[string]any{"name": "  "})
	if w.Code != 400 {
		t.Fatalf("status=%d", w.Code)
	}
	w = doJSON(t, h, "PUT", "/api/families/no-such-id", tok, map[string]any{"name": "X"})
	if w.Code != 404 {
		t.Fatalf("status=%d", w.Code)
	}
	w = doJSON(t, h, "DELETE", "/api/families/no-such-id", tok, nil)
	if w.Code != 404 {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(t)

	r := httptest.NewRequest("OPTIONS", "/api/donations", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != 204 {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Header().Get("access-control-allow-origin"); got != "http://localhost:5173" {
		t.Fatalf("allow-origin=%q", got)
	}

	r = httptest.NewRequest("OPTIONS", "/api/donations", nil)
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Header().Get("access-control-allow-origin") != "" {
		t.Fatalf("unexpected allow-origin for unknown origin")
	}
}

func TestHealthAndIndex(t *testing.T) {
	_, h := newTestServer(t)

	w := doJSON(t, h, "GET", "/health", "", nil)
	if w.Code != 200 {
		t.Fatalf("health status=%d", w.Code)
	}
	w = doJSON(t, h, "GET", "/", "", nil)
	if w.Code != 200 {
		t.Fatalf("index status=%d", w.Code)
	}
	w = doJSON(t, h, "GET", "/no-such-path", "", nil)
	if w.Code != 404 {
		t.Fatalf("unknown path status=%d", w.Code)
	}
}
