// Setup tests cover default credential seeding.
package setup

import (
	"context"
	"testing"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/auth"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/db"
)

// TestEnsureDefaultAdminIdempotent seeds once and never again.
func TestEnsureDefaultAdminIdempotent(t *testing.T) {
	ctx := context.Background()
	d, err := db.Open(ctx, t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if err := EnsureDefaultAdmin(ctx, d, nil); err != nil {
		t.Fatalf("EnsureDefaultAdmin: %v", err)
	}
	if err := EnsureDefaultAdmin(ctx, d, nil); err != nil {
		t.Fatalf("EnsureDefaultAdmin (second): %v", err)
	}
	n, err := d.CountUsers(ctx)
	if err != nil || n != 1 {
		t.Fatalf("CountUsers=%d err=%v, want 1", n, err)
	}

	u, ok, err := d.GetUserByUsername(ctx, DefaultAdminUsername)
	if err != nil || !ok {
		t.Fatalf("GetUserByUsername: ok=%v err=%v", ok, err)
	}
	match, err := auth.VerifyPassword(DefaultAdminPassword, u.PassHash)
	if err != nil || !match {
		t.Fatalf("default password should verify, match=%v err=%v", match, err)
	}
}

// TestEnsureDefaultAdminSkipsWhenUsersExist does not seed alongside an
// existing credential.
func TestEnsureDefaultAdminSkipsWhenUsersExist(t *testing.T) {
	ctx := context.Background()
	d, err := db.Open(ctx, t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if _, err := d.CreateUser(ctx, "operator", "hash"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := EnsureDefaultAdmin(ctx, d, nil); err != nil {
		t.Fatalf("EnsureDefaultAdmin: %v", err)
	}
	if _, ok, _ := d.GetUserByUsername(ctx, DefaultAdminUsername); ok {
		t.Fatalf("default admin should not be seeded when users exist")
	}
}
