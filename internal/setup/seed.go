// Package setup provisions credentials: the first-run default admin and
// password resets.
package setup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/auth"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/db"
)

// Default credential seeded when the user table is empty. Rotate it with
// `basketd reset-admin` before exposing the server.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

// EnsureDefaultAdmin seeds the default administrative credential when no
// credential exists yet. Idempotent; runs at every server start.
func EnsureDefaultAdmin(ctx context.Context, d *db.DB, lg *slog.Logger) error {
	n, err := d.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	h, err := auth.HashPassword(DefaultAdminPassword, auth.DefaultParams())
	if err != nil {
		return fmt.Errorf("hash default password: %w", err)
	}
	if _, err := d.CreateUser(ctx, DefaultAdminUsername, h); err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}
	if lg != nil {
		lg.Warn("seeded default admin credential; change it with `basketd reset-admin`",
			"username", DefaultAdminUsername)
	}
	return nil
}
