// Package daemon wires the database, ledger, and HTTP API together and
// runs them until the context is canceled.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/auth"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/db"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/httpapi"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/ledger"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/setup"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/version"
)

type Options struct {
	DBPath         string
	BindAddr       string
	Port           int
	AllowedOrigins []string
	TokenSecret    string
	TokenTTL       time.Duration
	Logger         *slog.Logger
}

func Run(ctx context.Context, opt Options) error {
	if opt.DBPath == "" {
		return errors.New("db path is required")
	}
	if opt.TokenSecret == "" {
		return errors.New("token secret is required")
	}
	if opt.Logger == nil {
		return errors.New("logger is required")
	}

	if dir := filepath.Dir(opt.DBPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	d, err := db.Open(ctx, opt.DBPath)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := setup.EnsureDefaultAdmin(ctx, d, opt.Logger); err != nil {
		return err
	}

	api := &httpapi.Server{
		DB:             d,
		Ledger:         &ledger.Service{DB: d},
		Tokens:         auth.NewTokenIssuer(opt.TokenSecret, opt.TokenTTL),
		Logger:         opt.Logger,
		BindAddr:       opt.BindAddr,
		Port:           opt.Port,
		AllowedOrigins: opt.AllowedOrigins,
	}

	opt.Logger.Info("basketd starting",
		"version", version.Version,
		"bind", opt.BindAddr,
		"port", opt.Port,
		"db", opt.DBPath)
	return api.ListenAndServe(ctx)
}
