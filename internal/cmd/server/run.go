// Package server implements the "basketd server" CLI subcommand.
package server

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/config"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/daemon"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/logging"
	"github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/version"
)

type Options struct {
	ConfigPath string
	LogLevel   string
	LogJSON    bool

	DBPath   string
	BindAddr string
	Port     int
}

func Run(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	var opt Options
	var showVersion bool
	fs.StringVar(&opt.ConfigPath, "config", "", "path to basketd.yaml (when set, other flags are ignored)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.StringVar(&opt.LogLevel, "log-level", "info", "log level: debug|info|warning|error")
	fs.BoolVar(&opt.LogJSON, "log-json", false, "emit logs as JSON")
	fs.StringVar(&opt.DBPath, "db", "./data/basketd.db", "sqlite database path")
	fs.StringVar(&opt.BindAddr, "bind", "127.0.0.1", "bind address")
	fs.IntVar(&opt.Port, "port", 5000, "HTTP port")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Printf("basketd server %s\n", version.Version)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opt.ConfigPath != "" {
		c, err := config.Load(opt.ConfigPath)
		if err != nil {
			return err
		}
		lvl := c.Log.Level
		// CLI overrides config.
		if strings.TrimSpace(opt.LogLevel) != "" {
			lvl = opt.LogLevel
		}
		lg, _, err := logging.New(logging.Options{Level: lvl, JSON: c.Log.JSON, DefaultSlog: true})
		if err != nil {
			return err
		}
		base := filepath.Dir(opt.ConfigPath)
		return daemon.Run(ctx, daemon.Options{
			DBPath:         resolvePath(base, c.DB.Path),
			BindAddr:       c.HTTP.Bind,
			Port:           c.HTTP.Port,
			AllowedOrigins: c.HTTP.AllowedOrigins,
			TokenSecret:    c.Auth.Secret,
			TokenTTL:       time.Duration(c.Auth.TokenTTLDays) * 24 * time.Hour,
			Logger:         lg,
		})
	}

	c := config.Default()
	c.DB.Path = opt.DBPath
	c.HTTP.Bind = opt.BindAddr
	c.HTTP.Port = opt.Port
	if err := config.Validate(&c); err != nil {
		return err
	}
	lg, _, err := logging.New(logging.Options{Level: opt.LogLevel, JSON: opt.LogJSON, DefaultSlog: true})
	if err != nil {
		return err
	}
	return daemon.Run(ctx, daemon.Options{
		DBPath:         c.DB.Path,
		BindAddr:       c.HTTP.Bind,
		Port:           c.HTTP.Port,
		AllowedOrigins: c.HTTP.AllowedOrigins,
		TokenSecret:    c.Auth.Secret,
		TokenTTL:       time.Duration(c.Auth.TokenTTLDays) * 24 * time.Hour,
		Logger:         lg,
	})
}

// resolvePath makes config-relative paths absolute against the config
// file's directory.
func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
