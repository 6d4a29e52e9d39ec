// Package resetadmin implements the "basketd reset-admin" CLI
// subcommand. It replaces an operator's password directly in the
// SQLite database.
package resetadmin

import (
	"context"
	"flag"

	isetup "github.com/rf-baldi/BACKEND-SISTEMA-LAR-MARIA-DE-NAZAR/internal/setup"
)

// Options captures CLI flags for the password reset.
// Password and PasswordEnv are mutually exclusive by usage.
type Options struct {
	DBPath      string
	Username    string
	Password    string
	PasswordEnv bool
}

// Run parses reset-admin flags and executes the password reset. The
// reset is local-only and does not require the server to be running.
func Run(args []string) error {
	fs := flag.NewFlagSet("reset-admin", flag.ContinueOnError)
	var opt Options
	fs.StringVar(&opt.DBPath, "db", "./data/basketd.db", "sqlite database path")
	fs.StringVar(&opt.Username, "username", "", "account to reset (default admin)")
	fs.StringVar(&opt.Password, "password", "", "set the password non-interactively")
	fs.BoolVar(&opt.PasswordEnv, "password-env", false, "read the password from "+isetup.PasswordEnv)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return isetup.ResetAdmin(context.Background(), isetup.ResetAdminOptions{
		DBPath:      opt.DBPath,
		Username:    opt.Username,
		Password:    opt.Password,
		PasswordEnv: opt.PasswordEnv,
	})
}
