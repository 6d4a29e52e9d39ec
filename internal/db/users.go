package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// nowUnix returns the current Unix timestamp in seconds.
func nowUnix() int64 { return time.Now().Unix() }

// CreateUser inserts a new user and returns its generated ID.
func (d *DB) CreateUser(ctx context.Context, username, passHash string) (string, error) {
	if username == "" || passHash == "" {
		return "", errors.New("username and password hash are required")
	}
	id := uuid.NewString()
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO users(id, username, password_hash, created_at) VALUES(?, ?, ?, ?)
`, id, username, passHash, nowUnix())
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetUserByUsername looks up a user by username.
// The boolean indicates whether the user exists.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*User, bool, error) {
	var u User
	err := d.sql.QueryRowContext(ctx, `
SELECT id, username, password_hash, created_at FROM users WHERE username=?
`, username).Scan(&u.ID, &u.Username, &u.PassHash, &u.CreatedAt)
	if err == nil {
		return &u, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// CountUsers returns the number of credential rows.
func (d *DB) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// SetUserPasswordHash replaces a user's password hash.
func (d *DB) SetUserPasswordHash(ctx context.Context, username, passHash string) error {
	if username == "" || passHash == "" {
		return errors.New("username and password hash are required")
	}
	res, err := d.sql.ExecContext(ctx, `UPDATE users SET password_hash=? WHERE username=?`, passHash, username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("user not found")
	}
	return nil
}
