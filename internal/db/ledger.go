package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// CreateDonation inserts a donation row with a generated id and server
// timestamp, filling them into dn.
func (d *DB) CreateDonation(ctx context.Context, dn *Donation) error {
	if dn == nil || dn.ResponsibleName == "" || dn.Quantity <= 0 {
		return errors.New("invalid donation")
	}
	dn.ID = uuid.NewString()
	dn.CreatedAt = nowUnix()
	if dn.Type == "" {
		dn.Type = "entry"
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO donations(id, responsible_name, cpf, phone, quantity, type, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, dn.ID, dn.ResponsibleName, dn.CPF, dn.Phone, dn.Quantity, dn.Type, dn.CreatedAt)
	return err
}

// ListDonations returns all donations, most recent first.
func (d *DB) ListDonations(ctx context.Context) ([]Donation, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT id, responsible_name, cpf, phone, quantity, type, created_at
FROM donations ORDER BY created_at DESC, rowid DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Donation
	for rows.Next() {
		var dn Donation
		if err := rows.Scan(&dn.ID, &dn.ResponsibleName, &dn.CPF, &dn.Phone, &dn.Quantity, &dn.Type, &dn.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, dn)
	}
	return out, rows.Err()
}

// TotalDonations returns the sum of donated basket quantities.
func (d *DB) TotalDonations(ctx context.Context) (int64, error) {
	var n int64
	err := d.sql.QueryRowContext(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM donations`).Scan(&n)
	return n, err
}

// TotalDistributions returns the sum of distributed basket quantities.
func (d *DB) TotalDistributions(ctx context.Context) (int64, error) {
	var n int64
	err := d.sql.QueryRowContext(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM distributions`).Scan(&n)
	return n, err
}

// StockBalance returns total donated minus total distributed.
func (d *DB) StockBalance(ctx context.Context) (int64, error) {
	var n int64
	err := d.sql.QueryRowContext(ctx, `
SELECT COALESCE((SELECT SUM(quantity) FROM donations), 0)
     - COALESCE((SELECT SUM(quantity) FROM distributions), 0)
`).Scan(&n)
	return n, err
}

// CreateDistribution atomically checks stock and inserts a distribution
// row. The balance read and the insert run inside one transaction on the
// single write connection, so two concurrent calls can never both pass a
// check only one of them can satisfy. When stock is insufficient nothing
// is written and (false, available, nil) is returned; the generated id
// and server timestamp are filled into dist on success.
func (d *DB) CreateDistribution(ctx context.Context, dist *Distribution) (bool, int64, error) {
	if dist == nil || dist.FamilyID == "" || dist.FamilyName == "" || dist.PickupPersonName == "" || dist.Quantity <= 0 {
		return false, 0, errors.New("invalid distribution")
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var available int64
	err = tx.QueryRowContext(ctx, `
SELECT COALESCE((SELECT SUM(quantity) FROM donations), 0)
     - COALESCE((SELECT SUM(quantity) FROM distributions), 0)
`).Scan(&available)
	if err != nil {
		return false, 0, err
	}
	if dist.Quantity > available {
		return false, available, nil
	}

	dist.ID = uuid.NewString()
	dist.CreatedAt = nowUnix()
	if dist.Date == 0 {
		dist.Date = dist.CreatedAt
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO distributions(id, family_id, family_name, pickup_person_name, quantity, date, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, dist.ID, dist.FamilyID, dist.FamilyName, dist.PickupPersonName, dist.Quantity, dist.Date, dist.CreatedAt)
	if err != nil {
		return false, 0, err
	}
	if err := tx.Commit(); err != nil {
		return false, 0, err
	}
	return true, available, nil
}

// ListDistributions returns distributions, most recent first. A limit of
// zero or less returns all rows.
func (d *DB) ListDistributions(ctx context.Context, limit int) ([]Distribution, error) {
	q := `
SELECT id, family_id, family_name, pickup_person_name, quantity, date, created_at
FROM distributions ORDER BY created_at DESC, rowid DESC
`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = d.sql.QueryContext(ctx, q+` LIMIT ?`, limit)
	} else {
		rows, err = d.sql.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Distribution
	for rows.Next() {
		var dist Distribution
		if err := rows.Scan(&dist.ID, &dist.FamilyID, &dist.FamilyName, &dist.PickupPersonName, &dist.Quantity, &dist.Date, &dist.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, dist)
	}
	return out, rows.Err()
}
