package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// CreateFamily inserts a family and its children in one transaction,
// filling generated ids and timestamps into f.
func (d *DB) CreateFamily(ctx context.Context, f *Family) error {
	if f == nil || f.Name == "" {
		return errors.New("family name is required")
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	f.ID = uuid.NewString()
	f.CreatedAt = nowUnix()
	f.UpdatedAt = f.CreatedAt
	_, err = tx.ExecContext(ctx, `
INSERT INTO families(id, name, father_name, mother_name, number_of_children,
  is_employed, receives_government_aid, government_aid_type,
  has_critical_factor, critical_factor_notes, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, f.ID, f.Name, f.FatherName, f.MotherName, f.NumberOfChildren,
		boolToInt(f.IsEmployed), boolToInt(f.ReceivesGovernmentAid), f.GovernmentAidType,
		boolToInt(f.HasCriticalFactor), f.CriticalFactorNotes, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range f.Children {
		c := &f.Children[i]
		c.ID = uuid.NewString()
		c.FamilyID = f.ID
		if _, err := tx.ExecContext(ctx, `
INSERT INTO children(id, family_id, name, age) VALUES(?, ?, ?, ?)
`, c.ID, c.FamilyID, c.Name, c.Age); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateFamily replaces a family's fields and its children set, bumping
// updated_at. Returns false when the family does not exist.
func (d *DB) UpdateFamily(ctx context.Context, f *Family) (bool, error) {
	if f == nil || f.ID == "" || f.Name == "" {
		return false, errors.New("family id and name are required")
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	f.UpdatedAt = nowUnix()
	res, err := tx.ExecContext(ctx, `
UPDATE families SET name=?, father_name=?, mother_name=?, number_of_children=?,
  is_employed=?, receives_government_aid=?, government_aid_type=?,
  has_critical_factor=?, critical_factor_notes=?, updated_at=?
WHERE id=?
`, f.Name, f.FatherName, f.MotherName, f.NumberOfChildren,
		boolToInt(f.IsEmployed), boolToInt(f.ReceivesGovernmentAid), f.GovernmentAidType,
		boolToInt(f.HasCriticalFactor), f.CriticalFactorNotes, f.UpdatedAt, f.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM children WHERE family_id=?`, f.ID); err != nil {
		return false, err
	}
	for i := range f.Children {
		c := &f.Children[i]
		c.ID = uuid.NewString()
		c.FamilyID = f.ID
		if _, err := tx.ExecContext(ctx, `
INSERT INTO children(id, family_id, name, age) VALUES(?, ?, ?, ?)
`, c.ID, c.FamilyID, c.Name, c.Age); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// GetFamily looks up a family with its children.
// The boolean indicates whether the family exists.
func (d *DB) GetFamily(ctx context.Context, id string) (*Family, bool, error) {
	var f Family
	var employed, aid, critical int
	err := d.sql.QueryRowContext(ctx, `
SELECT id, name, COALESCE(father_name, ''), COALESCE(mother_name, ''), number_of_children,
  is_employed, receives_government_aid, COALESCE(government_aid_type, ''),
  has_critical_factor, COALESCE(critical_factor_notes, ''), created_at, updated_at
FROM families WHERE id=?
`, id).Scan(&f.ID, &f.Name, &f.FatherName, &f.MotherName, &f.NumberOfChildren,
		&employed, &aid, &f.GovernmentAidType, &critical, &f.CriticalFactorNotes,
		&f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	f.IsEmployed = employed != 0
	f.ReceivesGovernmentAid = aid != 0
	f.HasCriticalFactor = critical != 0

	children, err := d.listChildren(ctx, f.ID)
	if err != nil {
		return nil, false, err
	}
	f.Children = children
	return &f, true, nil
}

// ListFamilies returns all families with their children, most recent first.
func (d *DB) ListFamilies(ctx context.Context) ([]Family, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT id, name, COALESCE(father_name, ''), COALESCE(mother_name, ''), number_of_children,
  is_employed, receives_government_aid, COALESCE(government_aid_type, ''),
  has_critical_factor, COALESCE(critical_factor_notes, ''), created_at, updated_at
FROM families ORDER BY created_at DESC, rowid DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Family
	for rows.Next() {
		var f Family
		var employed, aid, critical int
		if err := rows.Scan(&f.ID, &f.Name, &f.FatherName, &f.MotherName, &f.NumberOfChildren,
			&employed, &aid, &f.GovernmentAidType, &critical, &f.CriticalFactorNotes,
			&f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		f.IsEmployed = employed != 0
		f.ReceivesGovernmentAid = aid != 0
		f.HasCriticalFactor = critical != 0
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		children, err := d.listChildren(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Children = children
	}
	return out, nil
}

// DeleteFamily removes a family; children cascade via foreign key.
// Returns false when the family does not exist.
func (d *DB) DeleteFamily(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.New("family id is required")
	}
	res, err := d.sql.ExecContext(ctx, `DELETE FROM families WHERE id=?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountFamilies returns the number of registered families.
func (d *DB) CountFamilies(ctx context.Context) (int64, error) {
	var n int64
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM families`).Scan(&n)
	return n, err
}

func (d *DB) listChildren(ctx context.Context, familyID string) ([]Child, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT id, family_id, name, age FROM children WHERE family_id=? ORDER BY age DESC, name ASC
`, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Child
	for rows.Next() {
		var c Child
		if err := rows.Scan(&c.ID, &c.FamilyID, &c.Name, &c.Age); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// boolToInt maps booleans to SQLite-friendly integer flags.
func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
