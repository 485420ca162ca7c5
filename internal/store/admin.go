package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/eventory/internal/model"
)

type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

const adminCols = `id, name, email, password, role, created_at, updated_at`

func scanAdmin(s scanner) (*model.Admin, error) {
	var (
		a                model.Admin
		role             string
		created, updated string
	)
	err := s.Scan(&a.ID, &a.Name, &a.Email, &a.Password, &role, &created, &updated)
	if err != nil {
		return nil, err
	}
	a.Role = model.Role(role)
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a. The password must already be hashed.
func (s *AdminStore) Create(ctx context.Context, a *model.Admin) (*model.Admin, error) {
	id := newID()
	ts := formatTime(now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (`+adminCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, a.Name, a.Email, a.Password, string(a.Role), ts, ts,
	)
	if err != nil {
		return nil, wrapWrite("insert admin", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AdminStore) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	return s.getBy(ctx, "id", id)
}

// GetByEmail looks an admin up by email, ignoring case.
func (s *AdminStore) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return s.getBy(ctx, "email", email)
}

func (s *AdminStore) getBy(ctx context.Context, col, value string) (*model.Admin, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+adminCols+` FROM admins WHERE `+col+` = ?`, value)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

func (s *AdminStore) List(ctx context.Context) ([]model.Admin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+adminCols+` FROM admins ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	admins := []model.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, *a)
	}
	return admins, rows.Err()
}

func (s *AdminStore) UpdateRole(ctx context.Context, id string, role model.Role) (*model.Admin, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE admins SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), formatTime(now()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update admin role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *AdminStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}

func (s *AdminStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
