package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukerupert/eventory/internal/model"
)

type VendorStore struct {
	db *sql.DB
}

func NewVendorStore(db *sql.DB) *VendorStore {
	return &VendorStore{db: db}
}

const vendorCols = `id, name, email, password, phone, address, company_name, payment_mode, upi_id,
	bank_details, city, is_active, is_discarded, created_at, updated_at`

var vendorSortColumns = map[string]string{
	"name":        "name",
	"email":       "email",
	"companyName": "company_name",
	"city":        "city",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

func scanVendor(s scanner) (*model.Vendor, error) {
	var (
		v                model.Vendor
		bank             sql.NullString
		created, updated string
	)
	err := s.Scan(&v.ID, &v.Name, &v.Email, &v.Password, &v.Phone, &v.Address, &v.CompanyName,
		&v.PaymentMode, &v.UPIID, &bank, &v.City, &v.IsActive, &v.IsDiscarded, &created, &updated)
	if err != nil {
		return nil, err
	}
	if bank.Valid && bank.String != "" {
		v.BankDetails = &model.BankDetails{}
		if err := json.Unmarshal([]byte(bank.String), v.BankDetails); err != nil {
			return nil, fmt.Errorf("decode bank details: %w", err)
		}
	}
	if v.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if v.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &v, nil
}

func encodeBank(b *model.BankDetails) (sql.NullString, error) {
	if b == nil {
		return sql.NullString{}, nil
	}
	s, err := encodeJSON(b)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode bank details: %w", err)
	}
	return sql.NullString{String: s, Valid: true}, nil
}

// Create inserts v. The password must already be hashed.
func (s *VendorStore) Create(ctx context.Context, v *model.Vendor) (*model.Vendor, error) {
	bank, err := encodeBank(v.BankDetails)
	if err != nil {
		return nil, err
	}
	id := newID()
	ts := formatTime(now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO vendors (`+vendorCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, v.Name, v.Email, v.Password, v.Phone, v.Address, v.CompanyName, string(v.PaymentMode), v.UPIID,
		bank, v.City, v.IsActive, v.IsDiscarded, ts, ts,
	)
	if err != nil {
		return nil, wrapWrite("insert vendor", err)
	}
	return s.GetByID(ctx, id)
}

func (s *VendorStore) GetByID(ctx context.Context, id string) (*model.Vendor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+vendorCols+` FROM vendors WHERE id = ?`, id)
	v, err := scanVendor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}
	return v, nil
}

func (s *VendorStore) List(ctx context.Context, q VendorQuery) ([]model.Vendor, error) {
	var w where
	if q.City != "" {
		w.add(`lower(city) = lower(?)`, q.City)
	}
	if q.CompanyName != "" {
		w.add(`company_name LIKE ? ESCAPE '\'`, likePattern(q.CompanyName))
	}
	if q.Search != "" {
		p := likePattern(q.Search)
		w.add(`(name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\' OR company_name LIKE ? ESCAPE '\' OR city LIKE ? ESCAPE '\')`, p, p, p, p)
	}
	if q.IsActive != nil {
		w.add(`is_active = ?`, boolInt(*q.IsActive))
	}
	if q.IsDiscarded != nil {
		w.add(`is_discarded = ?`, boolInt(*q.IsDiscarded))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+vendorCols+` FROM vendors`+w.String()+orderBy(q.Sort, vendorSortColumns, ""), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	vendors := []model.Vendor{}
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, *v)
	}
	return vendors, rows.Err()
}

func (s *VendorStore) Update(ctx context.Context, id string, p model.VendorPatch) (*model.Vendor, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets, args = append(sets, col+" = ?"), append(args, v)
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Email != nil {
		set("email", *p.Email)
	}
	if p.Phone != nil {
		set("phone", *p.Phone)
	}
	if p.Address != nil {
		set("address", *p.Address)
	}
	if p.CompanyName != nil {
		set("company_name", *p.CompanyName)
	}
	if p.PaymentMode != nil {
		set("payment_mode", string(*p.PaymentMode))
	}
	if p.UPIID != nil {
		set("upi_id", *p.UPIID)
	}
	if p.BankDetails != nil {
		bank, err := encodeBank(p.BankDetails)
		if err != nil {
			return nil, err
		}
		set("bank_details", bank)
	}
	if p.City != nil {
		set("city", *p.City)
	}
	if p.IsActive != nil {
		set("is_active", *p.IsActive)
	}
	if p.IsDiscarded != nil {
		set("is_discarded", *p.IsDiscarded)
	}
	set("updated_at", formatTime(now()))
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE vendors SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, wrapWrite("update vendor", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *VendorStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM vendors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vendor: %w", err)
	}
	return nil
}
