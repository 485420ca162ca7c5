package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukerupert/eventory/internal/model"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemCols = `i.id, i.name, i.description, i.prices, i.category_id, i.vendor_id, i.image, i.is_active, i.created_at, i.updated_at`

// itemViewSelect joins the referenced category and vendor names.
const itemViewSelect = `SELECT ` + itemCols + `, c.id, c.name, v.id, v.name
	FROM items i
	LEFT JOIN categories c ON c.id = i.category_id
	LEFT JOIN vendors v ON v.id = i.vendor_id`

var itemSortColumns = map[string]string{
	"name":      "i.name",
	"createdAt": "i.created_at",
	"updatedAt": "i.updated_at",
}

func scanItemView(s scanner) (*model.ItemView, error) {
	var (
		it                   model.Item
		prices               string
		created, updated     string
		catID, catName       sql.NullString
		vendorID, vendorName sql.NullString
	)
	err := s.Scan(&it.ID, &it.Name, &it.Description, &prices, &it.CategoryID, &it.VendorID,
		&it.Image, &it.IsActive, &created, &updated, &catID, &catName, &vendorID, &vendorName)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(prices), &it.Prices); err != nil {
		return nil, fmt.Errorf("decode item prices: %w", err)
	}
	if it.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}

	var category, vendor *model.Ref
	if catID.Valid {
		category = &model.Ref{ID: catID.String, Name: catName.String}
	}
	if vendorID.Valid {
		vendor = &model.Ref{ID: vendorID.String, Name: vendorName.String}
	}
	v := model.NewItemView(it, category, vendor)
	return &v, nil
}

func (s *ItemStore) Create(ctx context.Context, it *model.Item) (*model.Item, error) {
	prices, err := encodeJSON(it.Prices)
	if err != nil {
		return nil, fmt.Errorf("encode item prices: %w", err)
	}
	id := newID()
	ts := formatTime(now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (id, name, description, prices, category_id, vendor_id, image, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, it.Name, it.Description, prices, it.CategoryID, nullString(it.VendorID), it.Image, it.IsActive, ts, ts,
	)
	if err != nil {
		return nil, wrapWrite("insert item", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the bare item, or nil when it does not exist.
func (s *ItemStore) GetByID(ctx context.Context, id string) (*model.Item, error) {
	v, err := s.GetView(ctx, id)
	if err != nil || v == nil {
		return nil, err
	}
	return &v.Item, nil
}

// GetView returns the item with its category and vendor populated.
func (s *ItemStore) GetView(ctx context.Context, id string) (*model.ItemView, error) {
	row := s.db.QueryRowContext(ctx, itemViewSelect+` WHERE i.id = ?`, id)
	v, err := scanItemView(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return v, nil
}

func (s *ItemStore) List(ctx context.Context, q ItemQuery) ([]model.ItemView, error) {
	var w where
	if q.CategoryID != "" {
		w.add(`i.category_id = ?`, q.CategoryID)
	}
	switch {
	case q.AdminOwned:
		w.add(`i.vendor_id IS NULL`)
	case q.VendorID != "":
		w.add(`i.vendor_id = ?`, q.VendorID)
	}
	if q.IsActive != nil {
		w.add(`i.is_active = ?`, boolInt(*q.IsActive))
	}
	if q.Search != "" {
		w.add(`i.name LIKE ? ESCAPE '\'`, likePattern(q.Search))
	}
	if q.City != "" {
		// One price entry must match the city and both bounds.
		clause := `EXISTS (SELECT 1 FROM json_each(i.prices) p WHERE lower(json_extract(p.value, '$.city')) = lower(?)`
		args := []any{q.City}
		if q.MinPrice != nil {
			clause += ` AND json_extract(p.value, '$.price') >= ?`
			args = append(args, *q.MinPrice)
		}
		if q.MaxPrice != nil {
			clause += ` AND json_extract(p.value, '$.price') <= ?`
			args = append(args, *q.MaxPrice)
		}
		w.add(clause+`)`, args...)
	}

	rows, err := s.db.QueryContext(ctx, itemViewSelect+w.String()+orderBy(q.Sort, itemSortColumns, "i."), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []model.ItemView{}
	for rows.Next() {
		v, err := scanItemView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *v)
	}
	return items, rows.Err()
}

func (s *ItemStore) Update(ctx context.Context, id string, p model.ItemPatch) (*model.Item, error) {
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *p.Description)
	}
	if p.Prices != nil {
		prices, err := encodeJSON(p.Prices)
		if err != nil {
			return nil, fmt.Errorf("encode item prices: %w", err)
		}
		sets, args = append(sets, "prices = ?"), append(args, prices)
	}
	if p.CategoryID != nil {
		sets, args = append(sets, "category_id = ?"), append(args, *p.CategoryID)
	}
	if p.VendorSet {
		sets, args = append(sets, "vendor_id = ?"), append(args, nullString(p.VendorID))
	}
	if p.Image != nil {
		sets, args = append(sets, "image = ?"), append(args, *p.Image)
	}
	if p.IsActive != nil {
		sets, args = append(sets, "is_active = ?"), append(args, *p.IsActive)
	}
	sets, args = append(sets, "updated_at = ?"), append(args, formatTime(now()))
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, wrapWrite("update item", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *ItemStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
