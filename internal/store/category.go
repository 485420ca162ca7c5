package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukerupert/eventory/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryCols = `id, name, slug, description, parent_id, level, path, is_active, image, created_at, updated_at`

var categorySortColumns = map[string]string{
	"name":      "name",
	"slug":      "slug",
	"level":     "level",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func scanCategory(s scanner) (*model.Category, error) {
	var (
		c                model.Category
		path             string
		created, updated string
	)
	err := s.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.Level, &path,
		&c.IsActive, &c.Image, &created, &updated)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(path), &c.Path); err != nil {
		return nil, fmt.Errorf("decode category path: %w", err)
	}
	if c.Path == nil {
		c.Path = []string{}
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts c, assigning its ID and timestamps. The caller sets the
// placement.
func (s *CategoryStore) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	if c.Path == nil {
		c.Path = []string{}
	}
	path, err := encodeJSON(c.Path)
	if err != nil {
		return nil, fmt.Errorf("encode category path: %w", err)
	}
	id := newID()
	ts := formatTime(now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Name, c.Slug, c.Description, nullString(c.ParentID), c.Level, path, c.IsActive, c.Image, ts, ts,
	)
	if err != nil {
		return nil, wrapWrite("insert category", err)
	}
	return s.GetByID(ctx, id)
}

func (s *CategoryStore) GetByID(ctx context.Context, id string) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *CategoryStore) List(ctx context.Context, q CategoryQuery) ([]model.Category, error) {
	var w where
	if q.Search != "" {
		p := likePattern(q.Search)
		w.add(`(name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`, p, p)
	}
	if q.ParentID != nil {
		if *q.ParentID == "" {
			w.add(`parent_id IS NULL`)
		} else {
			w.add(`parent_id = ?`, *q.ParentID)
		}
	}
	if q.IsActive != nil {
		w.add(`is_active = ?`, boolInt(*q.IsActive))
	}
	return s.query(ctx, `SELECT `+categoryCols+` FROM categories`+w.String()+orderBy(q.Sort, categorySortColumns, ""), w.args...)
}

// ListDescendants returns every category that has id among its ancestors.
func (s *CategoryStore) ListDescendants(ctx context.Context, id string) ([]model.Category, error) {
	return s.query(ctx,
		`SELECT `+categoryCols+` FROM categories
		 WHERE EXISTS (SELECT 1 FROM json_each(categories.path) WHERE json_each.value = ?)
		 ORDER BY level ASC`, id)
}

func (s *CategoryStore) query(ctx context.Context, query string, args ...any) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// Update applies p to the category and returns the result, or nil when the
// category does not exist.
func (s *CategoryStore) Update(ctx context.Context, id string, p model.CategoryPatch) (*model.Category, error) {
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.Slug != nil {
		sets, args = append(sets, "slug = ?"), append(args, *p.Slug)
	}
	if p.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *p.Description)
	}
	if p.IsActive != nil {
		sets, args = append(sets, "is_active = ?"), append(args, *p.IsActive)
	}
	if p.Image != nil {
		sets, args = append(sets, "image = ?"), append(args, *p.Image)
	}
	if p.Placement != nil {
		path, err := encodeJSON(nonNil(p.Placement.Path))
		if err != nil {
			return nil, fmt.Errorf("encode category path: %w", err)
		}
		sets = append(sets, "parent_id = ?", "level = ?", "path = ?")
		args = append(args, nullString(p.Placement.ParentID), p.Placement.Level, path)
	}
	sets, args = append(sets, "updated_at = ?"), append(args, formatTime(now()))
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE categories SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, wrapWrite("update category", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

// SetPlacement moves a category without touching its other fields.
func (s *CategoryStore) SetPlacement(ctx context.Context, id string, pl model.Placement) error {
	_, err := s.Update(ctx, id, model.CategoryPatch{Placement: &pl})
	return err
}

func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func nonNil(path []string) []string {
	if path == nil {
		return []string{}
	}
	return path
}
