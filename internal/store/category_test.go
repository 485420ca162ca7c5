package store

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"

	"github.com/dukerupert/eventory/internal/database"
	"github.com/dukerupert/eventory/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func createCategory(t *testing.T, cs *CategoryStore, name, slug string, parent *model.Category) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Slug: slug, IsActive: true, Path: []string{}}
	if parent != nil {
		c.ParentID = strPtr(parent.ID)
		c.Level = parent.Level + 1
		c.Path = append(append([]string{}, parent.Path...), parent.ID)
	}
	created, err := cs.Create(context.Background(), c)
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return created
}

func TestCategoryCreate(t *testing.T) {
	cs := NewCategoryStore(setupTestDB(t))

	root := createCategory(t, cs, "Tents", "tents", nil)
	if root.ID == "" {
		t.Error("expected non-empty ID")
	}
	if root.ParentID != nil || root.Level != 0 || len(root.Path) != 0 {
		t.Errorf("root placement = %v/%d/%v", root.ParentID, root.Level, root.Path)
	}
	if root.CreatedAt.IsZero() {
		t.Error("expected createdAt to be set")
	}

	child := createCategory(t, cs, "Party Tents", "party-tents", root)
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Errorf("parentId = %v, want %s", child.ParentID, root.ID)
	}
	if !slices.Equal(child.Path, []string{root.ID}) {
		t.Errorf("path = %v", child.Path)
	}
}

func TestCategoryCreateDuplicate(t *testing.T) {
	cs := NewCategoryStore(setupTestDB(t))
	createCategory(t, cs, "Tents", "tents", nil)

	_, err := cs.Create(context.Background(), &model.Category{Name: "Other", Slug: "tents"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate slug err = %v, want ErrDuplicate", err)
	}
	_, err = cs.Create(context.Background(), &model.Category{Name: "tents", Slug: "tents-2"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate name err = %v, want ErrDuplicate", err)
	}
}

func TestCategoryGetNotFound(t *testing.T) {
	cs := NewCategoryStore(setupTestDB(t))

	c, err := cs.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
}

func TestCategoryListFilters(t *testing.T) {
	cs := NewCategoryStore(setupTestDB(t))
	ctx := context.Background()

	root := createCategory(t, cs, "Furniture", "furniture", nil)
	createCategory(t, cs, "Chairs", "chairs", root)
	lights := createCategory(t, cs, "Lights", "lights", nil)
	if _, err := cs.Update(ctx, lights.ID, model.CategoryPatch{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	roots, err := cs.List(ctx, CategoryQuery{ParentID: strPtr("")})
	if err != nil {
		t.Fatalf("list roots: %v", err)
	}
	if len(roots) != 2 {
		t.Errorf("roots = %d, want 2", len(roots))
	}

	children, _ := cs.List(ctx, CategoryQuery{ParentID: strPtr(root.ID)})
	if len(children) != 1 || children[0].Name != "Chairs" {
		t.Errorf("children = %+v", children)
	}

	active, _ := cs.List(ctx, CategoryQuery{IsActive: boolPtr(true)})
	if len(active) != 2 {
		t.Errorf("active = %d, want 2", len(active))
	}

	found, _ := cs.List(ctx, CategoryQuery{Search: "CHA"})
	if len(found) != 1 || found[0].Slug != "chairs" {
		t.Errorf("search = %+v", found)
	}

	byName, _ := cs.List(ctx, CategoryQuery{Sort: Sort{Field: "name"}})
	if len(byName) != 3 || byName[0].Name != "Chairs" {
		t.Errorf("sorted = %+v", byName)
	}
}

func TestCategoryDescendantsAndPlacement(t *testing.T) {
	cs := NewCategoryStore(setupTestDB(t))
	ctx := context.Background()

	a := createCategory(t, cs, "A", "a", nil)
	b := createCategory(t, cs, "B", "b", a)
	c := createCategory(t, cs, "C", "c", b)
	createCategory(t, cs, "Z", "z", nil)

	desc, err := cs.ListDescendants(ctx, a.ID)
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	if len(desc) != 2 || desc[0].ID != b.ID || desc[1].ID != c.ID {
		t.Errorf("descendants = %+v", desc)
	}

	if err := cs.SetPlacement(ctx, c.ID, model.Placement{Path: []string{}}); err != nil {
		t.Fatalf("set placement: %v", err)
	}
	got, _ := cs.GetByID(ctx, c.ID)
	if got.ParentID != nil || got.Level != 0 || len(got.Path) != 0 {
		t.Errorf("moved = %v/%d/%v", got.ParentID, got.Level, got.Path)
	}
	if got.Name != "C" {
		t.Errorf("name = %q, placement update touched other fields", got.Name)
	}
}

func TestCategoryUpdateMissing(t *testing.T) {
	cs := NewCategoryStore(setupTestDB(t))

	c, err := cs.Update(context.Background(), "missing", model.CategoryPatch{Name: strPtr("x")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil for missing category")
	}
}

func TestCategoryDelete(t *testing.T) {
	cs := NewCategoryStore(setupTestDB(t))
	ctx := context.Background()
	c := createCategory(t, cs, "Tents", "tents", nil)

	if err := cs.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := cs.GetByID(ctx, c.ID)
	if got != nil {
		t.Error("category still present after delete")
	}
}
