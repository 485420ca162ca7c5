package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dukerupert/eventory/internal/database"
	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/store"
)

type CategoryStore struct {
	coll *mongo.Collection
}

func NewCategoryStore(db *mongo.Database) *CategoryStore {
	return &CategoryStore{coll: db.Collection(database.CategoriesCollection)}
}

var categorySortFields = map[string]string{
	"name":      "name",
	"slug":      "slug",
	"level":     "level",
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
}

func categoryFilter(q store.CategoryQuery) bson.M {
	f := bson.M{}
	if q.Search != "" {
		f["$or"] = bson.A{
			bson.M{"name": contains(q.Search)},
			bson.M{"description": contains(q.Search)},
		}
	}
	if q.ParentID != nil {
		if *q.ParentID == "" {
			f["parentId"] = nil
		} else {
			f["parentId"] = *q.ParentID
		}
	}
	if q.IsActive != nil {
		f["isActive"] = *q.IsActive
	}
	return f
}

func categorySet(p model.CategoryPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Slug != nil {
		set["slug"] = *p.Slug
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	if p.Image != nil {
		set["image"] = *p.Image
	}
	if p.Placement != nil {
		path := p.Placement.Path
		if path == nil {
			path = []string{}
		}
		set["parentId"] = p.Placement.ParentID
		set["level"] = p.Placement.Level
		set["path"] = path
	}
	return set
}

func (s *CategoryStore) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	doc := *c
	doc.ID = newID()
	doc.CreatedAt = now()
	doc.UpdatedAt = doc.CreatedAt
	if doc.Path == nil {
		doc.Path = []string{}
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, wrapWrite("insert category", err)
	}
	return &doc, nil
}

func (s *CategoryStore) GetByID(ctx context.Context, id string) (*model.Category, error) {
	return findOne[model.Category](ctx, s.coll, bson.M{"_id": id}, "get category")
}

func (s *CategoryStore) List(ctx context.Context, q store.CategoryQuery) ([]model.Category, error) {
	opts := options.Find().SetSort(sortDoc(q.Sort, categorySortFields))
	return findAll[model.Category](ctx, s.coll, categoryFilter(q), opts, "list categories")
}

// ListDescendants returns every category that has id among its ancestors.
func (s *CategoryStore) ListDescendants(ctx context.Context, id string) ([]model.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "level", Value: 1}})
	return findAll[model.Category](ctx, s.coll, bson.M{"path": id}, opts, "list descendants")
}

func (s *CategoryStore) Update(ctx context.Context, id string, p model.CategoryPatch) (*model.Category, error) {
	return updateOne[model.Category](ctx, s.coll, id, categorySet(p), "update category")
}

func (s *CategoryStore) SetPlacement(ctx context.Context, id string, pl model.Placement) error {
	_, err := s.Update(ctx, id, model.CategoryPatch{Placement: &pl})
	return err
}

func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, s.coll, id, "delete category")
}
