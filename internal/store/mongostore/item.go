package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dukerupert/eventory/internal/database"
	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/store"
)

type ItemStore struct {
	coll *mongo.Collection
}

func NewItemStore(db *mongo.Database) *ItemStore {
	return &ItemStore{coll: db.Collection(database.ItemsCollection)}
}

var itemSortFields = map[string]string{
	"name":      "name",
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
}

// itemViewDoc is an item document with its looked-up references.
type itemViewDoc struct {
	model.Item  `bson:",inline"`
	CategoryRef []model.Ref `bson:"categoryRef"`
	VendorRef   []model.Ref `bson:"vendorRef"`
}

func (d itemViewDoc) view() model.ItemView {
	var category, vendor *model.Ref
	if len(d.CategoryRef) > 0 {
		category = &d.CategoryRef[0]
	}
	if len(d.VendorRef) > 0 {
		vendor = &d.VendorRef[0]
	}
	return model.NewItemView(d.Item, category, vendor)
}

// refLookup joins coll on localField and keeps only the _id and name of the
// match.
func refLookup(coll, localField, as string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{"from": coll, "localField": localField, "foreignField": "_id", "as": as}}},
		{{Key: "$addFields", Value: bson.M{as: bson.M{"$map": bson.M{
			"input": "$" + as,
			"as":    "r",
			"in":    bson.M{"_id": "$$r._id", "name": "$$r.name"},
		}}}}},
	}
}

func itemViewPipeline(match bson.M, sort bson.D) mongo.Pipeline {
	p := mongo.Pipeline{{{Key: "$match", Value: match}}}
	if sort != nil {
		p = append(p, bson.D{{Key: "$sort", Value: sort}})
	}
	p = append(p, refLookup(database.CategoriesCollection, "category", "categoryRef")...)
	p = append(p, refLookup(database.VendorsCollection, "vendor", "vendorRef")...)
	return p
}

func itemFilter(q store.ItemQuery) bson.M {
	f := bson.M{}
	if q.CategoryID != "" {
		f["category"] = q.CategoryID
	}
	switch {
	case q.AdminOwned:
		f["vendor"] = nil
	case q.VendorID != "":
		f["vendor"] = q.VendorID
	}
	if q.IsActive != nil {
		f["isActive"] = *q.IsActive
	}
	if q.Search != "" {
		f["name"] = contains(q.Search)
	}
	if q.City != "" {
		// One price entry must match the city and both bounds.
		match := bson.M{"city": equalFold(q.City)}
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		if len(price) > 0 {
			match["price"] = price
		}
		f["prices"] = bson.M{"$elemMatch": match}
	}
	return f
}

func itemSet(p model.ItemPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Prices != nil {
		set["prices"] = p.Prices
	}
	if p.CategoryID != nil {
		set["category"] = *p.CategoryID
	}
	if p.VendorSet {
		set["vendor"] = p.VendorID
	}
	if p.Image != nil {
		set["image"] = *p.Image
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	return set
}

func (s *ItemStore) Create(ctx context.Context, it *model.Item) (*model.Item, error) {
	doc := *it
	doc.ID = newID()
	doc.CreatedAt = now()
	doc.UpdatedAt = doc.CreatedAt
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, wrapWrite("insert item", err)
	}
	return &doc, nil
}

func (s *ItemStore) GetByID(ctx context.Context, id string) (*model.Item, error) {
	return findOne[model.Item](ctx, s.coll, bson.M{"_id": id}, "get item")
}

func (s *ItemStore) GetView(ctx context.Context, id string) (*model.ItemView, error) {
	views, err := s.aggregate(ctx, itemViewPipeline(bson.M{"_id": id}, nil))
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

func (s *ItemStore) List(ctx context.Context, q store.ItemQuery) ([]model.ItemView, error) {
	views, err := s.aggregate(ctx, itemViewPipeline(itemFilter(q), sortDoc(q.Sort, itemSortFields)))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return views, nil
}

func (s *ItemStore) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]model.ItemView, error) {
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []itemViewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	views := make([]model.ItemView, 0, len(docs))
	for _, d := range docs {
		views = append(views, d.view())
	}
	return views, nil
}

func (s *ItemStore) Update(ctx context.Context, id string, p model.ItemPatch) (*model.Item, error) {
	return updateOne[model.Item](ctx, s.coll, id, itemSet(p), "update item")
}

func (s *ItemStore) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, s.coll, id, "delete item")
}
