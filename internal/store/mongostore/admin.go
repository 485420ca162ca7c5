package mongostore

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dukerupert/eventory/internal/database"
	"github.com/dukerupert/eventory/internal/model"
)

type AdminStore struct {
	coll *mongo.Collection
}

func NewAdminStore(db *mongo.Database) *AdminStore {
	return &AdminStore{coll: db.Collection(database.AdminsCollection)}
}

// Create inserts a with its email lowercased. The password must already be
// hashed.
func (s *AdminStore) Create(ctx context.Context, a *model.Admin) (*model.Admin, error) {
	doc := *a
	doc.ID = newID()
	doc.Email = strings.ToLower(doc.Email)
	doc.CreatedAt = now()
	doc.UpdatedAt = doc.CreatedAt
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, wrapWrite("insert admin", err)
	}
	return &doc, nil
}

func (s *AdminStore) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	return findOne[model.Admin](ctx, s.coll, bson.M{"_id": id}, "get admin")
}

func (s *AdminStore) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return findOne[model.Admin](ctx, s.coll, bson.M{"email": strings.ToLower(email)}, "get admin by email")
}

func (s *AdminStore) List(ctx context.Context) ([]model.Admin, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[model.Admin](ctx, s.coll, bson.M{}, opts, "list admins")
}

func (s *AdminStore) UpdateRole(ctx context.Context, id string, role model.Role) (*model.Admin, error) {
	return updateOne[model.Admin](ctx, s.coll, id, bson.M{"role": role}, "update admin role")
}

func (s *AdminStore) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, s.coll, id, "delete admin")
}

func (s *AdminStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return int(n), nil
}
