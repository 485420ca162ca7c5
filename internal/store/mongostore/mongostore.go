// Package mongostore implements the entity stores on MongoDB. Documents use
// the hex form of a fresh ObjectID as their string _id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dukerupert/eventory/internal/store"
)

func newID() string {
	return primitive.NewObjectID().Hex()
}

// now is truncated to the millisecond precision BSON dates keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// contains matches s anywhere in a field, ignoring case.
func contains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// equalFold matches a field equal to s, ignoring case.
func equalFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

// sortDoc renders a whitelisted sort. fields maps JSON names to document
// fields; _id breaks ties in the same direction.
func sortDoc(s store.Sort, fields map[string]string) bson.D {
	f, ok := fields[s.Field]
	if !ok {
		f = "createdAt"
	}
	dir := 1
	if s.Desc {
		dir = -1
	}
	return bson.D{{Key: f, Value: dir}, {Key: "_id", Value: dir}}
}

func wrapWrite(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// findOne decodes the first match into a new T, or returns nil when nothing
// matches.
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, op string) (*T, error) {
	var v T
	err := coll.FindOne(ctx, filter).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &v, nil
}

// findAll decodes every match into a non-nil slice.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions, op string) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// updateOne applies set to the document with id and decodes the result, or
// returns nil when no document matches.
func updateOne[T any](ctx context.Context, coll *mongo.Collection, id string, set bson.M, op string) (*T, error) {
	set["updatedAt"] = now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var v T
	err := coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWrite(op, err)
	}
	return &v, nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, id, op string) error {
	if _, err := coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
