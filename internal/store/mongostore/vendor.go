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

type VendorStore struct {
	coll *mongo.Collection
}

func NewVendorStore(db *mongo.Database) *VendorStore {
	return &VendorStore{coll: db.Collection(database.VendorsCollection)}
}

var vendorSortFields = map[string]string{
	"name":        "name",
	"email":       "email",
	"companyName": "companyName",
	"city":        "city",
	"createdAt":   "createdAt",
	"updatedAt":   "updatedAt",
}

func vendorFilter(q store.VendorQuery) bson.M {
	f := bson.M{}
	if q.City != "" {
		f["city"] = equalFold(q.City)
	}
	if q.CompanyName != "" {
		f["companyName"] = contains(q.CompanyName)
	}
	if q.Search != "" {
		re := contains(q.Search)
		f["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"email": re},
			bson.M{"companyName": re},
			bson.M{"city": re},
		}
	}
	if q.IsActive != nil {
		f["isActive"] = *q.IsActive
	}
	if q.IsDiscarded != nil {
		f["isDiscarded"] = *q.IsDiscarded
	}
	return f
}

func vendorSet(p model.VendorPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.CompanyName != nil {
		set["companyName"] = *p.CompanyName
	}
	if p.PaymentMode != nil {
		set["paymentMode"] = *p.PaymentMode
	}
	if p.UPIID != nil {
		set["upiId"] = *p.UPIID
	}
	if p.BankDetails != nil {
		set["bankDetails"] = *p.BankDetails
	}
	if p.City != nil {
		set["city"] = *p.City
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	if p.IsDiscarded != nil {
		set["isDiscarded"] = *p.IsDiscarded
	}
	return set
}

// Create inserts v. The password must already be hashed.
func (s *VendorStore) Create(ctx context.Context, v *model.Vendor) (*model.Vendor, error) {
	doc := *v
	doc.ID = newID()
	doc.CreatedAt = now()
	doc.UpdatedAt = doc.CreatedAt
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, wrapWrite("insert vendor", err)
	}
	return &doc, nil
}

func (s *VendorStore) GetByID(ctx context.Context, id string) (*model.Vendor, error) {
	return findOne[model.Vendor](ctx, s.coll, bson.M{"_id": id}, "get vendor")
}

func (s *VendorStore) List(ctx context.Context, q store.VendorQuery) ([]model.Vendor, error) {
	opts := options.Find().SetSort(sortDoc(q.Sort, vendorSortFields))
	return findAll[model.Vendor](ctx, s.coll, vendorFilter(q), opts, "list vendors")
}

func (s *VendorStore) Update(ctx context.Context, id string, p model.VendorPatch) (*model.Vendor, error) {
	return updateOne[model.Vendor](ctx, s.coll, id, vendorSet(p), "update vendor")
}

func (s *VendorStore) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, s.coll, id, "delete vendor")
}
