package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dukerupert/eventory/internal/database"
	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/stats"
	"github.com/dukerupert/eventory/internal/store"
)

type BookingStore struct {
	coll *mongo.Collection
}

func NewBookingStore(db *mongo.Database) *BookingStore {
	return &BookingStore{coll: db.Collection(database.BookingsCollection)}
}

var bookingSortFields = map[string]string{
	"createdAt":   "createdAt",
	"updatedAt":   "updatedAt",
	"totalAmount": "totalAmount",
	"status":      "status",
}

func bookingFilter(q store.BookingQuery) bson.M {
	f := bson.M{}
	if q.Status != "" {
		f["status"] = q.Status
	}
	if q.UserID != "" {
		f["userId"] = q.UserID
	}
	created := bson.M{}
	if q.CreatedFrom != nil {
		created["$gte"] = *q.CreatedFrom
	}
	if q.CreatedBefore != nil {
		created["$lt"] = *q.CreatedBefore
	}
	if len(created) > 0 {
		f["createdAt"] = created
	}
	return f
}

func bookingSet(p model.BookingPatch) bson.M {
	set := bson.M{}
	if p.UserID != nil {
		set["userId"] = *p.UserID
	}
	if p.Items != nil {
		set["items"] = p.Items
	}
	if p.TotalAmount != nil {
		set["totalAmount"] = *p.TotalAmount
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.PaymentIntentID != nil {
		set["paymentIntentId"] = *p.PaymentIntentID
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	return set
}

func (s *BookingStore) Create(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	doc := *b
	doc.ID = newID()
	doc.CreatedAt = now()
	doc.UpdatedAt = doc.CreatedAt
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, wrapWrite("insert booking", err)
	}
	return &doc, nil
}

func (s *BookingStore) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return findOne[model.Booking](ctx, s.coll, bson.M{"_id": id}, "get booking")
}

func (s *BookingStore) List(ctx context.Context, q store.BookingQuery) ([]model.Booking, error) {
	opts := options.Find().SetSort(sortDoc(q.Sort, bookingSortFields))
	return findAll[model.Booking](ctx, s.coll, bookingFilter(q), opts, "list bookings")
}

func (s *BookingStore) Update(ctx context.Context, id string, p model.BookingPatch) (*model.Booking, error) {
	return updateOne[model.Booking](ctx, s.coll, id, bookingSet(p), "update booking")
}

func (s *BookingStore) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, s.coll, id, "delete booking")
}

// statsPipeline computes totals, status counts and daily figures for
// bookings created in [lo, hi) in a single pass.
func statsPipeline(lo, hi time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": lo, "$lt": hi}}}},
		{{Key: "$facet", Value: bson.M{
			"totals": bson.A{
				bson.M{"$group": bson.M{
					"_id":   nil,
					"count": bson.M{"$sum": 1},
					"sum":   bson.M{"$sum": "$totalAmount"},
					"max":   bson.M{"$max": "$totalAmount"},
				}},
			},
			"byStatus": bson.A{
				bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
			},
			"daily": bson.A{
				bson.M{"$group": bson.M{
					"_id": bson.M{"$dateToString": bson.M{
						"format":   "%Y-%m-%d",
						"date":     "$createdAt",
						"timezone": "UTC",
					}},
					"count":   bson.M{"$sum": 1},
					"revenue": bson.M{"$sum": "$totalAmount"},
				}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
		}}},
	}
}

type statsResult struct {
	Totals []struct {
		Count int     `bson:"count"`
		Sum   float64 `bson:"sum"`
		Max   float64 `bson:"max"`
	} `bson:"totals"`
	ByStatus []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	} `bson:"byStatus"`
	Daily []struct {
		Date    string  `bson:"_id"`
		Count   int     `bson:"count"`
		Revenue float64 `bson:"revenue"`
	} `bson:"daily"`
}

func (r statsResult) aggregates() stats.Aggregates {
	agg := stats.Aggregates{ByStatus: map[string]int{}}
	if len(r.Totals) > 0 {
		agg.Total = r.Totals[0].Count
		agg.Sum = r.Totals[0].Sum
		agg.Max = r.Totals[0].Max
	}
	for _, s := range r.ByStatus {
		agg.ByStatus[s.Status] = s.Count
	}
	for _, d := range r.Daily {
		agg.Daily = append(agg.Daily, stats.Day{Date: d.Date, Count: d.Count, Revenue: d.Revenue})
	}
	return agg
}

// Stats aggregates bookings created on the UTC dates from through to,
// inclusive.
func (s *BookingStore) Stats(ctx context.Context, from, to time.Time) (*stats.Summary, error) {
	from, to = stats.Truncate(from), stats.Truncate(to)

	cur, err := s.coll.Aggregate(ctx, statsPipeline(from, to.AddDate(0, 0, 1)))
	if err != nil {
		return nil, fmt.Errorf("booking stats: %w", err)
	}
	var results []statsResult
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode booking stats: %w", err)
	}

	var agg stats.Aggregates
	if len(results) > 0 {
		agg = results[0].aggregates()
	}
	return stats.Assemble(from, to, agg), nil
}
