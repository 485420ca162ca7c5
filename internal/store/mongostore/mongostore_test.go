package mongostore

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/store"
)

func TestNewIDIsObjectIDHex(t *testing.T) {
	id := newID()
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		t.Errorf("newID() = %q, not an ObjectID hex: %v", id, err)
	}
}

func TestContainsEscapesPattern(t *testing.T) {
	re := contains("a.b(c")
	if re.Pattern != `a\.b\(c` {
		t.Errorf("pattern = %q", re.Pattern)
	}
	if re.Options != "i" {
		t.Errorf("options = %q, want i", re.Options)
	}
	if got := equalFold("Pune").Pattern; got != "^Pune$" {
		t.Errorf("equalFold pattern = %q", got)
	}
}

func TestSortDoc(t *testing.T) {
	d := sortDoc(store.Sort{Field: "totalAmount", Desc: true}, bookingSortFields)
	if d[0].Key != "totalAmount" || d[0].Value != -1 {
		t.Errorf("sort = %v", d)
	}

	d = sortDoc(store.Sort{Field: "password"}, vendorSortFields)
	if d[0].Key != "createdAt" || d[0].Value != 1 {
		t.Errorf("fallback sort = %v", d)
	}
}

func TestCategoryFilterRoots(t *testing.T) {
	root := ""
	active := true
	f := categoryFilter(store.CategoryQuery{ParentID: &root, IsActive: &active, Search: "tent"})

	if v, ok := f["parentId"]; !ok || v != nil {
		t.Errorf("parentId filter = %v, want nil match", v)
	}
	if f["isActive"] != true {
		t.Errorf("isActive filter = %v", f["isActive"])
	}
	if or, ok := f["$or"].(bson.A); !ok || len(or) != 2 {
		t.Errorf("$or = %v", f["$or"])
	}
}

func TestItemFilterCityPrice(t *testing.T) {
	lo, hi := 10.0, 50.0
	f := itemFilter(store.ItemQuery{AdminOwned: true, City: "Pune", MinPrice: &lo, MaxPrice: &hi})

	if v, ok := f["vendor"]; !ok || v != nil {
		t.Errorf("vendor filter = %v, want nil", v)
	}
	elem := f["prices"].(bson.M)["$elemMatch"].(bson.M)
	price := elem["price"].(bson.M)
	if price["$gte"] != 10.0 || price["$lte"] != 50.0 {
		t.Errorf("price bounds = %v", price)
	}
	if _, ok := elem["city"].(primitive.Regex); !ok {
		t.Errorf("city match = %T", elem["city"])
	}
}

func TestItemViewPipeline(t *testing.T) {
	p := itemViewPipeline(bson.M{}, bson.D{{Key: "name", Value: 1}})
	// match, sort, then lookup + reshape for category and vendor
	if len(p) != 6 {
		t.Fatalf("stages = %d, want 6", len(p))
	}
	if p[2][0].Key != "$lookup" || p[4][0].Key != "$lookup" {
		t.Errorf("lookup stages = %v / %v", p[2][0].Key, p[4][0].Key)
	}
	if got := len(itemViewPipeline(bson.M{"_id": "x"}, nil)); got != 5 {
		t.Errorf("unsorted stages = %d, want 5", got)
	}
}

func TestItemViewDocOwner(t *testing.T) {
	d := itemViewDoc{
		Item:        model.Item{ID: "i1", Name: "Canopy"},
		CategoryRef: []model.Ref{{ID: "c1", Name: "Tents"}},
	}
	v := d.view()
	if v.Owner != model.AdminOwner || v.Vendor != nil {
		t.Errorf("view = %+v, want admin owned", v)
	}
	if v.Category == nil || v.Category.Name != "Tents" {
		t.Errorf("category = %+v", v.Category)
	}

	d.VendorRef = []model.Ref{{ID: "v1", Name: "Acme"}}
	if got := d.view().Owner; got != "Acme" {
		t.Errorf("owner = %q, want Acme", got)
	}
}

func TestBookingFilterDates(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := bookingFilter(store.BookingQuery{Status: model.StatusPending, CreatedFrom: &from})

	if f["status"] != model.StatusPending {
		t.Errorf("status = %v", f["status"])
	}
	created := f["createdAt"].(bson.M)
	if created["$gte"] != from {
		t.Errorf("createdAt = %v", created)
	}
	if _, ok := created["$lt"]; ok {
		t.Error("unexpected upper bound")
	}
}

func TestPatchSets(t *testing.T) {
	name := "Tents"
	set := categorySet(model.CategoryPatch{Name: &name, Placement: &model.Placement{}})
	if set["name"] != "Tents" {
		t.Errorf("name = %v", set["name"])
	}
	if path, ok := set["path"].([]string); !ok || path == nil {
		t.Errorf("path = %#v, want empty slice", set["path"])
	}

	set = itemSet(model.ItemPatch{VendorSet: true})
	if v, ok := set["vendor"]; !ok || v.(*string) != nil {
		t.Errorf("vendor = %v, want cleared", v)
	}

	set = vendorSet(model.VendorPatch{})
	if len(set) != 0 {
		t.Errorf("empty patch set = %v", set)
	}

	status := model.StatusCompleted
	set = bookingSet(model.BookingPatch{Status: &status})
	if set["status"] != model.StatusCompleted {
		t.Errorf("status = %v", set["status"])
	}
}

func TestStatsResultAggregates(t *testing.T) {
	var r statsResult
	r.Totals = append(r.Totals, struct {
		Count int     `bson:"count"`
		Sum   float64 `bson:"sum"`
		Max   float64 `bson:"max"`
	}{Count: 2, Sum: 30, Max: 20})
	r.ByStatus = append(r.ByStatus, struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}{Status: "pending", Count: 2})

	agg := r.aggregates()
	if agg.Total != 2 || agg.Sum != 30 || agg.Max != 20 {
		t.Errorf("aggregates = %+v", agg)
	}
	if agg.ByStatus["pending"] != 2 {
		t.Errorf("byStatus = %v", agg.ByStatus)
	}

	p := statsPipeline(time.Now(), time.Now())
	if len(p) != 2 || p[1][0].Key != "$facet" {
		t.Errorf("pipeline = %v", p)
	}
}

func TestItemViewDocMissingCategory(t *testing.T) {
	d := itemViewDoc{Item: model.Item{ID: "i1", Name: "Canopy", CategoryID: "gone"}}
	v := d.view()
	if v.Category == nil || v.Category.ID != "gone" || v.Category.Name != "" {
		t.Errorf("category = %+v, want id-only reference", v.Category)
	}
}
