package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/eventory/internal/model"
)

func createBooking(t *testing.T, bs *BookingStore, userID string, amount float64, status model.BookingStatus) *model.Booking {
	t.Helper()
	b, err := bs.Create(context.Background(), &model.Booking{
		UserID:      userID,
		Items:       []model.BookingItem{{ItemID: "i1", ItemName: "Canopy", Price: amount, Date: "2024-06-01", TimeSlot: "morning"}},
		TotalAmount: amount,
		Status:      status,
		Address:     model.Address{Street: "1 Main St", City: "Pune", Country: "India"},
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

// setCreated backdates a booking so range queries can be exercised.
func setCreated(t *testing.T, bs *BookingStore, id string, at time.Time) {
	t.Helper()
	if _, err := bs.db.Exec(`UPDATE bookings SET created_at = ? WHERE id = ?`, formatTime(at), id); err != nil {
		t.Fatalf("backdate booking: %v", err)
	}
}

func TestBookingCreate(t *testing.T) {
	bs := NewBookingStore(setupTestDB(t))

	b := createBooking(t, bs, "u1", 250, model.StatusPending)
	if b.ID == "" {
		t.Error("expected non-empty ID")
	}
	if len(b.Items) != 1 || b.Items[0].ItemName != "Canopy" {
		t.Errorf("items = %+v", b.Items)
	}
	if b.Address.City != "Pune" {
		t.Errorf("address = %+v", b.Address)
	}
	if b.Status != model.StatusPending {
		t.Errorf("status = %q", b.Status)
	}
}

func TestBookingListFilters(t *testing.T) {
	bs := NewBookingStore(setupTestDB(t))
	ctx := context.Background()

	a := createBooking(t, bs, "u1", 100, model.StatusPending)
	b := createBooking(t, bs, "u1", 300, model.StatusConfirmed)
	createBooking(t, bs, "u2", 200, model.StatusConfirmed)
	setCreated(t, bs, a.ID, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	setCreated(t, bs, b.ID, time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC))

	byUser, err := bs.List(ctx, BookingQuery{UserID: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("u1 bookings = %d, want 2", len(byUser))
	}

	confirmed, _ := bs.List(ctx, BookingQuery{Status: model.StatusConfirmed})
	if len(confirmed) != 2 {
		t.Errorf("confirmed = %d, want 2", len(confirmed))
	}

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	january, _ := bs.List(ctx, BookingQuery{CreatedFrom: &from, CreatedBefore: &before})
	if len(january) != 2 {
		t.Errorf("january = %d, want 2", len(january))
	}

	byAmount, _ := bs.List(ctx, BookingQuery{Sort: Sort{Field: "totalAmount", Desc: true}})
	if len(byAmount) != 3 || byAmount[0].TotalAmount != 300 {
		t.Errorf("sorted = %+v", byAmount)
	}
}

func TestBookingUpdateStatus(t *testing.T) {
	bs := NewBookingStore(setupTestDB(t))
	b := createBooking(t, bs, "u1", 100, model.StatusPending)

	status := model.StatusCancelled
	updated, err := bs.Update(context.Background(), b.ID, model.BookingPatch{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != model.StatusCancelled {
		t.Errorf("status = %q", updated.Status)
	}
	if updated.TotalAmount != 100 {
		t.Errorf("total = %v, partial update changed it", updated.TotalAmount)
	}
}

func TestBookingStats(t *testing.T) {
	bs := NewBookingStore(setupTestDB(t))
	ctx := context.Background()

	a := createBooking(t, bs, "u1", 100, model.StatusPending)
	b := createBooking(t, bs, "u2", 300, model.StatusCompleted)
	c := createBooking(t, bs, "u3", 50, model.StatusPending)
	setCreated(t, bs, a.ID, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	setCreated(t, bs, b.ID, time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC))
	setCreated(t, bs, c.ID, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	s, err := bs.Stats(ctx, from, to)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if s.TotalBookings != 2 {
		t.Errorf("total = %d, want 2", s.TotalBookings)
	}
	if s.ByStatus["pending"] != 1 || s.ByStatus["completed"] != 1 || s.ByStatus["cancelled"] != 0 {
		t.Errorf("byStatus = %v", s.ByStatus)
	}
	if s.Revenue.TotalRevenue != 400 || s.Revenue.AverageOrderValue != 200 || s.Revenue.MaxOrderValue != 300 {
		t.Errorf("revenue = %+v", s.Revenue)
	}
	if len(s.Daily) != 3 {
		t.Fatalf("daily = %d entries, want 3", len(s.Daily))
	}
	if s.Daily[0].Count != 2 || s.Daily[0].Revenue != 400 {
		t.Errorf("daily[0] = %+v", s.Daily[0])
	}
	if s.Daily[2].Count != 0 {
		t.Errorf("daily[2] = %+v, want zero", s.Daily[2])
	}
}

func TestBookingStatsEmpty(t *testing.T) {
	bs := NewBookingStore(setupTestDB(t))
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	s, err := bs.Stats(context.Background(), day, day)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.TotalBookings != 0 || s.Revenue.TotalRevenue != 0 {
		t.Errorf("summary = %+v, want zeroes", s)
	}
	if len(s.ByStatus) != len(model.BookingStatuses) {
		t.Errorf("byStatus = %v", s.ByStatus)
	}
}
