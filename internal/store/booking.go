package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/stats"
)

type BookingStore struct {
	db *sql.DB
}

func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{db: db}
}

const bookingCols = `id, user_id, items, total_amount, status, payment_intent_id, address, created_at, updated_at`

var bookingSortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"totalAmount": "total_amount",
	"status":      "status",
}

func scanBooking(s scanner) (*model.Booking, error) {
	var (
		b                model.Booking
		status           string
		items, address   string
		created, updated string
	)
	err := s.Scan(&b.ID, &b.UserID, &items, &b.TotalAmount, &status, &b.PaymentIntentID,
		&address, &created, &updated)
	if err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	if err := json.Unmarshal([]byte(items), &b.Items); err != nil {
		return nil, fmt.Errorf("decode booking items: %w", err)
	}
	if err := json.Unmarshal([]byte(address), &b.Address); err != nil {
		return nil, fmt.Errorf("decode booking address: %w", err)
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BookingStore) Create(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	items, err := encodeJSON(b.Items)
	if err != nil {
		return nil, fmt.Errorf("encode booking items: %w", err)
	}
	address, err := encodeJSON(b.Address)
	if err != nil {
		return nil, fmt.Errorf("encode booking address: %w", err)
	}
	id := newID()
	ts := formatTime(now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, b.UserID, items, b.TotalAmount, string(b.Status), b.PaymentIntentID, address, ts, ts,
	)
	if err != nil {
		return nil, wrapWrite("insert booking", err)
	}
	return s.GetByID(ctx, id)
}

func (s *BookingStore) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func bookingWhere(q BookingQuery) *where {
	w := &where{}
	if q.Status != "" {
		w.add(`status = ?`, string(q.Status))
	}
	if q.UserID != "" {
		w.add(`user_id = ?`, q.UserID)
	}
	if q.CreatedFrom != nil {
		w.add(`created_at >= ?`, formatTime(*q.CreatedFrom))
	}
	if q.CreatedBefore != nil {
		w.add(`created_at < ?`, formatTime(*q.CreatedBefore))
	}
	return w
}

func (s *BookingStore) List(ctx context.Context, q BookingQuery) ([]model.Booking, error) {
	w := bookingWhere(q)
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookingCols+` FROM bookings`+w.String()+orderBy(q.Sort, bookingSortColumns, ""), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (s *BookingStore) Update(ctx context.Context, id string, p model.BookingPatch) (*model.Booking, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets, args = append(sets, col+" = ?"), append(args, v)
	}
	if p.UserID != nil {
		set("user_id", *p.UserID)
	}
	if p.Items != nil {
		items, err := encodeJSON(p.Items)
		if err != nil {
			return nil, fmt.Errorf("encode booking items: %w", err)
		}
		set("items", items)
	}
	if p.TotalAmount != nil {
		set("total_amount", *p.TotalAmount)
	}
	if p.Status != nil {
		set("status", string(*p.Status))
	}
	if p.PaymentIntentID != nil {
		set("payment_intent_id", *p.PaymentIntentID)
	}
	if p.Address != nil {
		address, err := encodeJSON(p.Address)
		if err != nil {
			return nil, fmt.Errorf("encode booking address: %w", err)
		}
		set("address", address)
	}
	set("updated_at", formatTime(now()))
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE bookings SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, wrapWrite("update booking", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *BookingStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

// Stats aggregates bookings created on the UTC dates from through to,
// inclusive.
func (s *BookingStore) Stats(ctx context.Context, from, to time.Time) (*stats.Summary, error) {
	from, to = stats.Truncate(from), stats.Truncate(to)
	lo, hi := formatTime(from), formatTime(to.AddDate(0, 0, 1))

	agg := stats.Aggregates{ByStatus: map[string]int{}}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount), 0), COALESCE(MAX(total_amount), 0)
		 FROM bookings WHERE created_at >= ? AND created_at < ?`, lo, hi,
	).Scan(&agg.Total, &agg.Sum, &agg.Max)
	if err != nil {
		return nil, fmt.Errorf("booking totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM bookings
		 WHERE created_at >= ? AND created_at < ? GROUP BY status`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("booking status counts: %w", err)
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		agg.ByStatus[status] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking status counts: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT substr(created_at, 1, 10) AS day, COUNT(*), COALESCE(SUM(total_amount), 0)
		 FROM bookings WHERE created_at >= ? AND created_at < ?
		 GROUP BY day ORDER BY day`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("booking daily totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d stats.Day
		if err := rows.Scan(&d.Date, &d.Count, &d.Revenue); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		agg.Daily = append(agg.Daily, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking daily totals: %w", err)
	}

	return stats.Assemble(from, to, agg), nil
}
