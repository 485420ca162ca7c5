// Package stats assembles booking statistics from per-backend aggregates.
package stats

import (
	"math"
	"time"

	"github.com/dukerupert/eventory/internal/model"
)

const dateLayout = "2006-01-02"

// DefaultWindow is the range used when no dates are requested.
const DefaultWindow = 30

// MaxWindow bounds the number of days one summary may cover.
const MaxWindow = 366

type Revenue struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	MaxOrderValue     float64 `json:"maxOrderValue"`
}

type Day struct {
	Date    string  `json:"date"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type Summary struct {
	From          string         `json:"dateFrom"`
	To            string         `json:"dateTo"`
	TotalBookings int            `json:"totalBookings"`
	ByStatus      map[string]int `json:"byStatus"`
	Revenue       Revenue        `json:"revenue"`
	Daily         []Day          `json:"daily"`
}

// Aggregates are the raw figures a backend computes for bookings created in
// [from, to+1day).
type Aggregates struct {
	Total    int
	ByStatus map[string]int
	Sum      float64
	Max      float64
	Daily    []Day
}

// DefaultRange returns the inclusive date range covering the last
// DefaultWindow days ending on now's UTC date.
func DefaultRange(now time.Time) (from, to time.Time) {
	to = Truncate(now)
	from = to.AddDate(0, 0, -(DefaultWindow - 1))
	return from, to
}

// Days counts the dates in the inclusive range [from, to].
func Days(from, to time.Time) int {
	return int(Truncate(to).Sub(Truncate(from))/(24*time.Hour)) + 1
}

// Truncate returns midnight UTC of t's UTC date.
func Truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Assemble builds a Summary for the inclusive date range, filling every
// status and every date so the response never has gaps.
func Assemble(from, to time.Time, agg Aggregates) *Summary {
	from, to = Truncate(from), Truncate(to)

	s := &Summary{
		From:          from.Format(dateLayout),
		To:            to.Format(dateLayout),
		TotalBookings: agg.Total,
		ByStatus:      make(map[string]int, len(model.BookingStatuses)),
		Revenue: Revenue{
			TotalRevenue:  round(agg.Sum),
			MaxOrderValue: round(agg.Max),
		},
	}
	for _, st := range model.BookingStatuses {
		s.ByStatus[string(st)] = agg.ByStatus[string(st)]
	}
	if agg.Total > 0 {
		s.Revenue.AverageOrderValue = round(agg.Sum / float64(agg.Total))
	}

	days := make(map[string]Day, len(agg.Daily))
	for _, d := range agg.Daily {
		days[d.Date] = d
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		day, ok := days[key]
		if !ok {
			day = Day{Date: key}
		}
		day.Revenue = round(day.Revenue)
		s.Daily = append(s.Daily, day)
	}
	return s
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}
