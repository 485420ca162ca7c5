package store

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/eventory/internal/model"
)

// ErrDuplicate is wrapped by store errors caused by a unique field clash.
var ErrDuplicate = errors.New("duplicate value for unique field")

// DateLayout is the calendar date format accepted in query parameters.
const DateLayout = "2006-01-02"

// Sort is a whitelisted sort field (JSON field name) and direction.
type Sort struct {
	Field string
	Desc  bool
}

type CategoryQuery struct {
	Search string
	// ParentID nil means any parent; an empty string selects roots.
	ParentID *string
	IsActive *bool
	Sort     Sort
}

type ItemQuery struct {
	CategoryID string
	VendorID   string
	AdminOwned bool
	IsActive   *bool
	Search     string
	City       string
	MinPrice   *float64
	MaxPrice   *float64
	Sort       Sort
}

type VendorQuery struct {
	City        string
	CompanyName string
	Search      string
	IsActive    *bool
	IsDiscarded *bool
	Sort        Sort
}

type BookingQuery struct {
	Status        model.BookingStatus
	UserID        string
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
	Sort          Sort
}

var (
	categorySorts = []string{"name", "slug", "level", "createdAt", "updatedAt"}
	itemSorts     = []string{"name", "createdAt", "updatedAt"}
	vendorSorts   = []string{"name", "email", "companyName", "city", "createdAt", "updatedAt"}
	bookingSorts  = []string{"createdAt", "updatedAt", "totalAmount", "status"}
)

func ParseCategoryQuery(v url.Values) (CategoryQuery, error) {
	q := CategoryQuery{
		Search: strings.TrimSpace(v.Get("search")),
		Sort:   parseSort(v, categorySorts),
	}
	if v.Has("parentId") {
		p := strings.TrimSpace(v.Get("parentId"))
		if p == "null" || p == "root" {
			p = ""
		}
		q.ParentID = &p
	}
	var err error
	if q.IsActive, err = parseBool(v, "isActive"); err != nil {
		return q, err
	}
	return q, nil
}

func ParseItemQuery(v url.Values) (ItemQuery, error) {
	q := ItemQuery{
		CategoryID: strings.TrimSpace(v.Get("category")),
		Search:     strings.TrimSpace(v.Get("search")),
		City:       strings.TrimSpace(v.Get("city")),
		Sort:       parseSort(v, itemSorts),
	}
	vendor := strings.TrimSpace(v.Get("vendor"))
	if strings.EqualFold(vendor, "admin") {
		q.AdminOwned = true
	} else {
		q.VendorID = vendor
	}

	var err error
	if q.IsActive, err = parseBool(v, "isActive"); err != nil {
		return q, err
	}
	minPrice, err := parseFloat(v, "minPrice")
	if err != nil {
		return q, err
	}
	maxPrice, err := parseFloat(v, "maxPrice")
	if err != nil {
		return q, err
	}
	// Price bounds only make sense against a specific city's price.
	if q.City != "" {
		q.MinPrice, q.MaxPrice = minPrice, maxPrice
	}
	return q, nil
}

func ParseVendorQuery(v url.Values) (VendorQuery, error) {
	q := VendorQuery{
		City:        strings.TrimSpace(v.Get("city")),
		CompanyName: strings.TrimSpace(v.Get("companyName")),
		Search:      strings.TrimSpace(v.Get("search")),
		Sort:        parseSort(v, vendorSorts),
	}
	var err error
	if q.IsActive, err = parseBool(v, "isActive"); err != nil {
		return q, err
	}
	if q.IsDiscarded, err = parseBool(v, "isDiscarded"); err != nil {
		return q, err
	}
	return q, nil
}

func ParseBookingQuery(v url.Values) (BookingQuery, error) {
	q := BookingQuery{
		UserID: strings.TrimSpace(v.Get("userId")),
		Sort:   parseSort(v, bookingSorts),
	}
	if s := strings.TrimSpace(v.Get("status")); s != "" {
		q.Status = model.BookingStatus(s)
		if !q.Status.Valid() {
			return q, fmt.Errorf("invalid status %q", s)
		}
	}
	if s := v.Get("dateFrom"); s != "" {
		from, err := ParseDate(s)
		if err != nil {
			return q, fmt.Errorf("invalid dateFrom: %w", err)
		}
		q.CreatedFrom = &from
	}
	if s := v.Get("dateTo"); s != "" {
		to, err := ParseDate(s)
		if err != nil {
			return q, fmt.Errorf("invalid dateTo: %w", err)
		}
		before := to.AddDate(0, 0, 1)
		q.CreatedBefore = &before
	}
	return q, nil
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// parseSort reads sortBy/order. Fields outside the whitelist fall back to
// createdAt; the default direction is descending.
func parseSort(v url.Values, allowed []string) Sort {
	s := Sort{Field: "createdAt", Desc: true}
	field := strings.TrimSpace(v.Get("sortBy"))
	for _, a := range allowed {
		if field == a {
			s.Field = a
			break
		}
	}
	if strings.EqualFold(strings.TrimSpace(v.Get("order")), "asc") {
		s.Desc = false
	}
	return s
}

func parseBool(v url.Values, key string) (*bool, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, s)
	}
	return &b, nil
}

func parseFloat(v url.Values, key string) (*float64, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, s)
	}
	return &f, nil
}
