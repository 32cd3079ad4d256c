// Package query turns raw list parameters into bounded filter, ordering and
// pagination options for transaction listings.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budget-tracker/internal/models"
)

// DefaultPageSize is the number of transactions per list page.
const DefaultPageSize = 10

// Filter narrows a transaction listing. Zero-valued fields do not filter.
// Date bounds are inclusive.
type Filter struct {
	Category  models.Category
	StartDate *time.Time
	EndDate   *time.Time
}

// IsZero reports whether the filter matches every transaction.
func (f Filter) IsZero() bool {
	return f.Category == "" && f.StartDate == nil && f.EndDate == nil
}

// Order selects the sort order of a listing.
type Order int

const (
	// NewestFirst sorts by date, then creation time, descending.
	NewestFirst Order = iota
	// OldestFirst sorts by date, then creation time, ascending.
	OldestFirst
)

// String returns the query parameter value for o.
func (o Order) String() string {
	if o == OldestFirst {
		return "oldest"
	}
	return "newest"
}

// Page is a 1-indexed offset/limit window. Size 0 means unbounded.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip. It saturates at math.MaxInt
// instead of overflowing, so huge page numbers land past the last row.
func (p Page) Offset() int {
	if p.Size <= 0 || p.Number <= 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Recent returns a first page of n rows.
func Recent(n int) Page {
	return Page{Number: 1, Size: n}
}

// Params is the full set of listing options.
type Params struct {
	Filter Filter
	Order  Order
	Page   Page
}

// Parse builds listing options from request query values. Malformed dates and
// unknown categories are dropped rather than reported; a missing or malformed
// page defaults to 1.
func Parse(values url.Values, pageSize int) Params {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Params{
		Filter: ParseFilter(values.Get("category"), values.Get("start_date"), values.Get("end_date")),
		Order:  ParseOrder(values.Get("order")),
		Page:   Page{Number: ParsePage(values.Get("page")), Size: pageSize},
	}
}

// ParseFilter builds a Filter from raw strings.
func ParseFilter(category, startDate, endDate string) Filter {
	var f Filter
	if c := models.Category(strings.TrimSpace(category)); c.Valid() {
		f.Category = c
	}
	f.StartDate = ParseDate(startDate)
	f.EndDate = ParseDate(endDate)
	return f
}

// ParseDate parses a calendar date, returning nil when s is empty or invalid.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil
	}
	return &d
}

// ParsePage returns the page number in s, or 1.
func ParsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseOrder maps "oldest" to OldestFirst and anything else to NewestFirst.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), "oldest") {
		return OldestFirst
	}
	return NewestFirst
}

// TotalPages returns how many pages of size hold total rows.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Values encodes the filter and order back into query values, for building
// pagination links.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.Filter.Category != "" {
		v.Set("category", string(p.Filter.Category))
	}
	if p.Filter.StartDate != nil {
		v.Set("start_date", p.Filter.StartDate.Format(models.DateLayout))
	}
	if p.Filter.EndDate != nil {
		v.Set("end_date", p.Filter.EndDate.Format(models.DateLayout))
	}
	if p.Order != NewestFirst {
		v.Set("order", p.Order.String())
	}
	return v
}
