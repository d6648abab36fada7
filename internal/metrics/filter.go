package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/darkstoremetrics/internal/models"
)

var ErrInvalidDate = errors.New("invalid date")

const dateLayout = "2006-01-02"

// DateRange is an inclusive, date-only range on order creation.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Criteria narrows orders by store, brand and creation date. Empty or "all"
// store/brand values and a nil range match everything.
type Criteria struct {
	Store string
	Brand string
	Dates *DateRange
}

// ParseDateRange builds a range from YYYY-MM-DD bounds. The range only
// applies when both bounds are given, so a missing bound yields nil.
func ParseDateRange(start, end string, loc *time.Location) (*DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	s, err := time.ParseInLocation(dateLayout, start, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q", ErrInvalidDate, start)
	}
	e, err := time.ParseInLocation(dateLayout, end, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q", ErrInvalidDate, end)
	}
	return &DateRange{Start: s, End: e}, nil
}

// Contains compares calendar dates only, reading t in the range's location.
func (r DateRange) Contains(t time.Time) bool {
	day := civilDay(t.In(r.Start.Location()))
	return !day.Before(civilDay(r.Start)) && !day.After(civilDay(r.End))
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (c Criteria) Match(o models.Order) bool {
	if active(c.Store) && o.StoreName != c.Store {
		return false
	}
	if active(c.Brand) && o.BrandName != c.Brand {
		return false
	}
	if c.Dates != nil && !c.Dates.Contains(o.CreatedAt) {
		return false
	}
	return true
}

// IsZero reports whether c matches every order.
func (c Criteria) IsZero() bool {
	return !active(c.Store) && !active(c.Brand) && c.Dates == nil
}

func active(v string) bool {
	return v != "" && v != models.FilterAll
}

// Filter returns the orders matching every criterion, in input order. The
// result is always a new slice.
func Filter(orders []models.Order, criteria ...Criteria) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if matchAll(o, criteria) {
			out = append(out, o)
		}
	}
	return out
}

func matchAll(o models.Order, criteria []Criteria) bool {
	for _, c := range criteria {
		if !c.Match(o) {
			return false
		}
	}
	return true
}
