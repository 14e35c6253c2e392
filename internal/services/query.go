package services

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"spendlog/internal/core"
)

// Filter narrows an expense list. Zero values match everything.
type Filter struct {
	Search    string // case-insensitive, matched against description and category
	Category  core.Option[core.Category]
	Sentiment core.Option[core.Sentiment]
	Start     core.Date
	End       core.Date
}

func (f Filter) Match(e core.Expense) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(e.Description), q) &&
			!strings.Contains(strings.ToLower(string(e.Category)), q) {
			return false
		}
	}
	if c, ok := f.Category.Get(); ok && e.Category != c {
		return false
	}
	if want, ok := f.Sentiment.Get(); ok {
		got, ok := e.Sentiment.Get()
		if !ok || got != want {
			return false
		}
	}
	if !f.Start.IsZero() && e.Date.Before(f.Start.Time) {
		return false
	}
	if !f.End.IsZero() && e.Date.After(f.End.Time) {
		return false
	}
	return true
}

// Apply returns the matching expenses in their original order.
func (f Filter) Apply(expenses []core.Expense) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

type SortField string

const (
	SortByDate     SortField = "date"
	SortByAmount   SortField = "amount"
	SortByCategory SortField = "category"
)

// Sort orders a list by one field. Equal keys fall back to creation time in
// the same direction.
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort lists the newest expenses first.
var DefaultSort = Sort{Field: SortByDate, Desc: true}

// ParseSort reads a field name and a direction ("asc" or "desc"). Empty
// values fall back to DefaultSort.
func ParseSort(field, dir string) (Sort, error) {
	s := DefaultSort
	switch SortField(strings.ToLower(strings.TrimSpace(field))) {
	case "":
	case SortByDate:
		s.Field = SortByDate
	case SortByAmount:
		s.Field = SortByAmount
	case SortByCategory:
		s.Field = SortByCategory
	default:
		return Sort{}, fmt.Errorf("unknown sort field %q", field)
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "desc":
		s.Desc = true
	case "asc":
		s.Desc = false
	default:
		return Sort{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return s, nil
}

// Apply sorts expenses in place.
func (o Sort) Apply(expenses []core.Expense) {
	slices.SortStableFunc(expenses, func(a, b core.Expense) int {
		var c int
		switch o.Field {
		case SortByAmount:
			c = cmp.Compare(a.Amount.Cents, b.Amount.Cents)
		case SortByCategory:
			c = strings.Compare(string(a.Category), string(b.Category))
		default:
			c = a.Date.Compare(b.Date.Time)
		}
		if c == 0 {
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if o.Desc {
			return -c
		}
		return c
	})
}
