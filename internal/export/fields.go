package export

import (
	"fmt"
	"strings"

	"spendlog/internal/core"
)

// Format is the output encoding of an export.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// Field names one exportable expense attribute.
type Field string

const (
	FieldDate        Field = "date"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
	FieldSentiment   Field = "sentiment"
	FieldLocation    Field = "location"
	FieldDescription Field = "description"
)

var labels = map[Field]string{
	FieldDate:        "Date",
	FieldAmount:      "Amount",
	FieldCategory:    "Category",
	FieldSentiment:   "Sentiment",
	FieldLocation:    "Location",
	FieldDescription: "Description",
}

// AllFields returns every field in default column order.
func AllFields() []Field {
	return []Field{FieldDate, FieldAmount, FieldCategory, FieldSentiment, FieldLocation, FieldDescription}
}

// Label is the human readable column header.
func (f Field) Label() string {
	return labels[f]
}

func (f Field) Valid() bool {
	_, ok := labels[f]
	return ok
}

// ParseFormat accepts "csv" or "json", defaulting to csv when empty.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", CSV:
		return CSV, nil
	case JSON:
		return JSON, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ParseFields reads a comma separated field list, keeping the given order
// and dropping duplicates. An empty list selects every field.
func ParseFields(s string) ([]Field, error) {
	if strings.TrimSpace(s) == "" {
		return AllFields(), nil
	}
	var out []Field
	seen := make(map[Field]bool)
	for _, part := range strings.Split(s, ",") {
		f := Field(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		if !f.Valid() {
			return nil, fmt.Errorf("unknown export field %q", part)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// Value renders one field of e as plain text, without CSV quoting.
func Value(e core.Expense, f Field) string {
	switch f {
	case FieldDate:
		return e.Date.String()
	case FieldAmount:
		return e.Amount.String()
	case FieldCategory:
		return string(e.Category)
	case FieldSentiment:
		return string(e.Sentiment.OrElse(""))
	case FieldLocation:
		if loc, ok := e.Location.Get(); ok {
			return loc.Name
		}
		return ""
	case FieldDescription:
		return e.Description
	}
	return ""
}

// Headers returns the labels of fields in order.
func Headers(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Label()
	}
	return out
}

// Rows returns the unquoted cell matrix for expenses.
func Rows(expenses []core.Expense, fields []Field) [][]string {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = Value(e, f)
		}
		rows = append(rows, row)
	}
	return rows
}
