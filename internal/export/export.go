// Package export renders expenses to downloadable CSV or JSON documents.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"spendlog/internal/aggregate"
	"spendlog/internal/core"
)

// Options controls a single export.
type Options struct {
	Format         Format
	Fields         []Field
	StartDate      core.Date // inclusive, zero means unbounded
	EndDate        core.Date // inclusive, zero means unbounded
	IncludeSummary bool
}

// Filter keeps expenses dated within [start, end]. Zero bounds are open.
func Filter(expenses []core.Expense, start, end core.Date) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !start.IsZero() && e.Date.Before(start.Time) {
			continue
		}
		if !end.IsZero() && e.Date.After(end.Time) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Render writes the filtered expenses to w. An empty selection produces an
// empty-bodied document rather than an error.
func Render(w io.Writer, expenses []core.Expense, opts Options) error {
	filtered := Filter(expenses, opts.StartDate, opts.EndDate)
	switch opts.Format {
	case CSV, "":
		return renderCSV(w, filtered, opts)
	case JSON:
		return renderJSON(w, filtered, opts)
	default:
		return fmt.Errorf("unknown export format %q", opts.Format)
	}
}

// FileName returns expenses-YYYY-MM-DD.<format>.
func FileName(format Format, now time.Time) string {
	if format == "" {
		format = CSV
	}
	return "expenses-" + now.UTC().Format(core.DateLayout) + "." + string(format)
}

// ContentType returns the MIME type served for format.
func ContentType(format Format) string {
	if format == JSON {
		return "application/json;charset=utf-8;"
	}
	return "text/csv;charset=utf-8;"
}

type stats struct {
	count   int
	total   core.Money
	average core.Money
	byCat   []core.CategoryTotal
}

func summarize(expenses []core.Expense) stats {
	total := aggregate.TotalSpent(expenses)
	return stats{
		count:   len(expenses),
		total:   total,
		average: total.DivRound(len(expenses)),
		byCat:   aggregate.CategoryTotals(expenses),
	}
}

func renderCSV(w io.Writer, expenses []core.Expense, opts Options) error {
	lines := []string{strings.Join(Headers(opts.Fields), ",")}
	if len(opts.Fields) > 0 {
		for _, row := range Rows(expenses, opts.Fields) {
			for i, f := range opts.Fields {
				if f == FieldDescription {
					row[i] = quote(row[i])
				}
			}
			lines = append(lines, strings.Join(row, ","))
		}
	}

	if opts.IncludeSummary {
		s := summarize(expenses)
		lines = append(lines,
			"",
			"Summary",
			"Total Expenses,"+strconv.Itoa(s.count),
			"Total Amount,"+s.total.Dollars(),
			"Average Amount,"+s.average.Dollars(),
			"",
			"By Category",
		)
		for _, ct := range s.byCat {
			if ct.Count == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s,%d expenses,%s", ct.Category, ct.Count, ct.Amount.Dollars()))
		}
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func renderJSON(w io.Writer, expenses []core.Expense, opts Options) error {
	records := make([]object, 0, len(expenses))
	if len(opts.Fields) > 0 {
		for _, e := range expenses {
			rec := make(object, 0, len(opts.Fields))
			for _, f := range opts.Fields {
				var v any = Value(e, f)
				if f == FieldAmount {
					v = e.Amount
				}
				rec = append(rec, member{string(f), v})
			}
			records = append(records, rec)
		}
	}

	var doc any = records
	if opts.IncludeSummary {
		s := summarize(expenses)
		byCat := make(object, 0, len(s.byCat))
		for _, ct := range s.byCat {
			byCat = append(byCat, member{string(ct.Category), object{
				{"count", ct.Count},
				{"amount", ct.Amount},
			}})
		}
		doc = object{
			{"expenses", records},
			{"summary", object{
				{"totalExpenses", s.count},
				{"totalAmount", s.total},
				{"averageAmount", s.average},
				{"byCategory", byCat},
			}},
		}
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// object is a JSON object that keeps its keys in insertion order.
type object []member

type member struct {
	key   string
	value any
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
