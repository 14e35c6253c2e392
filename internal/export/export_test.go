package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"spendlog/internal/core"
)

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func render(t *testing.T, expenses []core.Expense, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, expenses, opts); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestCSVQuotesDescription(t *testing.T) {
	e := core.Expense{
		ID:          "1",
		Date:        mustDate(t, "2024-01-05"),
		Amount:      core.Money{Cents: 1250},
		Category:    core.Food,
		Description: `Lunch "special"`,
	}
	got := render(t, []core.Expense{e}, Options{
		Format: CSV,
		Fields: []Field{FieldDate, FieldAmount, FieldDescription},
	})
	want := "Date,Amount,Description\n2024-01-05,12.50,\"Lunch \"\"special\"\"\""
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func TestCSVAllFieldsAndOptionalBlanks(t *testing.T) {
	expenses := []core.Expense{
		{
			Date: mustDate(t, "2024-02-01"), Amount: core.Money{Cents: 300}, Category: core.Transportation,
			Description: "Bus", Sentiment: core.Some(core.Essential),
			Location: core.Some(core.Location{Name: "Central Station", Lat: 1, Lng: 2}),
		},
		{Date: mustDate(t, "2024-02-02"), Amount: core.Money{Cents: 5}, Category: core.Other, Description: "Gum"},
	}
	got := render(t, expenses, Options{Format: CSV, Fields: AllFields()})
	lines := strings.Split(got, "\n")
	want := []string{
		"Date,Amount,Category,Sentiment,Location,Description",
		`2024-02-01,3.00,Transportation,Essential,Central Station,"Bus"`,
		`2024-02-02,0.05,Other,,,"Gum"`,
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines: %q", len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q want %q", i, lines[i], want[i])
		}
	}
}

func TestCSVFieldOrderFollowsSelection(t *testing.T) {
	e := core.Expense{Date: mustDate(t, "2024-01-05"), Amount: core.Money{Cents: 100}, Category: core.Bills, Description: "x"}
	got := render(t, []core.Expense{e}, Options{Format: CSV, Fields: []Field{FieldCategory, FieldDate}})
	if got != "Category,Date\nBills,2024-01-05" {
		t.Fatalf("got %q", got)
	}
}

func TestCSVSummary(t *testing.T) {
	expenses := []core.Expense{
		{Date: mustDate(t, "2024-01-01"), Amount: core.Money{Cents: 1000}, Category: core.Food, Description: "a"},
		{Date: mustDate(t, "2024-01-02"), Amount: core.Money{Cents: 500}, Category: core.Food, Description: "b"},
		{Date: mustDate(t, "2024-01-03"), Amount: core.Money{Cents: 250}, Category: core.Bills, Description: "c"},
	}
	got := render(t, expenses, Options{Format: CSV, Fields: []Field{FieldAmount}, IncludeSummary: true})
	want := strings.Join([]string{
		"Amount",
		"10.00",
		"5.00",
		"2.50",
		"",
		"Summary",
		"Total Expenses,3",
		"Total Amount,$17.50",
		"Average Amount,$5.83",
		"",
		"By Category",
		"Food,2 expenses,$15.00",
		"Bills,1 expenses,$2.50",
	}, "\n")
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func TestDateRangeIsInclusive(t *testing.T) {
	expenses := []core.Expense{
		{Date: mustDate(t, "2024-01-01"), Amount: core.Money{Cents: 100}, Category: core.Food, Description: "before"},
		{Date: mustDate(t, "2024-01-02"), Amount: core.Money{Cents: 100}, Category: core.Food, Description: "start"},
		{Date: mustDate(t, "2024-01-03"), Amount: core.Money{Cents: 100}, Category: core.Food, Description: "end"},
		{Date: mustDate(t, "2024-01-04"), Amount: core.Money{Cents: 100}, Category: core.Food, Description: "after"},
	}
	got := render(t, expenses, Options{
		Format:    CSV,
		Fields:    []Field{FieldDescription},
		StartDate: mustDate(t, "2024-01-02"),
		EndDate:   mustDate(t, "2024-01-03"),
	})
	if got != "Description\n\"start\"\n\"end\"" {
		t.Fatalf("got %q", got)
	}

	if n := len(Filter(expenses, core.Date{}, mustDate(t, "2024-01-01"))); n != 1 {
		t.Fatalf("open start bound kept %d", n)
	}
	if n := len(Filter(expenses, core.Date{}, core.Date{})); n != 4 {
		t.Fatalf("unbounded filter kept %d", n)
	}
}

func TestJSONSelectedFields(t *testing.T) {
	e := core.Expense{
		Date: mustDate(t, "2024-01-05"), Amount: core.Money{Cents: 1250}, Category: core.Food,
		Description: "Lunch", Location: core.Some(core.Location{Name: "Cafe"}),
	}
	got := render(t, []core.Expense{e}, Options{
		Format: JSON,
		Fields: []Field{FieldAmount, FieldLocation, FieldSentiment},
	})
	want := "[\n  {\n    \"amount\": 12.5,\n    \"location\": \"Cafe\",\n    \"sentiment\": \"\"\n  }\n]"
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func TestJSONEmptyWithSummary(t *testing.T) {
	got := render(t, nil, Options{Format: JSON, Fields: AllFields(), IncludeSummary: true})

	var doc struct {
		Expenses []map[string]any `json:"expenses"`
		Summary  struct {
			TotalExpenses int                           `json:"totalExpenses"`
			TotalAmount   float64                       `json:"totalAmount"`
			AverageAmount float64                       `json:"averageAmount"`
			ByCategory    map[string]map[string]float64 `json:"byCategory"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(got), &doc); err != nil {
		t.Fatalf("invalid json %v:\n%s", err, got)
	}
	if doc.Expenses == nil || len(doc.Expenses) != 0 {
		t.Fatalf("expected empty expenses array, got %v", doc.Expenses)
	}
	if doc.Summary.TotalExpenses != 0 || doc.Summary.TotalAmount != 0 || doc.Summary.AverageAmount != 0 {
		t.Fatalf("summary not zeroed: %+v", doc.Summary)
	}
	if len(doc.Summary.ByCategory) != len(core.Categories()) {
		t.Fatalf("expected every category, got %v", doc.Summary.ByCategory)
	}
	for _, c := range core.Categories() {
		v, ok := doc.Summary.ByCategory[string(c)]
		if !ok || v["count"] != 0 || v["amount"] != 0 {
			t.Fatalf("category %s = %v", c, v)
		}
	}
	if !strings.Contains(got, `"totalAmount": 0`) {
		t.Fatalf("amount should be numeric:\n%s", got)
	}
}

func TestJSONSummaryKeyOrder(t *testing.T) {
	got := render(t, nil, Options{Format: JSON, Fields: AllFields(), IncludeSummary: true})
	order := []string{`"expenses"`, `"summary"`, `"totalExpenses"`, `"totalAmount"`, `"averageAmount"`, `"byCategory"`, `"Food"`, `"Transportation"`, `"Other"`}
	last := -1
	for _, k := range order {
		i := strings.Index(got, k)
		if i <= last {
			t.Fatalf("key %s out of order in\n%s", k, got)
		}
		last = i
	}
}

func TestZeroFields(t *testing.T) {
	e := core.Expense{Date: mustDate(t, "2024-01-05"), Amount: core.Money{Cents: 100}, Category: core.Food, Description: "x"}
	if got := render(t, []core.Expense{e}, Options{Format: CSV}); got != "" {
		t.Fatalf("csv with no fields = %q", got)
	}
	if got := render(t, []core.Expense{e}, Options{Format: JSON}); got != "[]" {
		t.Fatalf("json with no fields = %q", got)
	}
}

func TestParseFields(t *testing.T) {
	got, err := ParseFields("amount, Date,amount")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != FieldAmount || got[1] != FieldDate {
		t.Fatalf("got %v", got)
	}
	if all, _ := ParseFields(""); len(all) != len(AllFields()) {
		t.Fatalf("empty selection should mean all fields")
	}
	if _, err := ParseFields("date,price"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestFileNameAndContentType(t *testing.T) {
	now := time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC)
	if got := FileName(CSV, now); got != "expenses-2024-06-30.csv" {
		t.Fatalf("FileName csv = %q", got)
	}
	if got := FileName(JSON, now); got != "expenses-2024-06-30.json" {
		t.Fatalf("FileName json = %q", got)
	}
	if ContentType(CSV) != "text/csv;charset=utf-8;" || ContentType(JSON) != "application/json;charset=utf-8;" {
		t.Fatalf("unexpected content types")
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}
