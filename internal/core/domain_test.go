package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func validInput() ExpenseInput {
	return ExpenseInput{
		Date:        NewDate(2024, 1, 5),
		Amount:      Money{Cents: 1250},
		Category:    Food,
		Description: "Lunch",
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-05", true},
		{"2024-02-29", true},
		{"", true}, // zero date, caught by Validate
		{"2023-02-29", false},
		{"2024-13-01", false},
		{"05/01/2024", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
		if tc.ok && d.String() != tc.in {
			t.Fatalf("%q round-tripped as %q", tc.in, d.String())
		}
	}
	if got := NewDate(2024, 3, 9).MonthKey(); got != "2024-03" {
		t.Fatalf("MonthKey = %q", got)
	}
}

func TestParseCategoryAndSentiment(t *testing.T) {
	if c, err := ParseCategory("bills"); err != nil || c != Bills {
		t.Fatalf("ParseCategory(bills) = %q, %v", c, err)
	}
	if _, err := ParseCategory("Travel"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if s, err := ParseSentiment("skip next time"); err != nil || s != SkipNextTime {
		t.Fatalf("ParseSentiment = %q, %v", s, err)
	}
	if _, err := ParseSentiment("Meh"); !errors.Is(err, ErrInvalidSentiment) {
		t.Fatalf("expected ErrInvalidSentiment, got %v", err)
	}
}

func TestExpenseInputValidate(t *testing.T) {
	if err := validInput().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*ExpenseInput)
		field  string
		err    error
	}{
		{"zero amount", func(in *ExpenseInput) { in.Amount = Money{} }, "amount", ErrInvalidAmount},
		{"too large", func(in *ExpenseInput) { in.Amount = Money{Cents: MaxAmountCents + 1} }, "amount", ErrAmountTooLarge},
		{"blank description", func(in *ExpenseInput) { in.Description = "   " }, "description", ErrEmptyDescription},
		{"long description", func(in *ExpenseInput) { in.Description = strings.Repeat("é", 201) }, "description", ErrDescriptionTooLong},
		{"missing date", func(in *ExpenseInput) { in.Date = Date{} }, "date", ErrMissingDate},
		{"bad category", func(in *ExpenseInput) { in.Category = "Travel" }, "category", ErrInvalidCategory},
		{"bad sentiment", func(in *ExpenseInput) { in.Sentiment = Some(Sentiment("Meh")) }, "sentiment", ErrInvalidSentiment},
	}
	for _, tc := range cases {
		in := validInput()
		tc.mutate(&in)
		err := in.Validate()
		if !errors.Is(err, tc.err) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
		var verr ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %T", tc.name, err)
		}
		if _, ok := verr.Fields()[tc.field]; !ok {
			t.Fatalf("%s: expected field %q in %v", tc.name, tc.field, verr.Fields())
		}
	}
}

func TestExpenseInputValidateReportsAllFields(t *testing.T) {
	err := ExpenseInput{}.Validate()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := verr.Fields()
	for _, f := range []string{"amount", "description", "date", "category"} {
		if _, ok := fields[f]; !ok {
			t.Fatalf("missing field %q in %v", f, fields)
		}
	}
}

func TestDescriptionLimitCountsCharacters(t *testing.T) {
	in := validInput()
	in.Description = strings.Repeat("€", MaxDescriptionLength)
	if err := in.Validate(); err != nil {
		t.Fatalf("200 multi-byte characters should be accepted, got %v", err)
	}
}

func TestNewExpenseAndApply(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 30, 0, 123456789, time.UTC)
	e := NewExpense(validInput(), now)
	if e.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if !e.CreatedAt.Equal(now.Truncate(time.Millisecond)) {
		t.Fatalf("createdAt = %v", e.CreatedAt)
	}
	other := NewExpense(validInput(), now)
	if other.ID == e.ID {
		t.Fatalf("ids must be unique")
	}

	in := validInput()
	in.Description = "Dinner"
	in.Sentiment = Some(Regret)
	updated := e.Apply(in)
	if updated.ID != e.ID || !updated.CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("Apply must keep id and createdAt")
	}
	if updated.Description != "Dinner" || updated.Sentiment.OrElse("") != Regret {
		t.Fatalf("Apply did not replace fields: %+v", updated)
	}
}

func TestExpenseJSONShape(t *testing.T) {
	e := Expense{
		ID:          "abc",
		Date:        NewDate(2024, 1, 5),
		Amount:      Money{Cents: 1250},
		Category:    Food,
		Description: "Lunch",
		CreatedAt:   time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"abc","date":"2024-01-05","amount":12.5,"category":"Food","description":"Lunch","createdAt":"2024-01-05T12:00:00Z"}`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}

	e.Sentiment = Some(WorthIt)
	e.Location = Some(Location{Name: "Cafe", Lat: 45.1, Lng: 9.2})
	b, err = json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var back Expense
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back.CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("createdAt mismatch: %v vs %v", back.CreatedAt, e.CreatedAt)
	}
	back.CreatedAt = e.CreatedAt
	if back != e {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", back, e)
	}
}

func TestExpenseUnmarshalBrowserTimestamp(t *testing.T) {
	raw := `{"id":"x","date":"2024-01-05","amount":3,"category":"Other","description":"Gum","sentiment":"","createdAt":"2024-01-05T10:11:12.345Z"}`
	var e Expense
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}
	if e.Sentiment.IsSome() {
		t.Fatalf("empty sentiment should decode as None")
	}
	if e.CreatedAt.Nanosecond() != 345_000_000 {
		t.Fatalf("createdAt = %v", e.CreatedAt)
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	e.ID = ""
	if err := e.Validate(); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}
