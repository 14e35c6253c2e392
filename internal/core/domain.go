package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Entertainment  Category = "Entertainment"
	Shopping       Category = "Shopping"
	Bills          Category = "Bills"
	Other          Category = "Other"
)

const (
	Essential    Sentiment = "Essential"
	WorthIt      Sentiment = "Worth it"
	Regret       Sentiment = "Regret"
	SkipNextTime Sentiment = "Skip next time"
)

// MaxDescriptionLength is counted in characters after trimming.
const MaxDescriptionLength = 200

type (
	Category  string
	Sentiment string

	Money struct {
		Cents int64
	}

	Location struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lng  float64 `json:"lng"`
	}

	// ExpenseInput carries the caller-editable fields of an expense.
	ExpenseInput struct {
		Date        Date
		Amount      Money
		Category    Category
		Description string
		Sentiment   Option[Sentiment]
		Location    Option[Location]
	}

	Expense struct {
		ID          string
		Date        Date
		Amount      Money
		Category    Category
		Description string
		Sentiment   Option[Sentiment]
		Location    Option[Location]
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("enter a valid amount greater than 0")
	ErrAmountTooLarge     = errors.New("amount cannot exceed $999,999.99")
	ErrEmptyDescription   = errors.New("description is required")
	ErrDescriptionTooLong = errors.New("description must be 200 characters or less")
	ErrMissingDate        = errors.New("date is required")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidSentiment   = errors.New("invalid sentiment")
	ErrMissingID          = errors.New("missing id")
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{Food, Transportation, Entertainment, Shopping, Bills, Other}
}

// Sentiments lists every sentiment in display order.
func Sentiments() []Sentiment {
	return []Sentiment{Essential, WorthIt, Regret, SkipNextTime}
}

func (c Category) Valid() bool {
	switch c {
	case Food, Transportation, Entertainment, Shopping, Bills, Other:
		return true
	}
	return false
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (s Sentiment) Valid() bool {
	switch s {
	case Essential, WorthIt, Regret, SkipNextTime:
		return true
	}
	return false
}

// ParseSentiment matches a sentiment label case-insensitively.
func ParseSentiment(s string) (Sentiment, error) {
	for _, v := range Sentiments() {
		if strings.EqualFold(string(v), strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return "", ErrInvalidSentiment
}

// NewID returns a fresh random expense identifier.
func NewID() string {
	return uuid.NewString()
}

// NewExpense assigns an id and creation time to a validated input.
func NewExpense(in ExpenseInput, now time.Time) Expense {
	return Expense{
		ID:        NewID(),
		CreatedAt: now.UTC().Truncate(time.Millisecond),
	}.Apply(in)
}

// Apply replaces every field except ID and CreatedAt.
func (e Expense) Apply(in ExpenseInput) Expense {
	e.Date = in.Date
	e.Amount = in.Amount
	e.Category = in.Category
	e.Description = in.Description
	e.Sentiment = in.Sentiment
	e.Location = in.Location
	return e
}

// Input returns the editable fields of e.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		Date:        e.Date,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Sentiment:   e.Sentiment,
		Location:    e.Location,
	}
}

// Normalize trims the description. Amounts are already held in cents.
func (in ExpenseInput) Normalize() ExpenseInput {
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// Validate reports every failing field at once.
func (in ExpenseInput) Validate() error {
	var verr ValidationError
	if err := in.Amount.Validate(); err != nil {
		verr = append(verr, FieldError{Field: "amount", Err: err})
	}
	desc := strings.TrimSpace(in.Description)
	switch {
	case desc == "":
		verr = append(verr, FieldError{Field: "description", Err: ErrEmptyDescription})
	case utf8.RuneCountInString(desc) > MaxDescriptionLength:
		verr = append(verr, FieldError{Field: "description", Err: ErrDescriptionTooLong})
	}
	if err := in.Date.Validate(); err != nil {
		verr = append(verr, FieldError{Field: "date", Err: err})
	}
	if !in.Category.Valid() {
		verr = append(verr, FieldError{Field: "category", Err: ErrInvalidCategory})
	}
	if s, ok := in.Sentiment.Get(); ok && !s.Valid() {
		verr = append(verr, FieldError{Field: "sentiment", Err: ErrInvalidSentiment})
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

func (e Expense) Validate() error {
	err := e.Input().Validate()
	if e.ID == "" {
		var verr ValidationError
		errors.As(err, &verr)
		return append(ValidationError{{Field: "id", Err: ErrMissingID}}, verr...)
	}
	return err
}

type expenseJSON struct {
	ID          string     `json:"id"`
	Date        Date       `json:"date"`
	Amount      Money      `json:"amount"`
	Category    Category   `json:"category"`
	Description string     `json:"description"`
	Sentiment   *Sentiment `json:"sentiment,omitempty"`
	Location    *Location  `json:"location,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (e Expense) MarshalJSON() ([]byte, error) {
	return json.Marshal(expenseJSON{
		ID:          e.ID,
		Date:        e.Date,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Sentiment:   e.Sentiment.ptr(),
		Location:    e.Location.ptr(),
		CreatedAt:   e.CreatedAt,
	})
}

func (e *Expense) UnmarshalJSON(b []byte) error {
	var w expenseJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = Expense{
		ID:          w.ID,
		Date:        w.Date,
		Amount:      w.Amount,
		Category:    w.Category,
		Description: w.Description,
		Sentiment:   sentimentFromPtr(w.Sentiment),
		Location:    optionFromPtr(w.Location),
		CreatedAt:   w.CreatedAt,
	}
	return nil
}

type expenseInputJSON struct {
	Date        Date       `json:"date"`
	Amount      Money      `json:"amount"`
	Category    Category   `json:"category"`
	Description string     `json:"description"`
	Sentiment   *Sentiment `json:"sentiment,omitempty"`
	Location    *Location  `json:"location,omitempty"`
}

func (in ExpenseInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(expenseInputJSON{
		Date:        in.Date,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Sentiment:   in.Sentiment.ptr(),
		Location:    in.Location.ptr(),
	})
}

func (in *ExpenseInput) UnmarshalJSON(b []byte) error {
	var w expenseInputJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*in = ExpenseInput{
		Date:        w.Date,
		Amount:      w.Amount,
		Category:    w.Category,
		Description: w.Description,
		Sentiment:   sentimentFromPtr(w.Sentiment),
		Location:    optionFromPtr(w.Location),
	}
	return nil
}

// Forms submit "" for "no sentiment".
func sentimentFromPtr(p *Sentiment) Option[Sentiment] {
	if p == nil || *p == "" {
		return None[Sentiment]()
	}
	return Some(*p)
}
