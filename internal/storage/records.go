package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/pet"
)

// Storage keys. Each is read and written as one full value.
const (
	ExpensesKey = "expense-tracker-expenses"
	PetKey      = "expense-tracker-pet"
	HomeKey     = "expense-tracker-home-location"
)

// Records is the typed view over a KV used by the application. Corrupt
// values are logged and treated as absent; only I/O failures are errors.
type Records struct {
	kv KV
}

func NewRecords(kv KV) *Records {
	return &Records{kv: kv}
}

// LoadExpenses returns the stored collection, or an empty one when nothing
// usable is stored. Records that fail to decode are skipped one by one so
// a single bad entry does not hide the rest.
func (r *Records) LoadExpenses(ctx context.Context) ([]core.Expense, error) {
	raw, ok, err := r.kv.Get(ctx, ExpensesKey)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	if !ok {
		return []core.Expense{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.WarnContext(ctx, "Stored expenses are unreadable, starting empty",
			"key", ExpensesKey, "error", err)
		return []core.Expense{}, nil
	}
	expenses := make([]core.Expense, 0, len(items))
	for i, item := range items {
		var e core.Expense
		if err := json.Unmarshal(item, &e); err != nil {
			slog.WarnContext(ctx, "Skipping unreadable stored expense",
				"key", ExpensesKey, "index", i, "error", err)
			continue
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// SaveExpenses overwrites the stored collection.
func (r *Records) SaveExpenses(ctx context.Context, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	b, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := r.kv.Put(ctx, ExpensesKey, string(b)); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}
	return nil
}

// LoadPet returns the stored pet, or a new one when nothing usable is stored.
func (r *Records) LoadPet(ctx context.Context, now time.Time) (pet.State, error) {
	raw, ok, err := r.kv.Get(ctx, PetKey)
	if err != nil {
		return pet.State{}, fmt.Errorf("load pet: %w", err)
	}
	if !ok {
		return pet.New(now), nil
	}
	var p pet.State
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		slog.WarnContext(ctx, "Stored pet is unreadable, starting fresh",
			"key", PetKey, "error", err)
		return pet.New(now), nil
	}
	return p.Sanitize(now), nil
}

func (r *Records) SavePet(ctx context.Context, p pet.State) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pet: %w", err)
	}
	if err := r.kv.Put(ctx, PetKey, string(b)); err != nil {
		return fmt.Errorf("save pet: %w", err)
	}
	return nil
}

// LoadHome returns the saved home location, if any.
func (r *Records) LoadHome(ctx context.Context) (core.Option[core.Location], error) {
	raw, ok, err := r.kv.Get(ctx, HomeKey)
	if err != nil {
		return core.None[core.Location](), fmt.Errorf("load home location: %w", err)
	}
	if !ok {
		return core.None[core.Location](), nil
	}
	var loc core.Option[core.Location]
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		slog.WarnContext(ctx, "Stored home location is unreadable, ignoring",
			"key", HomeKey, "error", err)
		return core.None[core.Location](), nil
	}
	return loc, nil
}

// SaveHome stores loc, or clears the home location when loc is None.
func (r *Records) SaveHome(ctx context.Context, loc core.Option[core.Location]) error {
	b, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode home location: %w", err)
	}
	if err := r.kv.Put(ctx, HomeKey, string(b)); err != nil {
		return fmt.Errorf("save home location: %w", err)
	}
	return nil
}
