package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"spendlog/internal/aggregate"
	"spendlog/internal/amqp"
	"spendlog/internal/core"
)

// ErrNotFound is returned when no expense has the requested id.
var ErrNotFound = errors.New("expense not found")

// ExpenseRepository persists the whole expense collection as one value.
type ExpenseRepository interface {
	LoadExpenses(ctx context.Context) ([]core.Expense, error)
	SaveExpenses(ctx context.Context, expenses []core.Expense) error
}

// ActivityPublisher forwards user activity to the pet worker.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, msg *amqp.ActivityMessage) error
}

// ExpenseService owns the in-memory expense collection of one user.
//
// The collection is read once at construction. Every mutation writes the
// full collection back, so two processes sharing a store overwrite each
// other's changes (last write wins). Within a process writes are serialized.
type ExpenseService struct {
	repo      ExpenseRepository
	pets      *PetService
	publisher ActivityPublisher
	now       func() time.Time

	mu       sync.RWMutex
	expenses []core.Expense
}

// NewExpenseService loads the stored collection. publisher may be nil, in
// which case treats are granted in-process through pets.
func NewExpenseService(ctx context.Context, repo ExpenseRepository, pets *PetService, publisher ActivityPublisher) (*ExpenseService, error) {
	expenses, err := repo.LoadExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	slog.InfoContext(ctx, "Expenses loaded", "count", len(expenses))
	return &ExpenseService{
		repo:      repo,
		pets:      pets,
		publisher: publisher,
		now:       time.Now,
		expenses:  expenses,
	}, nil
}

// Add validates in and prepends it to the collection with a fresh id.
func (s *ExpenseService) Add(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	e := core.NewExpense(in, s.now())

	s.mu.Lock()
	next := make([]core.Expense, 0, len(s.expenses)+1)
	next = append(next, e)
	next = append(next, s.expenses...)
	if err := s.saveLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Expense{}, err
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expense added",
		"expense_id", e.ID,
		"category", e.Category,
		"amount", e.Amount.String())

	s.reward(ctx, e)
	return e, nil
}

// Update replaces every editable field of the expense with id.
func (s *ExpenseService) Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Expense{}, ErrNotFound
	}
	next := slices.Clone(s.expenses)
	next[i] = next[i].Apply(in)
	if err := s.saveLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Expense{}, err
	}
	updated := next[i]
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expense updated", "expense_id", id)
	s.announce(ctx, amqp.NewExpenseChanged(amqp.ExpenseUpdated, id))
	return updated, nil
}

// Delete removes the expense with id.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	next := slices.Delete(slices.Clone(s.expenses), i, i+1)
	if err := s.saveLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expense deleted", "expense_id", id)
	s.announce(ctx, amqp.NewExpenseChanged(amqp.ExpenseDeleted, id))
	return nil
}

func (s *ExpenseService) Get(id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return core.Expense{}, ErrNotFound
	}
	return s.expenses[i], nil
}

// All returns a copy of the collection in stored order.
func (s *ExpenseService) All() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.expenses)
}

// List returns the expenses matching f ordered by o.
func (s *ExpenseService) List(f Filter, o Sort) []core.Expense {
	out := f.Apply(s.All())
	o.Apply(out)
	return out
}

// Summary computes the dashboard cards as of now.
func (s *ExpenseService) Summary() core.Summary {
	return aggregate.Summarize(s.All(), s.now())
}

// Import adds shared expenses as new records. Ids and creation times from
// the share are discarded.
func (s *ExpenseService) Import(ctx context.Context, shared []core.Expense) ([]core.Expense, error) {
	now := s.now()
	added := make([]core.Expense, 0, len(shared))
	for i, e := range shared {
		in := e.Input().Normalize()
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("shared expense %d: %w", i, err)
		}
		added = append(added, core.NewExpense(in, now))
	}
	if len(added) == 0 {
		return added, nil
	}

	s.mu.Lock()
	next := make([]core.Expense, 0, len(s.expenses)+len(added))
	next = append(next, added...)
	next = append(next, s.expenses...)
	if err := s.saveLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Shared expenses imported", "count", len(added))

	s.announce(ctx, amqp.NewExpensesImported(len(added)))
	return added, nil
}

// announce publishes a change that earns nothing. Losing it only delays
// the spreadsheet mirror until the next change.
func (s *ExpenseService) announce(ctx context.Context, msg *amqp.ActivityMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to publish activity", "kind", msg.Kind, "error", err)
	}
}

func (s *ExpenseService) indexLocked(id string) int {
	return slices.IndexFunc(s.expenses, func(e core.Expense) bool { return e.ID == id })
}

func (s *ExpenseService) saveLocked(ctx context.Context, next []core.Expense) error {
	if err := s.repo.SaveExpenses(ctx, next); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}
	s.expenses = next
	return nil
}

// reward grants one treat for a newly logged expense. A failed publish
// falls back to the in-process grant so the treat is not lost.
func (s *ExpenseService) reward(ctx context.Context, e core.Expense) {
	if s.publisher != nil {
		err := s.publisher.PublishActivity(ctx, amqp.NewExpenseAdded(e.ID))
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "Failed to publish expense activity, rewarding locally",
			"expense_id", e.ID, "error", err)
	}
	if s.pets == nil {
		return
	}
	if _, err := s.pets.AddTreat(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to reward pet", "expense_id", e.ID, "error", err)
	}
}
