package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/export"
	"spendlog/internal/services"
	"spendlog/internal/sheets"
)

// Treater grants the pet one treat.
type Treater interface {
	AddTreat(ctx context.Context) (services.PetView, error)
}

// ExpenseLoader reads the stored expense collection.
type ExpenseLoader interface {
	LoadExpenses(ctx context.Context) ([]core.Expense, error)
}

// ActivityWorker turns activity events into pet rewards and keeps an
// optional spreadsheet mirror of the expense collection.
type ActivityWorker struct {
	pets     Treater
	expenses ExpenseLoader
	sheets   sheets.Exporter
	dirty    atomic.Bool
}

// NewActivityWorker creates the worker. exporter may be nil to disable the
// spreadsheet mirror.
func NewActivityWorker(pets Treater, expenses ExpenseLoader, exporter sheets.Exporter) *ActivityWorker {
	w := &ActivityWorker{
		pets:     pets,
		expenses: expenses,
		sheets:   exporter,
	}
	w.dirty.Store(true)
	return w
}

// HandleActivity processes a single activity message from AMQP.
func (w *ActivityWorker) HandleActivity(ctx context.Context, msg *amqp.ActivityMessage) error {
	slog.InfoContext(ctx, "Processing activity message",
		"kind", msg.Kind,
		"expense_id", msg.ExpenseID,
		"count", msg.Count)

	switch msg.Kind {
	case amqp.ExpenseAdded:
		if _, err := w.pets.AddTreat(ctx); err != nil {
			return fmt.Errorf("reward pet: %w", err)
		}
	case amqp.ExpensesImported, amqp.ExpenseUpdated, amqp.ExpenseDeleted:
		// The collection changed but no treat is earned.
	default:
		slog.WarnContext(ctx, "Ignoring unknown activity", "kind", msg.Kind)
		return nil
	}

	w.dirty.Store(true)
	return nil
}

// SyncSheets mirrors the collection to the spreadsheet when it changed
// since the last successful sync. It reports whether an export ran.
func (w *ActivityWorker) SyncSheets(ctx context.Context) (bool, error) {
	if w.sheets == nil || !w.dirty.Swap(false) {
		return false, nil
	}
	// Changes announced while exporting set dirty again and are picked up
	// by the next sync.
	expenses, err := w.expenses.LoadExpenses(ctx)
	if err != nil {
		w.dirty.Store(true)
		return false, fmt.Errorf("load expenses: %w", err)
	}

	fields := export.AllFields()
	ref, err := w.sheets.Export(ctx, export.Headers(fields), export.Rows(expenses, fields))
	if err != nil {
		w.dirty.Store(true)
		return false, fmt.Errorf("export to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Expenses mirrored to sheets",
		"count", len(expenses),
		"sheets_ref", ref)
	return true, nil
}
