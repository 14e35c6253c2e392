package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ActivityKind names what the user did.
type ActivityKind string

const (
	ExpenseAdded     ActivityKind = "expense_added"
	ExpensesImported ActivityKind = "expenses_imported"
	ExpenseUpdated   ActivityKind = "expense_updated"
	ExpenseDeleted   ActivityKind = "expense_deleted"
)

// ActivityMessage announces a change to the expense collection. Only
// additions earn pet rewards. It carries identifiers; consumers read state
// from the record store.
type ActivityMessage struct {
	Kind      ActivityKind `json:"kind"`
	ExpenseID string       `json:"expense_id,omitempty"`
	Count     int          `json:"count"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewExpenseAdded creates the message for one newly logged expense.
func NewExpenseAdded(expenseID string) *ActivityMessage {
	return &ActivityMessage{
		Kind:      ExpenseAdded,
		ExpenseID: expenseID,
		Count:     1,
		Timestamp: time.Now().UTC(),
	}
}

// NewExpensesImported creates the message for a bulk import from a share link.
func NewExpensesImported(count int) *ActivityMessage {
	return &ActivityMessage{
		Kind:      ExpensesImported,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

// NewExpenseChanged creates the message for an edited or removed expense.
func NewExpenseChanged(kind ActivityKind, expenseID string) *ActivityMessage {
	return &ActivityMessage{
		Kind:      kind,
		ExpenseID: expenseID,
		Count:     1,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON parses and checks a message body.
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case ExpenseAdded, ExpensesImported, ExpenseUpdated, ExpenseDeleted:
	default:
		return nil, errors.New("unknown activity kind: " + string(msg.Kind))
	}
	return &msg, nil
}
