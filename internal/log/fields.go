package log

import (
	"log/slog"
	"net/http"
)

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldReferer     = "referer"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldExpenseID   = "expense_id"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldSentiment   = "sentiment"
	FieldCount       = "count"
	FieldCodec       = "share_codec"
	FieldFormat      = "export_format"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentExpense   = "expense"
	ComponentShare     = "share"
	ComponentExport    = "export"
	ComponentPet       = "pet"
	ComponentGeocode   = "geocode"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpImport   = "import"
	OpEncode   = "encode"
	OpDecode   = "decode"
	OpExport   = "export"
	OpSync     = "sync"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Attrs is an ordered list of slog attributes. The zero value is ready
// to use.
type Attrs []slog.Attr

// Add appends key=value unless value is the empty string.
func (a Attrs) Add(key string, value any) Attrs {
	if str, ok := value.(string); ok && str == "" {
		return a
	}
	return append(a, slog.Any(key, value))
}

// Err records err under FieldError; nil is skipped.
func (a Attrs) Err(err error) Attrs {
	if err == nil {
		return a
	}
	return append(a, slog.String(FieldError, err.Error()))
}

// Request records the method, path and query of r.
func (a Attrs) Request(r *http.Request) Attrs {
	return a.Add(FieldMethod, r.Method).
		Add(FieldPath, r.URL.Path).
		Add(FieldQuery, r.URL.RawQuery)
}

// Expense records the identifying fields of an expense. The description is
// free text typed by the user and never logged.
func (a Attrs) Expense(id string, amountCents int64, category, sentiment string) Attrs {
	return a.Add(FieldExpenseID, id).
		Add(FieldAmountCents, amountCents).
		Add(FieldCategory, category).
		Add(FieldSentiment, sentiment)
}

// Args converts the list for the variadic slog methods.
func (a Attrs) Args() []any {
	out := make([]any, len(a))
	for i, attr := range a {
		out[i] = attr
	}
	return out
}
