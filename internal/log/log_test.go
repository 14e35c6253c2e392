package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: slog.LevelDebug, Component: component, Output: &buf}), &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestComponentAppearsOnce(t *testing.T) {
	logger, buf := newBufferLogger(ComponentApp)

	logger.Info("hello")
	logger.WithComponent(ComponentHTTP).With(FieldRequestID, "r1").Info("request")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if strings.Count(lines[0], "component=") != 1 || !strings.Contains(lines[0], "component=app") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if strings.Count(lines[1], "component=") != 1 || !strings.Contains(lines[1], "component=http") {
		t.Errorf("unexpected second line %q", lines[1])
	}
	if !strings.Contains(lines[1], "request_id=r1") {
		t.Errorf("request id missing in %q", lines[1])
	}
}

func TestComponentMiddlewareAndFromContext(t *testing.T) {
	logger, buf := newBufferLogger(ComponentHTTP)

	handler := ComponentMiddleware(ComponentPet)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(NewContext(req.Context(), logger.With(FieldRequestID, "abc")))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !strings.Contains(out, "request_id=abc") {
		t.Fatalf("request id not propagated: %q", out)
	}
	if !strings.Contains(out, "component=pet") || strings.Contains(out, "component=http") {
		t.Fatalf("component not replaced: %q", out)
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext should fall back to the default logger")
	}
}

func TestEventHelpers(t *testing.T) {
	logger, buf := newBufferLogger(ComponentExpense)
	ctx := context.Background()

	logger.ExpenseChanged(ctx, OpCreate, "id-1", 1250, "Food", "")
	logger.Failed(ctx, "boom", errors.New("disk full"), OpUpdate, nil)
	r := httptest.NewRequest(http.MethodPost, "/api/expenses", nil)
	logger.RequestCompleted(ctx, r, http.StatusInternalServerError, 3, "127.0.0.1")

	out := buf.String()
	for _, want := range []string{"expense_id=id-1", "amount_cents=1250", "error=\"disk full\"", "level=ERROR", "status_code=500"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "sentiment=") {
		t.Errorf("empty sentiment should be omitted: %q", out)
	}
}

func TestAttrsSkipsEmptyStrings(t *testing.T) {
	attrs := Attrs{}.Add(FieldQuery, "").Add(FieldCount, 0).Err(nil).Add(FieldPath, "/x")
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %v", attrs)
	}
	if attrs[0].Key != FieldCount || attrs[1].Key != FieldPath {
		t.Errorf("unexpected order %v", attrs)
	}
}
