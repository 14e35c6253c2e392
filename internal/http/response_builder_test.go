package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spendlog/internal/core"
	"spendlog/internal/pet"
	"spendlog/internal/services"
	"spendlog/internal/share"
)

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/1").
		JSON(map[string]int{"count": 2}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Location"); got != "/api/expenses/1" {
		t.Errorf("Location = %q", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"count":2}` {
		t.Errorf("Body = %q", got)
	}
}

func TestResponseBuilder_BytesAttachment(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Bytes("text/csv;charset=utf-8;", []byte("a,b\n")).
		Attachment("expenses-2024-01-01.csv").
		Write(w)

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="expenses-2024-01-01.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.String() != "a,b\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}

func TestResponseBuilder_UnencodableBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().JSON(make(chan int)).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorResponseMapping(t *testing.T) {
	validation := core.ValidationError{{Field: "amount", Err: core.ErrInvalidAmount}}

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"bad request", errBadRequest("malformed JSON"), http.StatusBadRequest, "malformed JSON"},
		{"validation", validation, http.StatusUnprocessableEntity, `"amount"`},
		{"wrapped validation", fmt.Errorf("shared expense 0: %w", validation), http.StatusUnprocessableEntity, `"fields"`},
		{"not found", services.ErrNotFound, http.StatusNotFound, "not found"},
		{"invalid token", fmt.Errorf("%w: bad base64", share.ErrInvalidToken), http.StatusUnprocessableEntity, "invalid share token"},
		{"no treats", pet.ErrNoTreats, http.StatusConflict, "no treats"},
		{"internal", errors.New("disk exploded"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			errorResponse(tt.err).Write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if !strings.Contains(w.Body.String(), tt.body) {
				t.Errorf("body %q missing %q", w.Body.String(), tt.body)
			}
			if strings.Contains(w.Body.String(), "disk exploded") {
				t.Error("internal error detail leaked")
			}
		})
	}
}
