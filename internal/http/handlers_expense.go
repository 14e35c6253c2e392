package http

import (
	"net/http"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

type expenseList struct {
	Expenses []core.Expense `json:"expenses"`
	Count    int            `json:"count"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := ParseFilter(query)
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	order, err := ParseSortQuery(query)
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}

	items := s.expenses.List(filter, order)
	NewResponse().JSON(expenseList{Expenses: items, Count: len(items)}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseInput
	if err := DecodeJSON(w, r, &in); err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}

	e, err := s.expenses.Add(r.Context(), in)
	if err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	s.logExpense(r, applog.OpCreate, e)

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		JSON(e).
		Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.expenses.Get(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(e).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseInput
	if err := DecodeJSON(w, r, &in); err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}

	e, err := s.expenses.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	s.logExpense(r, applog.OpUpdate, e)
	NewResponse().JSON(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		applog.FieldExpenseID, id)
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.expenses.Summary()).Write(w)
}

func (s *Server) logExpense(r *http.Request, op string, e core.Expense) {
	sentiment := ""
	if v, ok := e.Sentiment.Get(); ok {
		sentiment = string(v)
	}
	applog.FromContext(r.Context()).ExpenseChanged(r.Context(), op, e.ID, e.Amount.Cents, string(e.Category), sentiment)
}
