package http

import (
	"net/http"

	"spendlog/internal/aggregate"
	applog "spendlog/internal/log"
)

// maxMonths bounds the trailing monthly series.
const maxMonths = 36

func (s *Server) handleCategoryInsights(w http.ResponseWriter, r *http.Request) {
	all := s.expenses.All()
	NewResponse().JSON(map[string]any{
		"breakdown": aggregate.CategoryBreakdown(all),
		"totals":    aggregate.CategoryTotals(all),
	}).Write(w)
}

func (s *Server) handleSentimentInsights(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(aggregate.SentimentBreakdown(s.expenses.All())).Write(w)
}

func (s *Server) handleMonthlyInsights(w http.ResponseWriter, r *http.Request) {
	months, err := ParseIntQuery(r.URL.Query(), "months", aggregate.DefaultMonths, 1, maxMonths)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(aggregate.MonthlySeries(s.expenses.All(), s.now(), months)).Write(w)
}
