package http

import (
	"errors"
	"net/http"

	"spendlog/internal/aggregate"
	"spendlog/internal/charts"
	applog "spendlog/internal/log"
)

func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, png []byte, err error) {
	if errors.Is(err, charts.ErrNoData) {
		NewResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	if err != nil {
		s.fail(w, r, applog.OpRender, err)
		return
	}
	NewResponse().Bytes("image/png", png).Write(w)
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	months, err := ParseIntQuery(r.URL.Query(), "months", aggregate.DefaultMonths, 1, maxMonths)
	if err != nil {
		s.fail(w, r, applog.OpRender, err)
		return
	}
	png, err := charts.MonthlyBar(aggregate.MonthlySeries(s.expenses.All(), s.now(), months))
	s.writeChart(w, r, png, err)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	png, err := charts.CategoryPie(aggregate.CategoryBreakdown(s.expenses.All()))
	s.writeChart(w, r, png, err)
}
