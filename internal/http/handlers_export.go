package http

import (
	"bytes"
	"net/http"

	"spendlog/internal/export"
	applog "spendlog/internal/log"
)

func parseExportOptions(r *http.Request) (export.Options, error) {
	query := r.URL.Query()
	format, err := export.ParseFormat(query.Get("format"))
	if err != nil {
		return export.Options{}, errBadRequest(err.Error())
	}
	fields, err := export.ParseFields(query.Get("fields"))
	if err != nil {
		return export.Options{}, errBadRequest(err.Error())
	}
	opts := export.Options{Format: format, Fields: fields}
	if opts.StartDate, err = ParseDateQuery(query, "start"); err != nil {
		return export.Options{}, err
	}
	if opts.EndDate, err = ParseDateQuery(query, "end"); err != nil {
		return export.Options{}, err
	}
	if opts.IncludeSummary, err = ParseBoolQuery(query, "summary"); err != nil {
		return export.Options{}, err
	}
	return opts, nil
}

// handleExport streams the filtered collection as a CSV or JSON download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	opts, err := parseExportOptions(r)
	if err != nil {
		s.fail(w, r, applog.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Render(&buf, s.expenses.All(), opts); err != nil {
		s.fail(w, r, applog.OpExport, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expenses exported",
		applog.FieldFormat, string(opts.Format),
		applog.FieldOperation, applog.OpExport)

	NewResponse().
		Bytes(export.ContentType(opts.Format), buf.Bytes()).
		Attachment(export.FileName(opts.Format, s.now())).
		Write(w)
}

// handleExportSheets writes the same cell matrix as the CSV export to the
// configured spreadsheet.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		ServiceUnavailableError("spreadsheet export is not configured").Write(w)
		return
	}
	opts, err := parseExportOptions(r)
	if err != nil {
		s.fail(w, r, applog.OpExport, err)
		return
	}

	rows := export.Rows(export.Filter(s.expenses.All(), opts.StartDate, opts.EndDate), opts.Fields)
	ref, err := s.sheets.Export(r.Context(), export.Headers(opts.Fields), rows)
	if err != nil {
		s.fail(w, r, applog.OpExport, err)
		return
	}

	NewResponse().JSON(map[string]any{"range": ref, "rows": len(rows)}).Write(w)
}
