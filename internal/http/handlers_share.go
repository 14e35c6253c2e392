package http

import (
	"net/http"

	"spendlog/internal/aggregate"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/share"
)

type shareResponse struct {
	Token       string `json:"token"`
	URL         string `json:"url"`
	Compression string `json:"compression"`
	Count       int    `json:"count"`
}

// sharedRequest carries either a bare token or a full share link.
type sharedRequest struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

func (req sharedRequest) token() (string, error) {
	if req.Token != "" {
		return req.Token, nil
	}
	return share.TokenFromURL(req.URL)
}

// handleShare encodes the expenses matching the list filter into a link.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, applog.OpEncode, err)
		return
	}
	order, err := ParseSortQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, applog.OpEncode, err)
		return
	}

	items := s.expenses.List(filter, order)
	token, err := s.codec.Encode(r.Context(), items)
	if err != nil {
		s.fail(w, r, applog.OpEncode, err)
		return
	}

	NewResponse().JSON(shareResponse{
		Token:       token,
		URL:         share.ShareURL(s.origin, token),
		Compression: s.codec.Compression(),
		Count:       len(items),
	}).Write(w)
}

func (s *Server) decodeShared(w http.ResponseWriter, r *http.Request) ([]core.Expense, error) {
	var req sharedRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	token, err := req.token()
	if err != nil {
		return nil, err
	}
	return s.codec.Decode(r.Context(), token)
}

// handleDecodeShared previews a shared collection without storing it.
func (s *Server) handleDecodeShared(w http.ResponseWriter, r *http.Request) {
	items, err := s.decodeShared(w, r)
	if err != nil {
		s.fail(w, r, applog.OpDecode, err)
		return
	}
	NewResponse().JSON(map[string]any{
		"expenses": items,
		"count":    len(items),
		"summary":  aggregate.Summarize(items, s.now()),
	}).Write(w)
}

func (s *Server) handleImportShared(w http.ResponseWriter, r *http.Request) {
	items, err := s.decodeShared(w, r)
	if err != nil {
		s.fail(w, r, applog.OpImport, err)
		return
	}
	added, err := s.expenses.Import(r.Context(), items)
	if err != nil {
		s.fail(w, r, applog.OpImport, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Shared expenses imported",
		applog.FieldCount, len(added),
		applog.FieldOperation, applog.OpImport)

	NewResponse().JSON(expenseList{Expenses: added, Count: len(added)}).Write(w)
}
