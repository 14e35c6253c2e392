package http

import (
	"net/http"

	applog "spendlog/internal/log"
)

func (s *Server) handleGetPet(w http.ResponseWriter, r *http.Request) {
	p, err := s.pets.Pet(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(p).Write(w)
}

// handlePlayFetch spends one treat. An empty treat jar answers 409.
func (s *Server) handlePlayFetch(w http.ResponseWriter, r *http.Request) {
	p, err := s.pets.PlayFetch(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	NewResponse().JSON(p).Write(w)
}

func (s *Server) handleRenamePet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	p, err := s.pets.Rename(r.Context(), req.Name)
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	NewResponse().JSON(p).Write(w)
}
