package http

import (
	"errors"
	"net/http"
	"strings"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

var (
	errLatitude  = errors.New("latitude must be between -90 and 90")
	errLongitude = errors.New("longitude must be between -180 and 180")
)

func validateLocation(loc core.Location) error {
	var ve core.ValidationError
	if loc.Lat < -90 || loc.Lat > 90 {
		ve = append(ve, core.FieldError{Field: "lat", Err: errLatitude})
	}
	if loc.Lng < -180 || loc.Lng > 180 {
		ve = append(ve, core.FieldError{Field: "lng", Err: errLongitude})
	}
	if len(ve) > 0 {
		return ve
	}
	return nil
}

func (s *Server) handleGetHome(w http.ResponseWriter, r *http.Request) {
	home, err := s.locations.Home(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(map[string]any{"home": home}).Write(w)
}

// handleSetHome stores {"home": {...}}; {"home": null} clears it.
func (s *Server) handleSetHome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Home core.Option[core.Location] `json:"home"`
	}
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	if loc, ok := req.Home.Get(); ok {
		if err := validateLocation(loc); err != nil {
			s.fail(w, r, applog.OpUpdate, err)
			return
		}
	}
	if err := s.locations.SetHome(r.Context(), req.Home); err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	NewResponse().JSON(map[string]any{"home": req.Home}).Write(w)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	results, err := s.locations.Search(r.Context(), q)
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Geocode lookup failed",
			applog.FieldError, err.Error())
		ErrorResponse(http.StatusBadGateway, "location search unavailable").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{"results": results}).Write(w)
}
