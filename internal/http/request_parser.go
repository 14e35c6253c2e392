// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for reading JSON bodies and query
// parameters into domain values.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendlog/internal/core"
	"spendlog/internal/services"
)

// MaxBodyBytes bounds every request body. Share tokens for large
// collections are the biggest payload the API accepts.
const MaxBodyBytes = 4 << 20

// DecodeJSON reads exactly one JSON value from the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errBadRequest("request body too large")
		case errors.Is(err, io.EOF):
			return errBadRequest("request body is empty")
		default:
			return errBadRequest("malformed JSON: " + err.Error())
		}
	}
	if dec.More() {
		return errBadRequest("request body must contain a single JSON value")
	}
	return nil
}

// ParseDateQuery reads an optional YYYY-MM-DD parameter. Missing values
// return the zero date.
func ParseDateQuery(query url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, errBadRequest("invalid " + key + ": " + err.Error())
	}
	return d, nil
}

// ParseIntQuery reads an optional integer within [min, max].
func ParseIntQuery(query url.Values, key string, def, min, max int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return 0, errBadRequest(key + " must be an integer between " + strconv.Itoa(min) + " and " + strconv.Itoa(max))
	}
	return n, nil
}

// ParseBoolQuery reads an optional boolean parameter.
func ParseBoolQuery(query url.Values, key string) (bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errBadRequest(key + " must be a boolean")
	}
	return b, nil
}

// ParseFilter builds a list filter from search, category, sentiment, start
// and end.
func ParseFilter(query url.Values) (services.Filter, error) {
	f := services.Filter{Search: strings.TrimSpace(query.Get("search"))}

	if v := strings.TrimSpace(query.Get("category")); v != "" {
		c, err := core.ParseCategory(v)
		if err != nil {
			return services.Filter{}, errBadRequest(err.Error())
		}
		f.Category = core.Some(c)
	}
	if v := strings.TrimSpace(query.Get("sentiment")); v != "" {
		s, err := core.ParseSentiment(v)
		if err != nil {
			return services.Filter{}, errBadRequest(err.Error())
		}
		f.Sentiment = core.Some(s)
	}

	var err error
	if f.Start, err = ParseDateQuery(query, "start"); err != nil {
		return services.Filter{}, err
	}
	if f.End, err = ParseDateQuery(query, "end"); err != nil {
		return services.Filter{}, err
	}
	return f, nil
}

// ParseSortQuery reads sort and dir.
func ParseSortQuery(query url.Values) (services.Sort, error) {
	s, err := services.ParseSort(query.Get("sort"), query.Get("dir"))
	if err != nil {
		return services.Sort{}, errBadRequest(err.Error())
	}
	return s, nil
}
