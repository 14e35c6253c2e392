// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses so every
// handler answers with the same envelope and headers.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"spendlog/internal/core"
	"spendlog/internal/pet"
	"spendlog/internal/services"
	"spendlog/internal/share"
)

// ErrorBody is the JSON document returned for every failed request.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	body       any
	raw        []byte
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header sets a response header.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets a value to be encoded as the body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	b.raw = nil
	return b
}

// Bytes sets a pre-rendered body with its content type.
func (b *ResponseBuilder) Bytes(contentType string, body []byte) *ResponseBuilder {
	b.raw = body
	b.body = nil
	return b.Header("Content-Type", contentType)
}

// Attachment marks the body as a download named filename.
func (b *ResponseBuilder) Attachment(filename string) *ResponseBuilder {
	return b.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	var payload []byte
	if b.raw != nil {
		payload = b.raw
	} else if b.body != nil {
		data, err := json.Marshal(b.body)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			b.statusCode = http.StatusInternalServerError
			data = []byte(`{"error":"internal error"}`)
		}
		payload = append(data, '\n')
		b.headers["Content-Type"] = "application/json; charset=utf-8"
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(payload) > 0 {
		_, _ = w.Write(payload)
	}
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(ErrorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ValidationErrorResponse creates a 422 response listing the failing fields.
func ValidationErrorResponse(v core.ValidationError) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusUnprocessableEntity).
		JSON(ErrorBody{Error: "validation failed", Fields: v.Fields()})
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ServiceUnavailableError creates a 503 response for a missing collaborator.
func ServiceUnavailableError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

// badRequest marks client input that could not be read at all.
type badRequest struct {
	msg string
}

func (e badRequest) Error() string { return e.msg }

func errBadRequest(msg string) error { return badRequest{msg: msg} }

// errorResponse maps a service error onto its status code. Unknown errors
// become 500 and keep their detail out of the body.
func errorResponse(err error) *ResponseBuilder {
	var (
		bad badRequest
		ve  core.ValidationError
	)
	switch {
	case errors.As(err, &bad):
		return BadRequestError(bad.msg)
	case errors.As(err, &ve):
		return ValidationErrorResponse(ve)
	case errors.Is(err, services.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, share.ErrInvalidToken):
		return ErrorResponse(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, pet.ErrNoTreats):
		return ErrorResponse(http.StatusConflict, err.Error())
	default:
		return InternalServerError("internal error")
	}
}
