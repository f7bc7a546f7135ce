// Package httputil writes JSON responses and maps domain error codes onto
// HTTP statuses.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "syncauth/pkg/domain-errors"
)

type errorMapping struct {
	status int
	name   string
}

var internalMapping = errorMapping{http.StatusInternalServerError, "internal_error"}

var errorMappings = map[dErrors.Code]errorMapping{
	dErrors.CodeNotFound:        {http.StatusNotFound, "not_found"},
	dErrors.CodeBadRequest:      {http.StatusBadRequest, "bad_request"},
	dErrors.CodeInvalidInput:    {http.StatusBadRequest, "bad_request"},
	dErrors.CodeUnauthorized:    {http.StatusUnauthorized, "unauthorized"},
	dErrors.CodeTooManyRequests: {http.StatusTooManyRequests, "too_many_requests"},
	dErrors.CodeUnavailable:     {http.StatusServiceUnavailable, "service_unavailable"},
}

func mappingFor(code dErrors.Code) errorMapping {
	if m, ok := errorMappings[code]; ok {
		return m
	}
	return internalMapping
}

// WriteJSON encodes body after the header is sent; an encode failure can no
// longer change the status, so it is dropped.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError renders err as {"error": name, "error_description": message}.
// Errors without a domain code, and every 5xx, carry no description so
// registry details never leak.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, internalMapping.status, map[string]string{"error": internalMapping.name})
		return
	}

	m := mappingFor(domainErr.Code)
	body := map[string]string{"error": m.name}
	if domainErr.Message != "" && m.status < http.StatusInternalServerError {
		body["error_description"] = domainErr.Message
	}
	WriteJSON(w, m.status, body)
}
