// Package handler contains HTTP handlers for the Cloche marketplace API.
//
// This file provides shared JSON request/response helpers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/google/uuid"
)

// maxJSONBody caps JSON request bodies at 1MB.
const maxJSONBody = 1 << 20

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON parses the request body into dst. Returns a domain.EINVALID
// error on malformed input.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid("", "Invalid JSON body")
	}
	return nil
}

// parseUUIDField parses a UUID carried in a request body field.
func parseUUIDField(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, domain.Invalid("", "Invalid "+name)
	}
	return id, nil
}

// pathUUID parses a UUID path value. Returns a domain.EINVALID error when the
// segment is not a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.Invalid("", "Invalid "+name)
	}
	return id, nil
}
