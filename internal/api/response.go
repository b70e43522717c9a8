// Package api implements the client-facing HTTP REST surface: sandbox CRUD
// and command submit/status/logs/terminate. It uses Chi as the router and
// serves everything under /api. Authentication is assumed to be handled by a
// front layer.
package api

import (
	"encoding/json"
	"net/http"
)

// envelope is the JSON wrapper for error responses:
//
//	{"error": {"message": "...", "code": "..."}}
//
// Successful responses are returned bare, in the shapes the endpoints
// document — clients of the command API are thin SDKs that bind directly to
// those shapes.
type envelope map[string]any

// errorResponse is the shape of the "error" object in error responses.
type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// JSON writes a JSON-encoded response with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// errJSON writes a JSON error response. code is a machine-readable string
// clients can branch on.
func errJSON(w http.ResponseWriter, status int, message, code string) {
	JSON(w, status, envelope{
		"error": errorResponse{Message: message, Code: code},
	})
}

// ErrBadRequest writes a 400 Bad Request error response.
func ErrBadRequest(w http.ResponseWriter, message string) {
	errJSON(w, http.StatusBadRequest, message, "bad_request")
}

// ErrNotFound writes a 404 Not Found error response.
func ErrNotFound(w http.ResponseWriter, message string) {
	errJSON(w, http.StatusNotFound, message, "not_found")
}

// ErrInternal writes a 500 response carrying a diagnostic detail and code.
// The command path deliberately exposes the failure kind (no ready agent,
// agent disconnected, …) so callers can distinguish retryable conditions.
func ErrInternal(w http.ResponseWriter, message, code string) {
	errJSON(w, http.StatusInternalServerError, message, code)
}

// decodeJSON decodes the request body into dst. Returns false and writes an
// error response if decoding fails, so callers can early-return.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		ErrBadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
