// Package api implements the HTTP layer of the todo backend. It uses
// Chi as the router. All /todos routes sit behind the bearer-token auth
// gate; the OAuth callback and the operational endpoints are public.
//
// The wire contract is fixed by the browser client: payloads are written
// bare (no envelope) and every error body has the shape
// {"error": "<message>"}.
package api

import (
	"encoding/json"
	"net/http"
)

// errorBody is the shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes a JSON-encoded response with the given status code.
// It sets Content-Type to application/json automatically.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// NoContent writes a 204 No Content response with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Err writes a JSON error response with the given status and message.
func Err(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Error: message})
}

// ErrBadRequest writes a 400 Bad Request error response.
func ErrBadRequest(w http.ResponseWriter, message string) {
	Err(w, http.StatusBadRequest, message)
}

// ErrUnauthorized writes a 401 Unauthorized error response. The body is
// exactly {"error": "Unauthorized"} — the browser client matches on it.
func ErrUnauthorized(w http.ResponseWriter) {
	Err(w, http.StatusUnauthorized, "Unauthorized")
}

// ErrInternal writes a 500 Internal Server Error response. The internal
// error detail is intentionally not exposed to the client.
func ErrInternal(w http.ResponseWriter) {
	Err(w, http.StatusInternalServerError, "Internal Server Error")
}

// decodeJSON decodes the request body into dst. Returns false and writes
// an appropriate error response if decoding fails, so callers can
// early-return.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		ErrBadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
