// Package middleware holds the HTTP middleware shared by the public and
// admin routes.
package middleware

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

type errorBody struct {
	Error string `json:"error"`
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}
