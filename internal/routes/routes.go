// Package routes defines HTTP route constants and JSON response helpers shared by the handlers.
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/debemdeboas/folio/internal/config"
)

const (
	RootPath    = "/"
	HealthPath  = "/healthz"
	UploadsPath = "/uploads/"

	SyntaxThemeGet = "/syntax/{theme}"

	// API
	APIEvents       = "/api/events"
	APIImages       = "/api/images"
	APIBlogPreview  = "/api/blogs/preview"
	APIResource     = "/api/{resource}"
	APIResourceItem = "/api/{resource}/{id}"

	// Auth routes
	AuthChallenge = "/auth/challenge"
	AuthVerify    = "/auth/verify"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}
