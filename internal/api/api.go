// Package api serves the REST persistence and image hosting endpoints the admin
// panel talks to.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/auth"
	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/imagehost"
	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/repository"
	"github.com/debemdeboas/folio/internal/routes"
	"github.com/debemdeboas/folio/internal/sse"
)

var apiLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

type Server struct {
	repo    repository.RecordRepository
	images  imagehost.Store
	auth    auth.AuthProvider
	clients *sse.SSEClients

	presets     []string
	maxUpload   int64
	syntaxTheme string
	renderer    string
}

func NewServer(cfg *config.Config, repo repository.RecordRepository, images imagehost.Store, provider auth.AuthProvider) *Server {
	s := &Server{
		repo:        repo,
		images:      images,
		auth:        provider,
		clients:     sse.NewSSEClients(),
		presets:     cfg.Images.UploadPresets,
		maxUpload:   int64(cfg.Server.MaxUploadMB) << 20,
		syntaxTheme: cfg.Preview.SyntaxTheme,
		renderer:    cfg.Preview.Renderer,
	}
	repo.SetChangeNotifier(s.Notify)
	return s
}

func (s *Server) Clients() *sse.SSEClients {
	return s.clients
}

// Register mounts every API route on mux. Auth routes are registered by the provider.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+routes.HealthPath, s.handleHealth)

	mux.HandleFunc("GET "+routes.APIEvents, s.handleEvents)
	mux.HandleFunc("POST "+routes.APIImages, s.handleImageUpload)
	mux.HandleFunc("POST "+routes.APIBlogPreview, s.handlePreview)
	mux.HandleFunc("GET "+routes.SyntaxThemeGet, s.handleSyntaxCSS)

	mux.HandleFunc("GET "+routes.APIResource, s.handleList)
	mux.HandleFunc("POST "+routes.APIResource, s.handleCreate)
	mux.HandleFunc("GET "+routes.APIResourceItem, s.handleGet)
	mux.HandleFunc("PATCH "+routes.APIResourceItem, s.handleUpdate)
	mux.HandleFunc("PUT "+routes.APIResourceItem, s.handleUpdate)
	mux.HandleFunc("DELETE "+routes.APIResourceItem, s.handleDelete)

	// Anything else under a resource path is a method the resource does not support.
	mux.HandleFunc(routes.APIResource, methodNotAllowed)
	mux.HandleFunc(routes.APIResourceItem, methodNotAllowed)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	routes.WriteError(w, http.StatusMethodNotAllowed, config.HTTPErrMethodNotAllowed)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	routes.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// schemaFor resolves the {resource} path value, answering 404 for unknown kinds.
func schemaFor(w http.ResponseWriter, r *http.Request) (*content.Schema, bool) {
	schema, ok := content.Lookup(model.Kind(r.PathValue("resource")))
	if !ok {
		routes.WriteError(w, http.StatusNotFound, config.ErrUnknownResource)
		return nil, false
	}
	return schema, true
}
