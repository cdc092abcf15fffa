package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/render"
	"github.com/debemdeboas/folio/internal/routes"
	"github.com/debemdeboas/folio/internal/util"
)

type PreviewRequest struct {
	Content string `json:"content"`
	Theme   string `json:"theme,omitempty"`
}

const emptyPreview = "Start typing in the editor to see a preview here."

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth.EnforceUserAndGetId(w, r); err != nil {
		return
	}

	var req PreviewRequest
	if strings.HasPrefix(r.Header.Get(config.HCType), config.CTypeJSON) {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxUpload)).Decode(&req); err != nil {
			routes.WriteError(w, http.StatusBadRequest, config.ErrInvalidJSON)
			return
		}
	} else {
		req.Content = r.FormValue("content")
		req.Theme = r.FormValue("theme")
	}

	if req.Content == "" {
		req.Content = emptyPreview
	}
	theme := s.syntaxTheme
	if req.Theme != "" && render.ValidTheme(req.Theme) {
		theme = req.Theme
	}

	htmlContent, _ := render.RenderMarkdownCached([]byte(req.Content), s.renderer, theme)

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write(htmlContent)
}

func (s *Server) handleSyntaxCSS(w http.ResponseWriter, r *http.Request) {
	theme := r.PathValue("theme")
	if !render.ValidTheme(theme) {
		routes.WriteError(w, http.StatusNotFound, "Unknown syntax theme")
		return
	}

	css, err := render.SyntaxCSS(theme)
	if err != nil {
		routes.WriteError(w, http.StatusInternalServerError, config.ErrInternalServerError)
		return
	}

	themeStyle := []byte(css)
	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(themeStyle))
	w.WriteHeader(http.StatusOK)
	w.Write(themeStyle)
}
