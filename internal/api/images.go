package api

import (
	"errors"
	"io"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/imagehost"
	"github.com/debemdeboas/folio/internal/routes"
)

func writeHostError(w http.ResponseWriter, status int, msg string) {
	var body imagehost.ErrorBody
	body.Error.Message = msg
	routes.WriteJSON(w, status, body)
}

// handleImageUpload accepts the same form Cloudinary's unsigned upload API does and
// answers with the same fields, so the admin uploader can target either host.
func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	if _, err := s.auth.GetUserIdFromSession(r); err != nil {
		writeHostError(w, http.StatusUnauthorized, config.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeHostError(w, http.StatusBadRequest, config.ErrInvalidMultipart)
		return
	}

	if preset := r.FormValue(config.PartUploadPreset); !slices.Contains(s.presets, preset) {
		writeHostError(w, http.StatusBadRequest, config.ErrInvalidPreset)
		return
	}

	file, header, err := r.FormFile(config.PartFile)
	if errors.Is(err, http.ErrMissingFile) {
		writeHostError(w, http.StatusBadRequest, config.ErrMissingFile)
		return
	}
	if err != nil {
		writeHostError(w, http.StatusBadRequest, config.ErrInvalidMultipart)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeHostError(w, http.StatusBadRequest, config.ErrInvalidMultipart)
		return
	}

	img, err := s.checkUpload(header.Filename, data)
	if err != nil {
		writeHostError(w, http.StatusBadRequest, badBodyMessage(err))
		return
	}

	url, err := s.storeImage(r, img)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to store image")
		writeHostError(w, http.StatusInternalServerError, config.ErrStoreImage)
		return
	}

	width, height := imagehost.Dimensions(data)
	name := path.Base(url)
	ext := path.Ext(name)

	logger.Info().Str("url", url).Int("bytes", len(data)).Msg("Image stored")
	routes.WriteJSON(w, http.StatusOK, imagehost.UploadResult{
		SecureURL: url,
		URL:       url,
		PublicID:  strings.TrimSuffix(name, ext),
		Format:    strings.TrimPrefix(ext, "."),
		Width:     width,
		Height:    height,
		Bytes:     int64(len(data)),
	})
}
