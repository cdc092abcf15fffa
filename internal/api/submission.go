package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/imagehost"
	"github.com/debemdeboas/folio/internal/model"
)

// upload is an image part of a multipart submission, already read and checked.
type upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// submission is a decoded request body: draft fields plus an optional image.
type submission struct {
	Fields model.Fields
	Image  *upload
}

var errBadBody = errors.New("bad request body")

// readSubmission decodes a JSON field map, or a multipart body carrying that map in
// the payload part and the file in the image part.
func (s *Server) readSubmission(w http.ResponseWriter, r *http.Request) (*submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)

	if strings.HasPrefix(r.Header.Get(config.HCType), config.CTypeMultipart) {
		return s.readMultipart(r)
	}

	var fields model.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %s", errBadBody, config.ErrInvalidJSON)
	}
	if fields == nil {
		fields = model.Fields{}
	}
	return &submission{Fields: fields}, nil
}

func (s *Server) readMultipart(r *http.Request) (*submission, error) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, fmt.Errorf("%w: %s", errBadBody, config.ErrInvalidMultipart)
	}

	sub := &submission{Fields: model.Fields{}}
	if payload := r.FormValue(config.PartPayload); payload != "" {
		if err := json.Unmarshal([]byte(payload), &sub.Fields); err != nil {
			return nil, fmt.Errorf("%w: %s", errBadBody, config.ErrInvalidJSON)
		}
	}

	file, header, err := r.FormFile(config.PartImage)
	if errors.Is(err, http.ErrMissingFile) {
		return sub, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errBadBody, config.ErrInvalidMultipart)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errBadBody, config.ErrInvalidMultipart)
	}

	img, err := s.checkUpload(header.Filename, data)
	if err != nil {
		return nil, err
	}
	sub.Image = img
	return sub, nil
}

func (s *Server) checkUpload(filename string, data []byte) (*upload, error) {
	contentType := imagehost.DetectContentType(filename, data)
	if err := imagehost.Validate(filename, contentType, int64(len(data)), s.maxUpload); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadBody, err)
	}
	return &upload{Filename: filename, ContentType: contentType, Data: data}, nil
}

// storeImage puts an uploaded image and returns its public URL.
func (s *Server) storeImage(r *http.Request, img *upload) (string, error) {
	return s.images.Put(r.Context(), img.Filename, img.ContentType, bytes.NewReader(img.Data))
}

// discardImage deletes a stored image nothing references any more. Images held by
// another host are left alone.
func (s *Server) discardImage(r *http.Request, publicURL string) {
	if publicURL == "" {
		return
	}
	err := s.images.Delete(r.Context(), publicURL)
	if err != nil && !errors.Is(err, imagehost.ErrForeignURL) {
		apiLogger.Warn().Err(err).Str("url", publicURL).Msg("Failed to delete image")
	}
}

// badBodyMessage strips the sentinel prefix from a submission error.
func badBodyMessage(err error) string {
	return strings.TrimPrefix(err.Error(), errBadBody.Error()+": ")
}
