package admin

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/debemdeboas/folio/internal/imagehost"
	"github.com/debemdeboas/folio/internal/model"
)

// PendingImage is a locally selected file that has not been uploaded.
type PendingImage struct {
	Filename    string
	ContentType string
	Data        []byte
	PreviewURI  string
}

// Uploader sends a file to an image host and returns its permanent location.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (*imagehost.UploadResult, error)
}

// ImageStager binds one image field of a form. Selecting a file only reads it;
// the network is used by UploadNow alone.
type ImageStager struct {
	form     *Form
	field    string
	maxBytes int64

	mu        sync.Mutex
	pending   *PendingImage
	preview   string
	uploading bool
}

// NewImageStager binds the form's image URL field. A maxBytes of 0 disables the
// size check.
func NewImageStager(form *Form, maxBytes int64) *ImageStager {
	return &ImageStager{form: form, field: model.ImageURLField, maxBytes: maxBytes}
}

func (s *ImageStager) Field() string {
	return s.field
}

// SelectFile reads r and replaces any staged image. The preview is available as
// soon as this returns.
func (s *ImageStager) SelectFile(r io.Reader, filename string) (*PendingImage, error) {
	var reader io.Reader = r
	if s.maxBytes > 0 {
		reader = io.LimitReader(r, s.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}

	contentType := imagehost.DetectContentType(filename, data)
	if err := imagehost.Validate(filename, contentType, int64(len(data)), s.maxBytes); err != nil {
		return nil, err
	}

	img := &PendingImage{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		PreviewURI:  "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}

	s.mu.Lock()
	s.pending = img
	s.preview = img.PreviewURI
	s.mu.Unlock()

	adminLogger.Debug().Str("file", filename).Int("bytes", len(data)).Msg("Image staged")
	return img, nil
}

func (s *ImageStager) SelectPath(path string) (*PendingImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.SelectFile(f, filepath.Base(path))
}

// Pending returns the staged file, or nil once it has been uploaded or cleared.
func (s *ImageStager) Pending() *PendingImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *ImageStager) Preview() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

func (s *ImageStager) Uploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading
}

// UploadNow sends the staged file to the image host and stores the returned URL in
// the bound field. On failure the field and the preview are left as they were and
// the file stays staged for a retry.
func (s *ImageStager) UploadNow(ctx context.Context, uploader Uploader) (string, error) {
	s.mu.Lock()
	if s.uploading {
		s.mu.Unlock()
		return "", ErrUploadInFlight
	}
	img := s.pending
	if img == nil {
		s.mu.Unlock()
		return "", ErrNoPendingImage
	}
	s.uploading = true
	s.mu.Unlock()

	result, err := uploader.Upload(ctx, img.Filename, img.ContentType, img.Data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploading = false

	if err != nil {
		adminLogger.Warn().Err(err).Str("file", img.Filename).Msg("Image upload failed")
		return "", &UploadError{Filename: img.Filename, Err: err}
	}

	s.form.SetField(s.field, result.SecureURL)
	// The file now lives on the host; submitting must not send it again.
	if s.pending == img {
		s.pending = nil
	}
	return result.SecureURL, nil
}

// Clear drops the staged file and its preview and empties the bound field.
func (s *ImageStager) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.preview = ""
	s.form.SetField(s.field, "")
}
