// Package imagehost stores uploaded images and talks to Cloudinary-compatible hosts.
package imagehost

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var hostLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	hostLogger = l
}

const MaxFilenameLength = 255

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrInvalidFileType = errors.New("invalid file type - only jpeg, png, gif, webp, avif and svg images allowed")
	ErrFilenameTooLong = errors.New("filename too long - maximum 255 characters")
	ErrEmptyFile       = errors.New("file is empty")
)

var AllowedMimeTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/avif":    true,
	"image/svg+xml": true,
}

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/avif":    ".avif",
	"image/svg+xml": ".svg",
}

// Validate checks an upload before it is stored or sent anywhere. A maxBytes of 0
// disables the size check.
func Validate(filename, contentType string, size, maxBytes int64) error {
	if size == 0 {
		return ErrEmptyFile
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w - maximum %d MB allowed", ErrFileTooLarge, maxBytes>>20)
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if !AllowedMimeTypes[contentType] {
		return ErrInvalidFileType
	}
	return nil
}

// DetectContentType sniffs data and falls back to the filename extension when the
// sniffer cannot tell (SVG, AVIF).
func DetectContentType(filename string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	if AllowedMimeTypes[sniffed] {
		return sniffed
	}

	byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if i := strings.IndexByte(byExt, ';'); i >= 0 {
		byExt = byExt[:i]
	}
	if AllowedMimeTypes[byExt] {
		return byExt
	}
	if byExt != "" {
		return byExt
	}
	return sniffed
}

// Extension returns the canonical file extension for an allowed content type.
func Extension(contentType, filename string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	return strings.ToLower(filepath.Ext(filename))
}

// Dimensions decodes just the header of raster images. Formats without a registered
// decoder report 0x0.
func Dimensions(data []byte) (width, height int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
