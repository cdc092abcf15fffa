// Package admin implements the editing workflow shared by every content screen:
// draft forms, image staging, guarded mutations, list reconciliation and delete
// confirmation.
package admin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/content"
)

var adminLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	adminLogger = l
}

var (
	ErrBusy           = errors.New("a submission is already in progress")
	ErrGateClosed     = errors.New("delete was not requested")
	ErrUploadInFlight = errors.New("an image upload is still in progress")
	ErrNoPendingImage = errors.New("no image selected")
)

// ValidationError carries the failing constraints of a draft.
type ValidationError struct {
	Violations []content.Violation
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		messages = append(messages, v.Message)
	}
	return strings.Join(messages, "; ")
}

// UploadError is a failed eager upload. The staged image is kept for a retry.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %s failed: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// MutationError is a failed create, update or delete. Status is 0 when no response
// was received.
type MutationError struct {
	Status  int
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	return e.Message
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// LoadError is a failed collection fetch. It stays on the list view until a retry
// succeeds.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "failed to load: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
