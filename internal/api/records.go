package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/repository"
	"github.com/debemdeboas/folio/internal/routes"
)

// ValidationErrorBody is the 422 answer to a draft that fails its schema.
type ValidationErrorBody struct {
	Error      string              `json:"error"`
	Violations []content.Violation `json:"violations"`
}

func writeViolations(w http.ResponseWriter, violations []content.Violation) {
	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, v.Message)
	}
	routes.WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorBody{
		Error:      strings.Join(messages, "; "),
		Violations: violations,
	})
}

func listOptions(schema *content.Schema, r *http.Request) (repository.ListOptions, error) {
	q := r.URL.Query()
	var opts repository.ListOptions

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return opts, errors.New("limit must be a non-negative integer")
		}
		opts.Limit = n
	}
	// Kinds without a published field ignore the parameter.
	if _, ok := schema.Field("published"); !ok {
		q.Del("published")
	}
	if published := q.Get("published"); published != "" {
		b, err := strconv.ParseBool(published)
		if err != nil {
			return opts, errors.New("published must be true or false")
		}
		opts.Published = &b
	}
	for _, name := range schema.Filters {
		if v := q.Get(name); v != "" {
			if opts.Where == nil {
				opts.Where = map[string]string{}
			}
			opts.Where[name] = v
		}
	}
	return opts, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	schema, ok := schemaFor(w, r)
	if !ok {
		return
	}
	if schema.PrivateRead {
		if _, err := s.auth.EnforceUserAndGetId(w, r); err != nil {
			return
		}
	}

	opts, err := listOptions(schema, r)
	if err != nil {
		routes.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.repo.List(r.Context(), schema.Kind, opts)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("kind", string(schema.Kind)).Msg("Failed to list records")
		routes.WriteError(w, http.StatusInternalServerError, config.ErrListRecords)
		return
	}

	routes.WriteJSON(w, http.StatusOK, map[string][]model.ContentRecord{string(schema.Kind): records})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	schema, ok := schemaFor(w, r)
	if !ok {
		return
	}
	if schema.PrivateRead {
		if _, err := s.auth.EnforceUserAndGetId(w, r); err != nil {
			return
		}
	}

	record, err := s.repo.Get(r.Context(), schema.Kind, model.RecordID(r.PathValue("id")))
	if errors.Is(err, repository.ErrNotFound) {
		routes.WriteError(w, http.StatusNotFound, config.ErrRecordNotFound)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to read record")
		routes.WriteError(w, http.StatusInternalServerError, config.ErrInternalServerError)
		return
	}

	routes.WriteJSON(w, http.StatusOK, record)
}

// liftImageURL moves the draft's image URL out of the field map. The second result
// reports whether the draft named one at all.
func liftImageURL(fields model.Fields) (string, bool) {
	v, ok := fields[model.ImageURLField]
	if !ok {
		return "", false
	}
	delete(fields, model.ImageURLField)
	url, _ := v.(string)
	return url, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	schema, ok := schemaFor(w, r)
	if !ok {
		return
	}

	var owner model.UserID
	if schema.PublicCreate {
		owner, _ = s.auth.GetUserIdFromSession(r)
	} else {
		userID, err := s.auth.EnforceUserAndGetId(w, r)
		if err != nil {
			return
		}
		owner = userID
	}

	sub, err := s.readSubmission(w, r)
	if err != nil {
		routes.WriteError(w, http.StatusBadRequest, badBodyMessage(err))
		return
	}

	imageURL, _ := liftImageURL(sub.Fields)
	fields := schema.Normalize(schema.Defaults().Merge(sub.Fields))
	if violations := schema.Validate(fields); len(violations) > 0 {
		writeViolations(w, violations)
		return
	}

	if sub.Image != nil {
		if !schema.HasImage {
			routes.WriteError(w, http.StatusBadRequest, string(schema.Kind)+" do not take an image")
			return
		}
		imageURL, err = s.storeImage(r, sub.Image)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to store image")
			routes.WriteError(w, http.StatusInternalServerError, config.ErrStoreImage)
			return
		}
	}

	record := &model.ContentRecord{
		Kind:     schema.Kind,
		Fields:   fields,
		ImageURL: imageURL,
		Owner:    owner,
	}
	if err := s.repo.Create(r.Context(), record); err != nil {
		logger.Error().Err(err).Str("kind", string(schema.Kind)).Msg("Failed to create record")
		if sub.Image != nil {
			s.discardImage(r, imageURL)
		}
		routes.WriteError(w, http.StatusInternalServerError, config.ErrSaveRecord)
		return
	}

	logger.Info().Str("kind", string(record.Kind)).Str("id", string(record.ID)).Msg("Record created")
	w.Header().Set(config.HLocation, schema.Endpoint()+"/"+url.PathEscape(string(record.ID)))
	routes.WriteJSON(w, http.StatusCreated, record)
}

// handleUpdate merges the submitted fields into the record on PATCH and replaces them
// on PUT. The image changes only when the submission names one.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	schema, ok := schemaFor(w, r)
	if !ok {
		return
	}
	if _, err := s.auth.EnforceUserAndGetId(w, r); err != nil {
		return
	}

	existing, err := s.repo.Get(r.Context(), schema.Kind, model.RecordID(r.PathValue("id")))
	if errors.Is(err, repository.ErrNotFound) {
		routes.WriteError(w, http.StatusNotFound, config.ErrRecordNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read record")
		routes.WriteError(w, http.StatusInternalServerError, config.ErrInternalServerError)
		return
	}

	sub, err := s.readSubmission(w, r)
	if err != nil {
		routes.WriteError(w, http.StatusBadRequest, badBodyMessage(err))
		return
	}

	imageURL, named := liftImageURL(sub.Fields)
	if !named {
		imageURL = existing.ImageURL
	}

	fields := sub.Fields
	if r.Method == http.MethodPatch {
		fields = existing.Fields.Merge(sub.Fields)
	}
	fields = schema.Normalize(fields)
	if violations := schema.Validate(fields); len(violations) > 0 {
		writeViolations(w, violations)
		return
	}

	if sub.Image != nil {
		if !schema.HasImage {
			routes.WriteError(w, http.StatusBadRequest, string(schema.Kind)+" do not take an image")
			return
		}
		imageURL, err = s.storeImage(r, sub.Image)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to store image")
			routes.WriteError(w, http.StatusInternalServerError, config.ErrStoreImage)
			return
		}
	}

	record := existing.Clone()
	record.Fields = fields
	record.ImageURL = imageURL
	if err := s.repo.Update(r.Context(), record); err != nil {
		if sub.Image != nil {
			s.discardImage(r, imageURL)
		}
		if errors.Is(err, repository.ErrNotFound) {
			routes.WriteError(w, http.StatusNotFound, config.ErrRecordNotFound)
			return
		}
		logger.Error().Err(err).Str("kind", string(schema.Kind)).Msg("Failed to update record")
		routes.WriteError(w, http.StatusInternalServerError, config.ErrSaveRecord)
		return
	}

	if existing.ImageURL != "" && existing.ImageURL != record.ImageURL {
		s.discardImage(r, existing.ImageURL)
	}

	logger.Info().Str("kind", string(record.Kind)).Str("id", string(record.ID)).Msg("Record updated")
	routes.WriteJSON(w, http.StatusOK, record)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	schema, ok := schemaFor(w, r)
	if !ok {
		return
	}
	if _, err := s.auth.EnforceUserAndGetId(w, r); err != nil {
		return
	}

	id := model.RecordID(r.PathValue("id"))
	existing, err := s.repo.Get(r.Context(), schema.Kind, id)
	if errors.Is(err, repository.ErrNotFound) {
		routes.WriteError(w, http.StatusNotFound, config.ErrRecordNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read record")
		routes.WriteError(w, http.StatusInternalServerError, config.ErrInternalServerError)
		return
	}

	if err := s.repo.Delete(r.Context(), schema.Kind, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			routes.WriteError(w, http.StatusNotFound, config.ErrRecordNotFound)
			return
		}
		logger.Error().Err(err).Msg("Failed to delete record")
		routes.WriteError(w, http.StatusInternalServerError, config.ErrDeleteRecord)
		return
	}
	s.discardImage(r, existing.ImageURL)

	logger.Info().Str("kind", string(schema.Kind)).Str("id", string(id)).Msg("Record deleted")
	w.WriteHeader(http.StatusNoContent)
}
