package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/routes"
	"github.com/debemdeboas/folio/internal/sse"
)

// Notify fans a committed change out to event stream subscribers.
func (s *Server) Notify(event model.ChangeEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		apiLogger.Error().Err(err).Msg("Failed to encode change event")
		return
	}
	s.clients.Broadcast(event.Kind, string(data))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	var kind model.Kind
	if resource := r.URL.Query().Get("resource"); resource != "" {
		schema, ok := content.Lookup(model.Kind(resource))
		if !ok {
			routes.WriteError(w, http.StatusNotFound, config.ErrUnknownResource)
			return
		}
		if schema.PrivateRead {
			if _, err := s.auth.EnforceUserAndGetId(w, r); err != nil {
				return
			}
		}
		kind = schema.Kind
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		routes.WriteError(w, http.StatusInternalServerError, config.ErrStreamUnsupported)
		return
	}

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug().Err(err).Msg("Could not clear write deadline")
	}

	w.Header().Set(config.HCType, config.CTypeSSE)
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	client := sse.NewClient(kind)
	s.clients.Add(client)
	logger.Debug().Str("kind", string(kind)).Int("clients", s.clients.Len()).Msg("SSE client connected")

	// Subscribed before announcing, so nothing committed after this line is missed.
	fmt.Fprintf(w, "event: connected\ndata: SSE connection established\n\n")
	flusher.Flush()

	defer func() {
		s.clients.Delete(client)
		logger.Debug().Msg("SSE client disconnected")
	}()

	done := r.Context().Done()
	for {
		select {
		case msg, ok := <-client.Msg:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-done:
			return
		}
	}
}
