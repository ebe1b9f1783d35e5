package web

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/sse"
)

// serveEvents streams preview and navigation events for one draft.
func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	draftID := r.URL.Query().Get("draft")
	if draftID == "" {
		http.Error(w, "Draft parameter required", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(draftID); err != nil {
		http.Error(w, config.ErrDraftNotFound, http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")
	w.WriteHeader(http.StatusOK)

	client := sse.NewClient(model.DraftID(draftID))
	s.clients.Add(client)

	l := zerolog.Ctx(r.Context()).With().Str("draft_id", draftID).Logger()
	l.Debug().Msg("SSE client connected")

	defer func() {
		s.clients.Delete(client)
		l.Debug().Msg("SSE client disconnected")
	}()

	sse.Event{Name: sse.EventConnected, Data: "SSE connection established"}.WriteTo(w)
	flusher.Flush()

	done := r.Context().Done()
	for {
		select {
		case ev, ok := <-client.Msg:
			if !ok {
				return
			}
			if _, err := ev.WriteTo(w); err != nil {
				return
			}
			flusher.Flush()
		case <-done:
			return
		}
	}
}
