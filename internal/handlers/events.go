package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JimJos-Calderon/app-web-mylist/internal/realtime"
)

// Subscriber is the consuming side of the change bus.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan realtime.Event, func())
}

type EventsHandler struct {
	Bus Subscriber
}

func NewEventsHandler(bus Subscriber) *EventsHandler { return &EventsHandler{Bus: bus} }

// Stream handles GET /v1/events?tipo=&list=: an SSE stream of item
// changes matching the filter. Clients refetch their item list on each
// event, the same contract the platform channel gave the old client.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	tipo := r.URL.Query().Get("tipo")
	listID := r.URL.Query().Get("list")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.Bus.Subscribe(r.Context())
	defer cancel()

	// comment heartbeats keep intermediaries from closing the stream
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			if !ev.Matches(tipo, listID) {
				continue
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
