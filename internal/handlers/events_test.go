package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JimJos-Calderon/app-web-mylist/internal/models"
	"github.com/JimJos-Calderon/app-web-mylist/internal/realtime"
)

func TestEventsStream_FiltersAndRelays(t *testing.T) {
	feed := make(chan realtime.Event, 2)
	bus := &recordingBus{feed: feed}
	h := NewEventsHandler(bus)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/events?tipo=pelicula&list=l1", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	// one matching event, one filtered out
	feed <- realtime.Event{
		Type:   realtime.EventUpdate,
		Table:  "items",
		Record: &models.Item{Titulo: "Heat", Tipo: models.TipoSerie, ListID: "l1"},
	}
	feed <- realtime.Event{
		Type:   realtime.EventUpdate,
		Table:  "items",
		Record: &models.Item{Titulo: "Matrix", Tipo: models.TipoPelicula, ListID: "l1"},
	}

	done := make(chan struct{})
	go func() {
		h.Stream(w, req)
		close(done)
	}()

	// wait for the handler to drain the feed, then hang up; the body is
	// only inspected once the handler goroutine has exited
	deadline := time.After(2 * time.Second)
	for len(feed) > 0 {
		select {
		case <-deadline:
			t.Fatal("handler never drained the feed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not stop on client disconnect")
	}

	body := w.Body.String()
	if !strings.Contains(body, "Matrix") {
		t.Fatalf("stream never carried the matching event: %q", body)
	}
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("content type: %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(body, "event: change") {
		t.Fatalf("missing event framing: %q", body)
	}
	if strings.Contains(body, "Heat") {
		t.Fatalf("series event leaked through the pelicula filter: %q", body)
	}
}
