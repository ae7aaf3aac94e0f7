package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JimJos-Calderon/app-web-mylist/internal/models"
)

func strptr(s string) *string { return &s }

func TestBuildEmbed_Movie(t *testing.T) {
	item := &models.Item{
		Titulo:    "The Matrix",
		Tipo:      models.TipoPelicula,
		Genero:    strptr("Action, Sci-Fi"),
		PosterURL: strptr("https://img/matrix.jpg"),
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	e := BuildEmbed(item, "maria_v", "Nuestra Lista")

	if e.Title != "🎬 The Matrix" {
		t.Fatalf("title: %q", e.Title)
	}
	if e.Color != 0xec4899 {
		t.Fatalf("movie color: %#x", e.Color)
	}
	if e.Description != "**maria_v** ha añadido una nueva película a **Nuestra Lista**" {
		t.Fatalf("description: %q", e.Description)
	}
	if len(e.Fields) != 4 {
		t.Fatalf("fields: %+v", e.Fields)
	}
	if e.Fields[1].Name != "Género" || e.Fields[1].Value != "Action, Sci-Fi" {
		t.Fatalf("genre field: %+v", e.Fields[1])
	}
	if e.Thumbnail == nil || e.Thumbnail.URL != "https://img/matrix.jpg" {
		t.Fatalf("thumbnail: %+v", e.Thumbnail)
	}
	if e.Timestamp != "2026-03-01T12:00:00Z" {
		t.Fatalf("timestamp: %q", e.Timestamp)
	}
}

func TestBuildEmbed_SeriesWithFallbacks(t *testing.T) {
	item := &models.Item{Titulo: "Dark", Tipo: models.TipoSerie}
	e := BuildEmbed(item, "", "")

	if e.Title != "📺 Dark" {
		t.Fatalf("title: %q", e.Title)
	}
	if e.Color != 0xa855f7 {
		t.Fatalf("series color: %#x", e.Color)
	}
	if e.Description != "**Alguien** ha añadido una nueva serie a **una lista**" {
		t.Fatalf("description: %q", e.Description)
	}
	// no genre, no poster
	if len(e.Fields) != 3 {
		t.Fatalf("fields: %+v", e.Fields)
	}
	if e.Thumbnail != nil {
		t.Fatalf("thumbnail: %+v", e.Thumbnail)
	}
}

func TestWebhookPost(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type: %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL)
	e := BuildEmbed(&models.Item{Titulo: "Heat", Tipo: models.TipoPelicula}, "jim", "Pelis")
	if err := wh.Post(context.Background(), e); err != nil {
		t.Fatalf("post: %v", err)
	}
	if len(got.Embeds) != 1 || got.Embeds[0].Title != "🎬 Heat" {
		t.Fatalf("payload: %+v", got)
	}
}

func TestWebhookPost_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL)
	if err := wh.Post(context.Background(), Embed{}); err == nil {
		t.Fatal("expected error on 429")
	}
}
