// Package notify posts new-item announcements to a Discord webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JimJos-Calderon/app-web-mylist/internal/models"
)

const (
	colorMovie  = 0xec4899 // pink
	colorSeries = 0xa855f7 // purple
)

type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields"`
	Thumbnail   *Thumbnail   `json:"thumbnail,omitempty"`
	Footer      Footer       `json:"footer"`
	Timestamp   string       `json:"timestamp"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Thumbnail struct {
	URL string `json:"url"`
}

type Footer struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Embeds []Embed `json:"embeds"`
}

// BuildEmbed formats the announcement for one added item. Author and
// list name arrive pre-resolved; callers fall back to "Alguien" and
// "una lista" when lookups come up empty.
func BuildEmbed(item *models.Item, authorName, listName string) Embed {
	if authorName == "" {
		authorName = "Alguien"
	}
	if listName == "" {
		listName = "una lista"
	}

	emoji, typeLabel, color := "📺", "Serie", colorSeries
	if item.Tipo == models.TipoPelicula {
		emoji, typeLabel, color = "🎬", "Película", colorMovie
	}

	fields := []EmbedField{{Name: "Tipo", Value: typeLabel, Inline: true}}
	if item.Genero != nil && *item.Genero != "" {
		fields = append(fields, EmbedField{Name: "Género", Value: *item.Genero, Inline: true})
	}
	fields = append(fields,
		EmbedField{Name: "Añadido por", Value: "@" + authorName, Inline: true},
		EmbedField{Name: "Lista", Value: listName, Inline: true},
	)

	e := Embed{
		Title:       emoji + " " + item.Titulo,
		Description: fmt.Sprintf("**%s** ha añadido una nueva %s a **%s**", authorName, lower(typeLabel), listName),
		Color:       color,
		Fields:      fields,
		Footer:      Footer{Text: "MyList • Nuestra Lista ♥"},
		Timestamp:   item.CreatedAt.UTC().Format(time.RFC3339),
	}
	if item.PosterURL != nil && *item.PosterURL != "" {
		e.Thumbnail = &Thumbnail{URL: *item.PosterURL}
	}
	return e
}

func lower(s string) string {
	switch s {
	case "Película":
		return "película"
	case "Serie":
		return "serie"
	}
	return s
}

// Webhook is the posting side.
type Webhook struct {
	URL  string
	HTTP *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

func (w *Webhook) Post(ctx context.Context, embed Embed) error {
	b, err := json.Marshal(webhookPayload{Embeds: []Embed{embed}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := w.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("discord status %d", res.StatusCode)
	}
	return nil
}
