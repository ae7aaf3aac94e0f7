package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/JimJos-Calderon/app-web-mylist/internal/omdb"
	"github.com/JimJos-Calderon/app-web-mylist/internal/suggest"
	"github.com/JimJos-Calderon/app-web-mylist/internal/validate"
)

type SuggestHandler struct {
	Svc  *suggest.Service
	OMDB *omdb.Client
}

func NewSuggestHandler(svc *suggest.Service, client *omdb.Client) *SuggestHandler {
	return &SuggestHandler{Svc: svc, OMDB: client}
}

// GET /v1/suggest?q=&tipo=
func (h *SuggestHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	type qT struct {
		Q    string
		Tipo string `validate:"required,oneof=pelicula serie"`
	}
	q := qT{Q: r.URL.Query().Get("q"), Tipo: r.URL.Query().Get("tipo")}
	if errs := validate.Map(q); errs != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errs)
		return
	}
	suggestions, err := h.Svc.Suggest(r.Context(), q.Q, q.Tipo)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(suggestions)
}

// GET /v1/posters?titulo= resolves one title to a poster URL; a miss is
// a null poster, not an error.
func (h *SuggestHandler) Poster(w http.ResponseWriter, r *http.Request) {
	titulo := r.URL.Query().Get("titulo")
	if err := validate.Title(titulo); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"titulo": err.Error()})
		return
	}
	detail, err := h.OMDB.ByTitle(r.Context(), titulo)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	out := map[string]any{"poster_url": nil, "genero": nil, "plot": nil}
	if detail != nil {
		if detail.Poster != "" {
			out["poster_url"] = detail.Poster
		}
		if detail.Genre != "" {
			out["genero"] = detail.Genre
		}
		if detail.Plot != "" {
			out["plot"] = detail.Plot
		}
	}
	_ = json.NewEncoder(w).Encode(out)
}
