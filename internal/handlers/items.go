package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/JimJos-Calderon/app-web-mylist/internal/auth"
	"github.com/JimJos-Calderon/app-web-mylist/internal/logger"
	"github.com/JimJos-Calderon/app-web-mylist/internal/models"
	"github.com/JimJos-Calderon/app-web-mylist/internal/realtime"
	"github.com/JimJos-Calderon/app-web-mylist/internal/store"
	"github.com/JimJos-Calderon/app-web-mylist/internal/validate"
)

type ItemsHandler struct {
	Store *store.Store
	Bus   realtime.Publisher
}

func NewItemsHandler(s *store.Store, bus realtime.Publisher) *ItemsHandler {
	return &ItemsHandler{Store: s, Bus: bus}
}

// Routes is mounted under /items in main.
func (h *ItemsHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/toggle", h.toggle)
	r.Delete("/{id}", h.delete)
}

// GET /v1/items?tipo=&list=
func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	type qT struct {
		Tipo string `validate:"required,oneof=pelicula serie"`
		List string `validate:"required,uuid"`
	}
	q := qT{Tipo: r.URL.Query().Get("tipo"), List: r.URL.Query().Get("list")}
	if errs := validate.Map(q); errs != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errs)
		return
	}
	if !requireMember(w, r, h.Store, q.List, uid) {
		return
	}
	items, err := h.Store.ListItems(r.Context(), q.Tipo, q.List)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(items)
}

// POST /v1/items
func (h *ItemsHandler) create(w http.ResponseWriter, r *http.Request) {
	u := auth.FromContext(r.Context())
	type bodyT struct {
		Titulo    string  `json:"titulo" validate:"required,max=200"`
		Tipo      string  `json:"tipo" validate:"required,oneof=pelicula serie"`
		ListID    string  `json:"list_id" validate:"required,uuid"`
		PosterURL *string `json:"poster_url"`
		Genero    *string `json:"genero" validate:"omitempty,max=100"`
	}
	var b bodyT
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if errs := validate.Map(b); errs != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errs)
		return
	}
	titulo := validate.Sanitize(b.Titulo)
	if err := validate.Title(titulo); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"titulo": err.Error()})
		return
	}
	if !requireMember(w, r, h.Store, b.ListID, u.ID) {
		return
	}

	item := &models.Item{
		Titulo:    titulo,
		Tipo:      b.Tipo,
		Visto:     false,
		UserID:    u.ID,
		UserEmail: u.Email,
		ListID:    b.ListID,
		PosterURL: normalizePoster(b.PosterURL),
		Genero:    b.Genero,
	}
	if err := h.Store.CreateItem(r.Context(), item); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	h.publish(r, realtime.EventInsert, item)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(item)
}

// PATCH /v1/items/{id}
func (h *ItemsHandler) update(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")
	type bodyT struct {
		Titulo    *string `json:"titulo" validate:"omitempty,max=200"`
		Visto     *bool   `json:"visto"`
		PosterURL *string `json:"poster_url"`
		Genero    *string `json:"genero" validate:"omitempty,max=100"`
	}
	var b bodyT
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if errs := validate.Map(b); errs != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errs)
		return
	}

	existing, ok := fetchForMember(w, r, h.Store, id, uid)
	if !ok {
		return
	}

	updates := map[string]any{}
	if b.Titulo != nil {
		titulo := validate.Sanitize(*b.Titulo)
		if err := validate.Title(titulo); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"titulo": err.Error()})
			return
		}
		updates["titulo"] = titulo
	}
	if b.Visto != nil {
		updates["visto"] = *b.Visto
	}
	if b.PosterURL != nil {
		updates["poster_url"] = normalizePoster(b.PosterURL)
	}
	if b.Genero != nil {
		updates["genero"] = *b.Genero
	}
	if len(updates) == 0 {
		_ = json.NewEncoder(w).Encode(existing)
		return
	}

	item, err := h.Store.UpdateItem(r.Context(), id, updates)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	h.publish(r, realtime.EventUpdate, item)
	_ = json.NewEncoder(w).Encode(item)
}

// POST /v1/items/{id}/toggle
func (h *ItemsHandler) toggle(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")
	if _, ok := fetchForMember(w, r, h.Store, id, uid); !ok {
		return
	}
	item, err := h.Store.ToggleVisto(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	h.publish(r, realtime.EventUpdate, item)
	_ = json.NewEncoder(w).Encode(item)
}

// DELETE /v1/items/{id}
func (h *ItemsHandler) delete(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")
	if _, ok := fetchForMember(w, r, h.Store, id, uid); !ok {
		return
	}
	item, err := h.Store.DeleteItem(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	h.publish(r, realtime.EventDelete, item)
	w.WriteHeader(http.StatusNoContent)
}

// requireMember writes the error response and returns false when the
// user is not a member of the list.
func requireMember(w http.ResponseWriter, r *http.Request, s *store.Store, listID, uid string) bool {
	ok, err := s.IsMember(r.Context(), listID, uid)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return false
	}
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not a list member"})
		return false
	}
	return true
}

// fetchForMember loads the item and checks the caller belongs to its
// list. Every read or mutation of an existing item goes through here.
func fetchForMember(w http.ResponseWriter, r *http.Request, s *store.Store, itemID, uid string) (*models.Item, bool) {
	item, err := s.GetItem(r.Context(), itemID)
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	if !requireMember(w, r, s, item.ListID, uid) {
		return nil, false
	}
	return item, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// publish never fails the request; subscribers refetch on the next
// event either way.
func (h *ItemsHandler) publish(r *http.Request, typ string, item *models.Item) {
	ev := realtime.Event{Type: typ, Table: "items", Record: item}
	if err := h.Bus.Publish(r.Context(), ev); err != nil {
		logger.Get().WithError(err).Warn("items: publish change event")
	}
}

func normalizePoster(p *string) *string {
	if p == nil || *p == "" || *p == "N/A" {
		return nil
	}
	return p
}
