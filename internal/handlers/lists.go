package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/JimJos-Calderon/app-web-mylist/internal/auth"
	"github.com/JimJos-Calderon/app-web-mylist/internal/store"
	"github.com/JimJos-Calderon/app-web-mylist/internal/validate"
)

type ListsHandler struct {
	Store *store.Store
}

func NewListsHandler(s *store.Store) *ListsHandler { return &ListsHandler{Store: s} }

// Routes is mounted under /lists in main.
func (h *ListsHandler) Routes(r chi.Router) {
	r.Get("/", h.mine)
	r.Post("/", h.create)
	r.Get("/by-code/{code}", h.byCode)
	r.Post("/join", h.join)
	r.Get("/{id}/members", h.members)
}

// GET /v1/lists
func (h *ListsHandler) mine(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	lists, err := h.Store.ListsForUser(r.Context(), uid)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(lists)
}

// POST /v1/lists
func (h *ListsHandler) create(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	type bodyT struct {
		Name        string  `json:"name" validate:"required,min=1,max=100"`
		Description *string `json:"description" validate:"omitempty,max=500"`
		IsPrivate   bool    `json:"is_private"`
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
	list, err := h.Store.CreateList(r.Context(), uid, validate.Sanitize(b.Name), b.Description, b.IsPrivate)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(list)
}

// GET /v1/lists/by-code/{code} resolves an invite link; the caller may
// not be a member yet, so only name-level detail comes back.
func (h *ListsHandler) byCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	list, err := h.Store.GetListByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid invite code"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":   list.ID,
		"name": list.Name,
	})
}

// POST /v1/lists/join
func (h *ListsHandler) join(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	type bodyT struct {
		InviteCode string `json:"invite_code" validate:"required,len=8"`
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
	list, err := h.Store.JoinByCode(r.Context(), b.InviteCode, uid)
	switch {
	case errors.Is(err, store.ErrAlreadyMember):
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "already a member"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid invite code"})
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	default:
		_ = json.NewEncoder(w).Encode(list)
	}
}

// GET /v1/lists/{id}/members
func (h *ListsHandler) members(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	listID := chi.URLParam(r, "id")
	ok, err := h.Store.IsMember(r.Context(), listID, uid)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	members, err := h.Store.ListMembers(r.Context(), listID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(members)
}
