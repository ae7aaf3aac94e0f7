package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/JimJos-Calderon/app-web-mylist/internal/auth"
	"github.com/JimJos-Calderon/app-web-mylist/internal/storage"
	"github.com/JimJos-Calderon/app-web-mylist/internal/store"
	"github.com/JimJos-Calderon/app-web-mylist/internal/validate"
)

type ProfileHandler struct {
	Store   *store.Store
	Avatars *storage.AvatarStore
}

func NewProfileHandler(s *store.Store, av *storage.AvatarStore) *ProfileHandler {
	return &ProfileHandler{Store: s, Avatars: av}
}

// GET /v1/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	p, err := h.Store.GetProfile(r.Context(), uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

// PUT /v1/profile creates or updates the caller's profile. The
// username rule runs before any write.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	type bodyT struct {
		Username string  `json:"username" validate:"required,username"`
		Bio      *string `json:"bio" validate:"omitempty,max=500"`
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
	if b.Bio != nil {
		clean := validate.Sanitize(*b.Bio)
		b.Bio = &clean
	}
	p, err := h.Store.SaveProfile(r.Context(), uid, b.Username, b.Bio)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"username": "already taken"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

// PostAvatar handles POST /v1/profile/avatar: multipart form with a
// "file" part, capped at 2 MB, images only.
func (h *ProfileHandler) PostAvatar(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if err := r.ParseMultipartForm(storage.MaxAvatarSize + 4096); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "file part missing"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := storage.ValidateAvatar(header.Size, contentType); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxAvatarSize+1))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := storage.ValidateAvatar(int64(len(data)), contentType); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	url, err := h.Avatars.Upload(r.Context(), uid, data, contentType)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	p, err := h.Store.SetAvatar(r.Context(), uid, url)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

// GetByUsername handles GET /v1/profiles/{username}, the public lookup
// used to show who added an item.
func (h *ProfileHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !validate.Username(username) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"username": "must be 3-20 letters, digits or underscores"})
		return
	}
	p, err := h.Store.GetProfileByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"username":   p.Username,
		"avatar_url": p.AvatarURL,
		"bio":        p.Bio,
	})
}
