package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JimJos-Calderon/app-web-mylist/internal/auth"
	"github.com/JimJos-Calderon/app-web-mylist/internal/models"
	"github.com/JimJos-Calderon/app-web-mylist/internal/store"
	"github.com/JimJos-Calderon/app-web-mylist/internal/validate"
)

type RatingsHandler struct {
	Store *store.Store
}

func NewRatingsHandler(s *store.Store) *RatingsHandler { return &RatingsHandler{Store: s} }

// Routes rides on the /items mount: /items/{id}/rating.
func (h *RatingsHandler) Routes(r chi.Router) {
	r.Get("/{id}/rating", h.get)
	r.Put("/{id}/rating", h.put)
}

// GET /v1/items/{id}/rating returns the caller's row, or null.
func (h *RatingsHandler) get(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	itemID := chi.URLParam(r, "id")
	if _, ok := fetchForMember(w, r, h.Store, itemID, uid); !ok {
		return
	}
	rating, err := h.Store.GetRating(r.Context(), itemID, uid)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(rating)
}

// PUT /v1/items/{id}/rating sets stars, the like flag, or both. Each is
// independent: a body without "rating" leaves stars alone, and vice
// versa. Re-sending the current like value clears it (tri-state).
func (h *RatingsHandler) put(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	itemID := chi.URLParam(r, "id")
	type bodyT struct {
		Rating *int  `json:"rating" validate:"omitempty,gte=1,lte=5"`
		Liked  *bool `json:"liked"`
		// distinguishes {"liked": null} from an absent field
		SetLiked bool `json:"set_liked"`
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
	if b.Rating == nil && b.Liked == nil && !b.SetLiked {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "nothing to set"})
		return
	}

	// the item must exist and the caller must belong to its list
	if _, ok := fetchForMember(w, r, h.Store, itemID, uid); !ok {
		return
	}

	rating, err := h.applyWrites(r, itemID, uid, b.Rating, b.Liked, b.SetLiked)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(rating)
}

func (h *RatingsHandler) applyWrites(r *http.Request, itemID, uid string, stars *int, liked *bool, setLiked bool) (*models.ItemRating, error) {
	ctx := r.Context()
	if stars != nil {
		rating, err := h.Store.SetStars(ctx, itemID, uid, *stars)
		if err != nil {
			return nil, err
		}
		if liked == nil && !setLiked {
			return rating, nil
		}
	}
	return h.Store.SetLiked(ctx, itemID, uid, liked)
}
