package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/JimJos-Calderon/app-web-mylist/internal/auth"
	"github.com/JimJos-Calderon/app-web-mylist/internal/store"
)

type UserHandler struct{ Store *store.Store }

func NewUserHandler(s *store.Store) *UserHandler { return &UserHandler{Store: s} }

// Me handles GET /v1/me: the token identity plus the app profile. A
// missing profile sets needs_username, which the client uses to walk
// first-time social logins through profile setup.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := auth.FromContext(r.Context())
	out := map[string]any{
		"id":             u.ID,
		"email":          u.Email,
		"profile":        nil,
		"needs_username": false,
	}
	p, err := h.Store.GetProfile(r.Context(), u.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		out["needs_username"] = true
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	default:
		out["profile"] = p
	}
	_ = json.NewEncoder(w).Encode(out)
}
