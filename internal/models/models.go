package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TipoPelicula = "pelicula"
	TipoSerie    = "serie"

	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// UserProfile is the app-side profile for a platform auth user. The auth
// user itself (id, email) lives in the identity provider; user_id is its
// subject claim.
type UserProfile struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    string  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Username  string  `gorm:"uniqueIndex;not null" json:"username"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
}

type List struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string  `gorm:"not null" json:"name"`
	Description *string `json:"description"`
	OwnerID     string  `gorm:"type:uuid;index" json:"owner_id"`
	IsPrivate   bool    `gorm:"default:false" json:"is_private"`
	InviteCode  string  `gorm:"uniqueIndex;not null" json:"invite_code"`
}

type ListMember struct {
	ID       string    `gorm:"type:uuid;primaryKey" json:"id"`
	ListID   string    `gorm:"type:uuid;uniqueIndex:idx_list_user" json:"list_id"`
	UserID   string    `gorm:"type:uuid;uniqueIndex:idx_list_user" json:"user_id"`
	Role     string    `gorm:"default:member" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// Item is one watchlist entry. Field names follow the original tables
// (titulo/tipo/visto/genero) so existing clients keep working.
type Item struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Titulo    string  `gorm:"not null" json:"titulo"`
	Tipo      string  `gorm:"index;not null" json:"tipo"`
	Visto     bool    `gorm:"default:false" json:"visto"`
	UserID    string  `gorm:"type:uuid;index" json:"user_id"`
	UserEmail string  `json:"user_email"`
	ListID    string  `gorm:"type:uuid;index" json:"list_id"`
	PosterURL *string `json:"poster_url"`
	Genero    *string `json:"genero"`
}

// ItemRating holds one user's take on one item. Stars and the
// like/dislike flag are independent; either can be null.
type ItemRating struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ItemID string `gorm:"type:uuid;uniqueIndex:idx_item_user" json:"item_id"`
	UserID string `gorm:"type:uuid;uniqueIndex:idx_item_user" json:"user_id"`
	Rating *int   `json:"rating"`
	Liked  *bool  `json:"liked"`
}

// IDs are assigned client-side so the models also work on databases
// without gen_random_uuid (the test database among them).
func (p *UserProfile) BeforeCreate(*gorm.DB) error { p.ID = ensureID(p.ID); return nil }
func (l *List) BeforeCreate(*gorm.DB) error        { l.ID = ensureID(l.ID); return nil }
func (m *ListMember) BeforeCreate(*gorm.DB) error  { m.ID = ensureID(m.ID); return nil }
func (i *Item) BeforeCreate(*gorm.DB) error        { i.ID = ensureID(i.ID); return nil }
func (r *ItemRating) BeforeCreate(*gorm.DB) error  { r.ID = ensureID(r.ID); return nil }

func ensureID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
