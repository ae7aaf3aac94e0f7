package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JimJos-Calderon/app-web-mylist/internal/models"
)

func openTestStore(t *testing.T, name string) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	s := New(db)
	if err := s.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return s
}

func TestCreateList_OwnerMembership(t *testing.T) {
	s := openTestStore(t, "lists")
	ctx := context.Background()

	list, err := s.CreateList(ctx, "user-a", "Nuestra Lista", nil, false)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if len(list.InviteCode) != 8 {
		t.Fatalf("invite code %q, want 8 chars", list.InviteCode)
	}

	members, err := s.ListMembers(ctx, list.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected exactly one membership row, got %d", len(members))
	}
	if members[0].UserID != "user-a" || members[0].Role != models.RoleOwner {
		t.Fatalf("owner membership: %+v", members[0])
	}

	mine, err := s.ListsForUser(ctx, "user-a")
	if err != nil || len(mine) != 1 || mine[0].ID != list.ID {
		t.Fatalf("lists for owner: %v %v", mine, err)
	}
}

func TestJoinByCode(t *testing.T) {
	s := openTestStore(t, "join")
	ctx := context.Background()

	list, err := s.CreateList(ctx, "user-a", "Pelis", nil, false)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	// codes resolve case-insensitively (invite links get pasted around)
	joined, err := s.JoinByCode(ctx, strings.ToLower(list.InviteCode), "user-b")
	if err != nil || joined.ID != list.ID {
		t.Fatalf("join: %v %v", joined, err)
	}

	// a second join is rejected without inserting a duplicate row
	_, err = s.JoinByCode(ctx, list.InviteCode, "user-b")
	if !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
	members, _ := s.ListMembers(ctx, list.ID)
	if len(members) != 2 {
		t.Fatalf("expected 2 membership rows, got %d", len(members))
	}

	// the owner re-joining their own list is also already-a-member
	_, err = s.JoinByCode(ctx, list.InviteCode, "user-a")
	if !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("owner join: %v", err)
	}

	if _, err := s.JoinByCode(ctx, "NOTACODE", "user-c"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("unknown code: %v", err)
	}
}

func TestItems_ToggleVistoIdempotence(t *testing.T) {
	s := openTestStore(t, "items")
	ctx := context.Background()

	list, _ := s.CreateList(ctx, "user-a", "Pelis", nil, false)
	it := &models.Item{Titulo: "The Matrix", Tipo: models.TipoPelicula, UserID: "user-a", ListID: list.ID}
	if err := s.CreateItem(ctx, it); err != nil {
		t.Fatalf("create item: %v", err)
	}
	if it.Visto {
		t.Fatal("new items start unwatched")
	}

	once, err := s.ToggleVisto(ctx, it.ID)
	if err != nil || !once.Visto {
		t.Fatalf("first toggle: %+v %v", once, err)
	}
	twice, err := s.ToggleVisto(ctx, it.ID)
	if err != nil || twice.Visto {
		t.Fatalf("double toggle should restore initial state: %+v %v", twice, err)
	}
}

func TestItems_ListFiltersByTipoAndList(t *testing.T) {
	s := openTestStore(t, "itemfilter")
	ctx := context.Background()

	la, _ := s.CreateList(ctx, "user-a", "A", nil, false)
	lb, _ := s.CreateList(ctx, "user-a", "B", nil, false)
	for _, it := range []*models.Item{
		{Titulo: "Matrix", Tipo: models.TipoPelicula, UserID: "user-a", ListID: la.ID},
		{Titulo: "Dark", Tipo: models.TipoSerie, UserID: "user-a", ListID: la.ID},
		{Titulo: "Heat", Tipo: models.TipoPelicula, UserID: "user-a", ListID: lb.ID},
	} {
		if err := s.CreateItem(ctx, it); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	pelis, err := s.ListItems(ctx, models.TipoPelicula, la.ID)
	if err != nil || len(pelis) != 1 || pelis[0].Titulo != "Matrix" {
		t.Fatalf("filtered fetch: %v %v", pelis, err)
	}

	gone, err := s.DeleteItem(ctx, pelis[0].ID)
	if err != nil || gone.Titulo != "Matrix" {
		t.Fatalf("delete: %+v %v", gone, err)
	}
	left, _ := s.ListItems(ctx, models.TipoPelicula, la.ID)
	if len(left) != 0 {
		t.Fatalf("expected empty after delete, got %d", len(left))
	}
}

func TestRatings_UpsertAndTriState(t *testing.T) {
	s := openTestStore(t, "ratings")
	ctx := context.Background()

	list, _ := s.CreateList(ctx, "user-a", "Pelis", nil, false)
	it := &models.Item{Titulo: "Heat", Tipo: models.TipoPelicula, UserID: "user-a", ListID: list.ID}
	_ = s.CreateItem(ctx, it)

	// no row yet
	r, err := s.GetRating(ctx, it.ID, "user-a")
	if err != nil || r != nil {
		t.Fatalf("expected no rating, got %+v %v", r, err)
	}

	// first star click inserts with liked null
	r, err = s.SetStars(ctx, it.ID, "user-a", 4)
	if err != nil {
		t.Fatalf("set stars: %v", err)
	}
	if r.Rating == nil || *r.Rating != 4 || r.Liked != nil {
		t.Fatalf("after 4 stars: %+v", r)
	}

	// like is independent of stars
	yes := true
	r, err = s.SetLiked(ctx, it.ID, "user-a", &yes)
	if err != nil || r.Liked == nil || !*r.Liked {
		t.Fatalf("set liked: %+v %v", r, err)
	}
	if r.Rating == nil || *r.Rating != 4 {
		t.Fatalf("stars lost on like: %+v", r)
	}

	// clicking the selected value clears it
	r, err = s.SetLiked(ctx, it.ID, "user-a", &yes)
	if err != nil || r.Liked != nil {
		t.Fatalf("re-click should clear: %+v %v", r, err)
	}

	// dislike, then explicit clear
	no := false
	r, _ = s.SetLiked(ctx, it.ID, "user-a", &no)
	if r.Liked == nil || *r.Liked {
		t.Fatalf("dislike: %+v", r)
	}
	r, _ = s.SetLiked(ctx, it.ID, "user-a", nil)
	if r.Liked != nil {
		t.Fatalf("explicit clear: %+v", r)
	}

	// restating stars keeps a single row per (item, user)
	_, _ = s.SetStars(ctx, it.ID, "user-a", 5)
	var count int64
	s.DB.Model(&models.ItemRating{}).Where("item_id = ?", it.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one rating row, got %d", count)
	}
}

func TestProfiles_SaveAndAvatarOnDemand(t *testing.T) {
	s := openTestStore(t, "profiles")
	ctx := context.Background()

	// avatar set before any profile save creates the row
	p, err := s.SetAvatar(ctx, "11112222-3333-4444-5555-666677778888", "https://cdn/a.png")
	if err != nil {
		t.Fatalf("set avatar: %v", err)
	}
	if p.AvatarURL == nil || *p.AvatarURL != "https://cdn/a.png" {
		t.Fatalf("avatar: %+v", p)
	}
	if p.Username != "user_11112222" {
		t.Fatalf("placeholder username: %q", p.Username)
	}

	bio := "cinéfila"
	p, err = s.SaveProfile(ctx, p.UserID, "maria_v", &bio)
	if err != nil || p.Username != "maria_v" || p.Bio == nil {
		t.Fatalf("save profile: %+v %v", p, err)
	}
	if p.AvatarURL == nil {
		t.Fatal("avatar lost on profile save")
	}

	got, err := s.GetProfileByUsername(ctx, "maria_v")
	if err != nil || got.UserID != p.UserID {
		t.Fatalf("lookup by username: %+v %v", got, err)
	}
}
