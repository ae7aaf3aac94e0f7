package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/JimJos-Calderon/app-web-mylist/internal/models"
)

var (
	// ErrAlreadyMember marks a join attempt on a list the user is in.
	ErrAlreadyMember = errors.New("already a member")
)

type Store struct{ DB *gorm.DB }

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.UserProfile{},
		&models.List{},
		&models.ListMember{},
		&models.Item{},
		&models.ItemRating{},
	)
}

// Profiles

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.DB.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProfileByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.DB.WithContext(ctx).First(&p, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile creates the profile row on first save, updates it after.
func (s *Store) SaveProfile(ctx context.Context, userID, username string, bio *string) (*models.UserProfile, error) {
	p, err := s.GetProfile(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = &models.UserProfile{UserID: userID, Username: username, Bio: bio}
		if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
			return nil, err
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	p.Username = username
	if bio != nil {
		p.Bio = bio
	}
	if err := s.DB.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// SetAvatar writes the avatar URL, creating the profile on demand when
// an avatar is set before any profile save. The placeholder username is
// derived from the user id; the settings flow replaces it.
func (s *Store) SetAvatar(ctx context.Context, userID, avatarURL string) (*models.UserProfile, error) {
	p, err := s.GetProfile(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = &models.UserProfile{
			UserID:    userID,
			Username:  placeholderUsername(userID),
			AvatarURL: &avatarURL,
		}
		if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
			return nil, err
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	p.AvatarURL = &avatarURL
	if err := s.DB.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func placeholderUsername(userID string) string {
	id := strings.ReplaceAll(userID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return "user_" + id
}

// Lists

const inviteCodeLen = 8

// CreateList inserts the list and the creator's owner membership in one
// transaction, so a failure cannot leave an orphaned list behind. The
// invite code is regenerated on the rare collision.
func (s *Store) CreateList(ctx context.Context, ownerID, name string, description *string, isPrivate bool) (*models.List, error) {
	list := &models.List{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		IsPrivate:   isPrivate,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for attempt := 0; ; attempt++ {
			list.InviteCode = newInviteCode()
			var count int64
			if err := tx.Model(&models.List{}).Where("invite_code = ?", list.InviteCode).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				break
			}
			if attempt >= 4 {
				return errors.New("could not allocate invite code")
			}
		}
		if err := tx.Create(list).Error; err != nil {
			return err
		}
		member := &models.ListMember{ListID: list.ID, UserID: ownerID, Role: models.RoleOwner}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) GetList(ctx context.Context, id string) (*models.List, error) {
	var l models.List
	if err := s.DB.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) GetListByCode(ctx context.Context, code string) (*models.List, error) {
	var l models.List
	if err := s.DB.WithContext(ctx).First(&l, "invite_code = ?", strings.ToUpper(code)).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListsForUser returns the lists the user is a member of, newest first.
func (s *Store) ListsForUser(ctx context.Context, userID string) ([]models.List, error) {
	var out []models.List
	err := s.DB.WithContext(ctx).
		Joins("JOIN list_members ON list_members.list_id = lists.id").
		Where("list_members.user_id = ?", userID).
		Order("lists.created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) IsMember(ctx context.Context, listID, userID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.ListMember{}).
		Where("list_id = ? AND user_id = ?", listID, userID).
		Count(&count).Error
	return count > 0, err
}

// JoinByCode looks up the list, rejects duplicate memberships, and
// inserts a member row. Codes compare case-insensitively.
func (s *Store) JoinByCode(ctx context.Context, code, userID string) (*models.List, error) {
	list, err := s.GetListByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	already, err := s.IsMember(ctx, list.ID, userID)
	if err != nil {
		return nil, err
	}
	if already {
		return list, ErrAlreadyMember
	}
	member := &models.ListMember{ListID: list.ID, UserID: userID, Role: models.RoleMember}
	if err := s.DB.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) ListMembers(ctx context.Context, listID string) ([]models.ListMember, error) {
	var out []models.ListMember
	if err := s.DB.WithContext(ctx).Where("list_id = ?", listID).Order("joined_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Items

// ListItems returns the full set for one type partition of one list,
// newest first. Filtering, sorting and pagination stay client-side.
func (s *Store) ListItems(ctx context.Context, tipo, listID string) ([]models.Item, error) {
	var out []models.Item
	err := s.DB.WithContext(ctx).
		Where("tipo = ? AND list_id = ?", tipo, listID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var it models.Item
	if err := s.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Store) CreateItem(ctx context.Context, it *models.Item) error {
	return s.DB.WithContext(ctx).Create(it).Error
}

// UpdateItem applies a column map and returns the fresh row.
func (s *Store) UpdateItem(ctx context.Context, id string, updates map[string]any) (*models.Item, error) {
	res := s.DB.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetItem(ctx, id)
}

// ToggleVisto flips the watched flag and returns the fresh row.
func (s *Store) ToggleVisto(ctx context.Context, id string) (*models.Item, error) {
	it, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.UpdateItem(ctx, id, map[string]any{"visto": !it.Visto})
}

// DeleteItem removes the row and returns what was deleted, so callers
// can publish the change.
func (s *Store) DeleteItem(ctx context.Context, id string) (*models.Item, error) {
	it, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Delete(&models.Item{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return it, nil
}

// Ratings

// GetRating returns the user's rating row for the item, or (nil, nil)
// when none exists.
func (s *Store) GetRating(ctx context.Context, itemID, userID string) (*models.ItemRating, error) {
	var r models.ItemRating
	err := s.DB.WithContext(ctx).First(&r, "item_id = ? AND user_id = ?", itemID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SetStars upserts the star value, leaving the like flag as it was.
func (s *Store) SetStars(ctx context.Context, itemID, userID string, stars int) (*models.ItemRating, error) {
	r, err := s.GetRating(ctx, itemID, userID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = &models.ItemRating{ItemID: itemID, UserID: userID, Rating: &stars}
		if err := s.DB.WithContext(ctx).Create(r).Error; err != nil {
			return nil, err
		}
		return r, nil
	}
	r.Rating = &stars
	if err := s.DB.WithContext(ctx).Save(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// SetLiked upserts the tri-state like flag. Setting the flag to its
// current value clears it; nil always clears.
func (s *Store) SetLiked(ctx context.Context, itemID, userID string, liked *bool) (*models.ItemRating, error) {
	r, err := s.GetRating(ctx, itemID, userID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = &models.ItemRating{ItemID: itemID, UserID: userID, Liked: liked}
		if err := s.DB.WithContext(ctx).Create(r).Error; err != nil {
			return nil, err
		}
		return r, nil
	}
	if liked != nil && r.Liked != nil && *liked == *r.Liked {
		liked = nil
	}
	r.Liked = liked
	if err := s.DB.WithContext(ctx).Model(r).Update("liked", liked).Error; err != nil {
		return nil, err
	}
	return r, nil
}

func newInviteCode() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, inviteCodeLen)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}
