package repository

import (
	"errors"
	"fmt"

	"huddle/internal/domain"
	"huddle/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	if err := r.db.Create(u).Error; err != nil {
		if isDuplicateErr(err) {
			return fmt.Errorf("%w: user already exists", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "user")
	}
	return &u, nil
}

func (r *UserRepository) GetByPublicID(publicID string) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, "public_id = ?", publicID).Error; err != nil {
		return nil, translateNotFound(err, "user")
	}
	return &u, nil
}

// GetByNickname returns the oldest registered (non-temporary) account
// with the given nickname; nicknames are not unique across temporary
// users.
func (r *UserRepository) GetByNickname(nickname string) (*models.User, error) {
	var u models.User
	err := r.db.Where("nickname = ? AND is_temporary = ?", nickname, false).
		Order("created_at ASC").First(&u).Error
	if err != nil {
		return nil, translateNotFound(err, "user")
	}
	return &u, nil
}

func (r *UserRepository) UpdateNickname(id, nickname string) error {
	return r.updateColumn(id, "nickname", nickname)
}

func (r *UserRepository) UpdatePasswordHash(id, hash string) error {
	return r.updateColumn(id, "password_hash", hash)
}

// updateColumn checks existence explicitly: affected-rows counts cannot
// distinguish a missing row from a no-op update on mysql, so a PATCH
// that resubmits the current value must not read as NotFound.
func (r *UserRepository) updateColumn(id, column string, value interface{}) error {
	var n int64
	if err := r.db.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Update(column, value).Error
}

func translateNotFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, entity)
	}
	return err
}
