package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"huddle/internal/domain"
	"huddle/internal/models"
	"huddle/pkg/geo"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepository owns group lifecycle and the member_count invariant:
// after every committed transaction member_count equals the number of
// group_members rows for that group. Join/leave lock the group row so
// concurrent counter updates serialize.
type GroupRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewGroupRepository(db *gorm.DB, log *zap.Logger) *GroupRepository {
	return &GroupRepository{db: db, log: log}
}

// MemberInfo is one row of a group's member list.
type MemberInfo struct {
	PublicID   string    `json:"public_id"`
	Nickname   string    `json:"nickname"`
	Role       string    `json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
	LastActive time.Time `json:"last_active"`
}

// Create validates the coordinate, persists the group together with its
// derived geometry, and adds the creator as the first member — all in
// one transaction. Nothing is persisted when validation fails.
func (r *GroupRepository) Create(name, locationName string, lat, lng float64, description string, password *string, creatorID string) (*models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name required", domain.ErrValidation)
	}
	geomB, err := geo.PointEWKB(lng, lat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	var hash *string
	if password != nil && *password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s := string(h)
		hash = &s
	}
	now := time.Now().UTC()
	g := &models.Group{
		ID:           uuid.NewString(),
		Name:         name,
		LocationName: locationName,
		Latitude:     lat,
		Longitude:    lng,
		Geom:         geomB,
		Description:  description,
		PasswordHash: hash,
		CreatorID:    creatorID,
		MemberCount:  0,
		CreatedAt:    now,
		LastActive:   now,
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		m := &models.GroupMembership{
			GroupID:    g.ID,
			UserID:     creatorID,
			Role:       domain.RoleAdmin,
			JoinedAt:   now,
			LastActive: now,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return incrementMemberCount(tx, g.ID, 1)
	})
	if err != nil {
		return nil, err
	}
	g.MemberCount = 1
	return g, nil
}

// Join inserts the membership row and increments member_count in one
// transaction. The group row is locked first so the counter update
// serializes against concurrent join/leave on the same group.
func (r *GroupRepository) Join(groupID, userID string, password *string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var g models.Group
		if err := lockForUpdate(tx).First(&g, "id = ?", groupID).Error; err != nil {
			return translateNotFound(err, "group")
		}
		if g.HasPassword() {
			if password == nil || *password == "" {
				return fmt.Errorf("%w: group password required", domain.ErrUnauthorized)
			}
			if bcrypt.CompareHashAndPassword([]byte(*g.PasswordHash), []byte(*password)) != nil {
				return fmt.Errorf("%w: invalid group password", domain.ErrUnauthorized)
			}
		}
		var n int64
		if err := tx.Model(&models.GroupMembership{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: already a member", domain.ErrConflict)
		}
		now := time.Now().UTC()
		m := &models.GroupMembership{
			GroupID:    groupID,
			UserID:     userID,
			Role:       domain.RoleMember,
			JoinedAt:   now,
			LastActive: now,
		}
		if err := tx.Create(m).Error; err != nil {
			if isDuplicateErr(err) {
				return fmt.Errorf("%w: already a member", domain.ErrConflict)
			}
			return err
		}
		return incrementMemberCount(tx, groupID, 1)
	})
}

// Leave removes the membership and decrements member_count atomically.
// A decrement that would push the counter negative means membership
// rows and the counter have diverged; the transaction rolls back and
// the violation is logged.
func (r *GroupRepository) Leave(groupID, userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var g models.Group
		if err := lockForUpdate(tx).First(&g, "id = ?", groupID).Error; err != nil {
			return translateNotFound(err, "group")
		}
		res := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&models.GroupMembership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: not a member", domain.ErrNotFound)
		}
		if g.MemberCount-1 < 0 {
			r.log.Error("member_count would go negative",
				zap.String("group_id", groupID),
				zap.Int64("member_count", g.MemberCount))
			return fmt.Errorf("%w: member_count underflow for group %s", domain.ErrInvariant, groupID)
		}
		return incrementMemberCount(tx, groupID, -1)
	})
}

// lockForUpdate takes a row lock where the dialect supports it. SQLite
// has no FOR UPDATE; its single-writer model already serializes the
// counter read-modify-write.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func incrementMemberCount(tx *gorm.DB, groupID string, delta int) error {
	return tx.Model(&models.Group{}).Where("id = ?", groupID).
		UpdateColumn("member_count", gorm.Expr("member_count + ?", delta)).Error
}

func (r *GroupRepository) GetByID(groupID string) (*models.Group, error) {
	var g models.Group
	if err := r.db.First(&g, "id = ?", groupID).Error; err != nil {
		return nil, translateNotFound(err, "group")
	}
	return &g, nil
}

// SearchByName matches group names case-insensitively, newest first.
func (r *GroupRepository) SearchByName(name string) ([]models.Group, error) {
	var groups []models.Group
	pattern := "%" + name + "%"
	err := r.db.Where("name LIKE ?", pattern).
		Order("created_at DESC").
		Limit(domain.NameSearchLimit).
		Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) IsMember(groupID, userID string) (bool, error) {
	var n int64
	err := r.db.Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&n).Error
	return n > 0, err
}

// KeepAlive bumps the caller's membership last_active timestamp.
// Membership is checked explicitly rather than inferred from affected
// rows, which mysql reports as zero for no-op updates.
func (r *GroupRepository) KeepAlive(groupID, userID string) (time.Time, error) {
	member, err := r.IsMember(groupID, userID)
	if err != nil {
		return time.Time{}, err
	}
	if !member {
		return time.Time{}, fmt.Errorf("%w: not a member", domain.ErrNotFound)
	}
	now := time.Now().UTC()
	err = r.db.Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("last_active", now).Error
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (r *GroupRepository) Members(groupID string) ([]MemberInfo, error) {
	exists, err := r.exists(groupID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: group", domain.ErrNotFound)
	}
	var members []MemberInfo
	err = r.db.Table("group_members gm").
		Select("u.public_id, u.nickname, gm.role, gm.joined_at, gm.last_active").
		Joins("JOIN users u ON u.id = gm.user_id").
		Where("gm.group_id = ?", groupID).
		Order("gm.last_active DESC").
		Scan(&members).Error
	return members, err
}

// GroupsOfUser returns the groups the user belongs to, most recently
// active membership first.
func (r *GroupRepository) GroupsOfUser(userID string) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Table("groups g").
		Select("g.*").
		Joins("JOIN group_members gm ON gm.group_id = g.id").
		Where("gm.user_id = ?", userID).
		Order("gm.last_active DESC").
		Scan(&groups).Error
	return groups, err
}

// MemberCountFromRows counts the membership rows directly, bypassing
// the cached counter. Used by consistency checks.
func (r *GroupRepository) MemberCountFromRows(groupID string) (int64, error) {
	var n int64
	err := r.db.Model(&models.GroupMembership{}).
		Where("group_id = ?", groupID).Count(&n).Error
	return n, err
}

func (r *GroupRepository) exists(groupID string) (bool, error) {
	var n int64
	err := r.db.Model(&models.Group{}).Where("id = ?", groupID).Count(&n).Error
	return n > 0, err
}

// isDuplicateErr detects unique-constraint failures across mysql and
// sqlite without leaking driver errors upward.
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
