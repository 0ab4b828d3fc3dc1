package models

import "time"

// Group is a geographically-discoverable chat room. Geom is the EWKB
// SRID-4326 point derived from Latitude/Longitude; the two are only
// ever written together, inside one transaction. MemberCount mirrors
// the number of GroupMembership rows and is mutated exclusively by the
// group repository's join/leave/create paths.
type Group struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:128;not null;index" json:"name"`
	LocationName string    `gorm:"size:128;not null" json:"location_name"`
	Latitude     float64   `gorm:"not null;index:idx_groups_lat_lng" json:"latitude"`
	Longitude    float64   `gorm:"not null;index:idx_groups_lat_lng" json:"longitude"`
	Geom         []byte    `gorm:"type:varbinary(64)" json:"-"`
	Description  string    `gorm:"size:512" json:"description"`
	PasswordHash *string   `gorm:"size:255" json:"-"`
	CreatorID    string    `gorm:"size:36;not null;index" json:"creator_id"`
	MemberCount  int64     `gorm:"not null;default:0" json:"member_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `gorm:"not null" json:"last_active"`
}

func (Group) TableName() string { return "groups" }

// HasPassword reports whether joining requires a password.
func (g *Group) HasPassword() bool { return g.PasswordHash != nil && *g.PasswordHash != "" }

// GroupMembership is the sole source of truth for group membership; at
// most one row per (group, user).
type GroupMembership struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	GroupID    string    `gorm:"size:36;not null;uniqueIndex:idx_member_group_user" json:"group_id"`
	UserID     string    `gorm:"size:36;not null;uniqueIndex:idx_member_group_user;index" json:"-"`
	Role       string    `gorm:"size:16;not null;default:member" json:"role"`
	JoinedAt   time.Time `gorm:"not null" json:"joined_at"`
	LastActive time.Time `gorm:"not null;index" json:"last_active"`
}

func (GroupMembership) TableName() string { return "group_members" }
