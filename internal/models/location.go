package models

import "time"

// UserLocation is the single mutable "where is this user now" row,
// upserted on every report. One row per user.
type UserLocation struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UserID         string    `gorm:"size:36;uniqueIndex;not null" json:"user_id"`
	Latitude       float64   `gorm:"not null;index:idx_location_lat_lng" json:"latitude"`
	Longitude      float64   `gorm:"not null;index:idx_location_lat_lng" json:"longitude"`
	Geom           []byte    `gorm:"type:varbinary(64)" json:"-"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	UpdatedAt      time.Time `gorm:"not null;index" json:"updated_at"`
}

func (UserLocation) TableName() string { return "user_locations" }

// LocationActivity is the append-only "where has this user been" log.
// Rows are never updated or deleted by normal operation.
type LocationActivity struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;index" json:"user_id"`
	GroupID     *string   `gorm:"size:36;index" json:"group_id,omitempty"`
	Type        string    `gorm:"size:32;not null;index" json:"type"`
	Description string    `gorm:"size:512" json:"description"`
	Latitude    float64   `gorm:"not null;index:idx_activity_lat_lng" json:"latitude"`
	Longitude   float64   `gorm:"not null;index:idx_activity_lat_lng" json:"longitude"`
	Geom        []byte    `gorm:"type:varbinary(64)" json:"-"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

func (LocationActivity) TableName() string { return "location_activities" }
