package repository

import (
	"fmt"
	"time"

	"huddle/internal/domain"
	"huddle/internal/models"
	"huddle/pkg/geo"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocationRepository persists the two location facts per user: the
// mutable current-position snapshot and the append-only activity
// history. Report writes both in one transaction, each with its derived
// geometry.
type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Report upserts the user's snapshot and appends a history row. When
// coordinate validation fails nothing is persisted.
func (r *LocationRepository) Report(userID string, lat, lng float64, accuracy *float64, activityType, description string, groupID *string) (*models.UserLocation, error) {
	geomB, err := geo.PointEWKB(lng, lat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if activityType == "" {
		activityType = domain.ActivityCheckIn
	}
	now := time.Now().UTC()
	loc := &models.UserLocation{
		UserID:         userID,
		Latitude:       lat,
		Longitude:      lng,
		Geom:           geomB,
		AccuracyMeters: accuracy,
		UpdatedAt:      now,
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"latitude", "longitude", "geom", "accuracy_meters", "updated_at",
			}),
		}).Create(loc).Error; err != nil {
			return err
		}
		act := &models.LocationActivity{
			ID:          uuid.NewString(),
			UserID:      userID,
			GroupID:     groupID,
			Type:        activityType,
			Description: description,
			Latitude:    lat,
			Longitude:   lng,
			Geom:        geomB,
			CreatedAt:   now,
		}
		return tx.Create(act).Error
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// GetByUserID returns the user's current snapshot, ErrNotFound when the
// user has never reported a location.
func (r *LocationRepository) GetByUserID(userID string) (*models.UserLocation, error) {
	var loc models.UserLocation
	if err := r.db.First(&loc, "user_id = ?", userID).Error; err != nil {
		return nil, translateNotFound(err, "location")
	}
	return &loc, nil
}
