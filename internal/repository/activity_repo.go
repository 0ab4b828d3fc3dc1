package repository

import (
	"fmt"
	"sort"
	"time"

	"huddle/internal/domain"
	"huddle/internal/models"
	"huddle/pkg/geo"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityRepository struct {
	db              *gorm.DB
	maxRadiusMeters float64
}

func NewActivityRepository(db *gorm.DB, maxRadiusMeters float64) *ActivityRepository {
	return &ActivityRepository{db: db, maxRadiusMeters: maxRadiusMeters}
}

// ActivityWithDistance decorates a history row with its distance from a
// query point.
type ActivityWithDistance struct {
	Activity       models.LocationActivity `json:"activity"`
	DistanceMeters float64                 `json:"distance_meters"`
}

// Create appends one activity row with its derived geometry.
func (r *ActivityRepository) Create(userID string, groupID *string, activityType, description string, lat, lng float64) (*models.LocationActivity, error) {
	geomB, err := geo.PointEWKB(lng, lat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if activityType == "" {
		activityType = domain.ActivityCheckIn
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
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.Create(act).Error; err != nil {
		return nil, err
	}
	return act, nil
}

// FindNearby returns activities within the radius, most recent first.
// The radius is bounded by the configured maximum, like every other
// proximity query.
func (r *ActivityRepository) FindNearby(lat, lng, radiusMeters float64, limit int) ([]ActivityWithDistance, error) {
	if err := geo.ValidateCoordinate(lat, lng); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrValidation)
	}
	if radiusMeters > r.maxRadiusMeters {
		radiusMeters = r.maxRadiusMeters
	}
	if limit <= 0 {
		limit = domain.DefaultNearbyLimit
	}
	latMin, latMax, lngMin, lngMax := geo.BoundingBox(lat, lng, radiusMeters)
	var rows []models.LocationActivity
	err := r.db.
		Where("latitude BETWEEN ? AND ?", latMin, latMax).
		Where("longitude BETWEEN ? AND ?", lngMin, lngMax).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ActivityWithDistance, 0, len(rows))
	for _, a := range rows {
		d := geo.Haversine(lat, lng, a.Latitude, a.Longitude)
		if d <= radiusMeters {
			out = append(out, ActivityWithDistance{Activity: a, DistanceMeters: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Activity.CreatedAt.Equal(out[j].Activity.CreatedAt) {
			return out[i].Activity.CreatedAt.After(out[j].Activity.CreatedAt)
		}
		return out[i].Activity.ID > out[j].Activity.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FindByUser returns a user's history, most recent first.
func (r *ActivityRepository) FindByUser(userID string, limit, offset int) ([]models.LocationActivity, error) {
	if limit <= 0 {
		limit = domain.DefaultNearbyLimit
	}
	var rows []models.LocationActivity
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

// FindByGroup returns a group's activity trail, most recent first.
func (r *ActivityRepository) FindByGroup(groupID string, limit int) ([]models.LocationActivity, error) {
	if limit <= 0 {
		limit = domain.DefaultNearbyLimit
	}
	var rows []models.LocationActivity
	err := r.db.Where("group_id = ?", groupID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
