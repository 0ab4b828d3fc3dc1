package repository

import (
	"fmt"
	"sort"
	"time"

	"huddle/internal/domain"
	"huddle/internal/models"
	"huddle/pkg/geo"

	"gorm.io/gorm"
)

// GroupMatch is one proximity hit, ascending by distance, ties broken
// by group ID.
type GroupMatch struct {
	Group          models.Group `json:"group"`
	DistanceMeters float64      `json:"distance_meters"`
}

// UserMatch is a nearby user's current snapshot. Only the public ID
// leaves the server.
type UserMatch struct {
	PublicID       string    `json:"public_id"`
	Nickname       string    `json:"nickname"`
	DistanceMeters float64   `json:"distance_meters"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProximitySearcher answers "what is within R meters of P". The
// production implementation prefilters with the composite lat/lng
// index; BruteForce* variants scan everything and serve as the
// correctness oracle in tests.
type ProximitySearcher interface {
	FindGroupsNear(lat, lng, radiusMeters float64) ([]GroupMatch, error)
	FindUsersNear(lat, lng, radiusMeters float64) ([]UserMatch, error)
}

type ProximityRepository struct {
	db              *gorm.DB
	maxRadiusMeters float64
	limit           int
}

var _ ProximitySearcher = (*ProximityRepository)(nil)

func NewProximityRepository(db *gorm.DB, maxRadiusMeters float64, limit int) *ProximityRepository {
	if limit <= 0 {
		limit = domain.DefaultNearbyLimit
	}
	return &ProximityRepository{db: db, maxRadiusMeters: maxRadiusMeters, limit: limit}
}

// clampRadius rejects non-positive radii and bounds the rest to the
// configured maximum so query cost stays bounded.
func (r *ProximityRepository) clampRadius(radiusMeters float64) (float64, error) {
	if radiusMeters <= 0 {
		return 0, fmt.Errorf("%w: radius must be positive", domain.ErrValidation)
	}
	if radiusMeters > r.maxRadiusMeters {
		radiusMeters = r.maxRadiusMeters
	}
	return radiusMeters, nil
}

func (r *ProximityRepository) FindGroupsNear(lat, lng, radiusMeters float64) ([]GroupMatch, error) {
	if err := geo.ValidateCoordinate(lat, lng); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	radius, err := r.clampRadius(radiusMeters)
	if err != nil {
		return nil, err
	}
	latMin, latMax, lngMin, lngMax := geo.BoundingBox(lat, lng, radius)
	var groups []models.Group
	err = r.db.
		Where("latitude BETWEEN ? AND ?", latMin, latMax).
		Where("longitude BETWEEN ? AND ?", lngMin, lngMax).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return filterGroups(groups, lat, lng, radius, r.limit), nil
}

func (r *ProximityRepository) FindUsersNear(lat, lng, radiusMeters float64) ([]UserMatch, error) {
	if err := geo.ValidateCoordinate(lat, lng); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	radius, err := r.clampRadius(radiusMeters)
	if err != nil {
		return nil, err
	}
	latMin, latMax, lngMin, lngMax := geo.BoundingBox(lat, lng, radius)
	rows, err := r.userRows(latMin, latMax, lngMin, lngMax)
	if err != nil {
		return nil, err
	}
	return filterUsers(rows, lat, lng, radius, r.limit), nil
}

// BruteForceGroupsNear scans every group with no index prefilter.
// Correctness baseline only, never the production path.
func (r *ProximityRepository) BruteForceGroupsNear(lat, lng, radiusMeters float64) ([]GroupMatch, error) {
	if err := geo.ValidateCoordinate(lat, lng); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	radius, err := r.clampRadius(radiusMeters)
	if err != nil {
		return nil, err
	}
	var groups []models.Group
	if err := r.db.Find(&groups).Error; err != nil {
		return nil, err
	}
	return filterGroups(groups, lat, lng, radius, r.limit), nil
}

// BruteForceUsersNear is the full-scan oracle for FindUsersNear.
func (r *ProximityRepository) BruteForceUsersNear(lat, lng, radiusMeters float64) ([]UserMatch, error) {
	if err := geo.ValidateCoordinate(lat, lng); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	radius, err := r.clampRadius(radiusMeters)
	if err != nil {
		return nil, err
	}
	rows, err := r.userRows(-90, 90, -180, 180)
	if err != nil {
		return nil, err
	}
	return filterUsers(rows, lat, lng, radius, r.limit), nil
}

type userLocationRow struct {
	PublicID  string
	Nickname  string
	Latitude  float64
	Longitude float64
	UpdatedAt time.Time
}

func (r *ProximityRepository) userRows(latMin, latMax, lngMin, lngMax float64) ([]userLocationRow, error) {
	var rows []userLocationRow
	err := r.db.Table("user_locations ul").
		Select("u.public_id, u.nickname, ul.latitude, ul.longitude, ul.updated_at").
		Joins("JOIN users u ON u.id = ul.user_id").
		Where("ul.latitude BETWEEN ? AND ?", latMin, latMax).
		Where("ul.longitude BETWEEN ? AND ?", lngMin, lngMax).
		Scan(&rows).Error
	return rows, err
}

func filterGroups(groups []models.Group, lat, lng, radius float64, limit int) []GroupMatch {
	matches := make([]GroupMatch, 0, len(groups))
	for _, g := range groups {
		d := geo.Haversine(lat, lng, g.Latitude, g.Longitude)
		if d <= radius {
			matches = append(matches, GroupMatch{Group: g, DistanceMeters: d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceMeters != matches[j].DistanceMeters {
			return matches[i].DistanceMeters < matches[j].DistanceMeters
		}
		return matches[i].Group.ID < matches[j].Group.ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func filterUsers(rows []userLocationRow, lat, lng, radius float64, limit int) []UserMatch {
	matches := make([]UserMatch, 0, len(rows))
	for _, row := range rows {
		d := geo.Haversine(lat, lng, row.Latitude, row.Longitude)
		if d <= radius {
			matches = append(matches, UserMatch{
				PublicID:       row.PublicID,
				Nickname:       row.Nickname,
				DistanceMeters: d,
				UpdatedAt:      row.UpdatedAt,
			})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceMeters != matches[j].DistanceMeters {
			return matches[i].DistanceMeters < matches[j].DistanceMeters
		}
		return matches[i].PublicID < matches[j].PublicID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
