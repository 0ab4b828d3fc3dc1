package geo

import (
	"fmt"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// SRID is the WGS84 spatial reference used for every stored geometry.
const SRID = 4326

// PointEWKB validates the coordinate and encodes POINT(lng lat) as
// EWKB with SRID 4326. This is the single derivation used by every
// coordinate write path: raw columns and the returned bytes are always
// persisted in the same transaction.
func PointEWKB(lng, lat float64) ([]byte, error) {
	if err := ValidateCoordinate(lat, lng); err != nil {
		return nil, err
	}
	p := geom.NewPointFlat(geom.XY, []float64{lng, lat})
	p.SetSRID(SRID)
	return ewkb.Marshal(p, ewkb.NDR)
}

// DecodePointEWKB is the inverse of PointEWKB, used to verify that a
// stored geometry still agrees with its raw columns.
func DecodePointEWKB(data []byte) (lng, lat float64, err error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return 0, 0, err
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return 0, 0, fmt.Errorf("geometry is %T, want point", g)
	}
	if p.SRID() != SRID {
		return 0, 0, fmt.Errorf("geometry SRID %d, want %d", p.SRID(), SRID)
	}
	c := p.Coords()
	return c.X(), c.Y(), nil
}
