// Package nta derives Neighborhood-Tabulation-Area-style aggregation units
// from census tracts and aggregates tract statistics to them.
package nta

import (
	"rentmap/internal/geo"
	"rentmap/internal/tiger"
)

// Unit is one aggregation area. Polygons are held in EPSG:2263 feet, the
// working CRS for all spatial operations.
type Unit struct {
	Code    string
	Name    string
	Polygon geo.Polygon
}

// Builder produces the aggregation geometry from fine tract geometry. A real
// NTA boundary file groups many tracts per unit; TractUnits below is the
// degenerate fallback when no boundary source is wired in.
type Builder interface {
	Build(tracts []tiger.Tract) ([]Unit, error)
}

// TractUnits treats every tract as its own unit: the unit code is the tract
// GEOID and the name is synthetic.
type TractUnits struct{}

func (TractUnits) Build(tracts []tiger.Tract) ([]Unit, error) {
	units := make([]Unit, 0, len(tracts))
	for _, t := range tracts {
		units = append(units, Unit{
			Code:    t.GeoID,
			Name:    "Tract " + t.GeoID,
			Polygon: t.Polygon.Transform(geo.ToStatePlane),
		})
	}
	return units, nil
}
