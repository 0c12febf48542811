package nta

import (
	"rentmap/internal/geo"
	"rentmap/internal/tiger"
)

// UnitRef names the unit a tract belongs to.
type UnitRef struct {
	Code string
	Name string
}

// Crosswalk maps each tract to at most one containing unit. Tracts with no
// containing unit are simply absent; Dropped counts them so callers can log
// the cardinality difference.
type Crosswalk struct {
	ByTract map[string]UnitRef
	Dropped int
}

// BuildCrosswalk projects each tract into the units' CRS and assigns it to
// the first unit that fully contains it. Containment means "within", not
// "intersects": a tract straddling two units belongs to neither.
func BuildCrosswalk(tracts []tiger.Tract, units []Unit) Crosswalk {
	cw := Crosswalk{ByTract: make(map[string]UnitRef, len(tracts))}
	for _, t := range tracts {
		if _, ok := cw.ByTract[t.GeoID]; ok {
			continue
		}
		projected := t.Polygon.Transform(geo.ToStatePlane)
		matched := false
		for _, u := range units {
			if geo.Within(projected, u.Polygon) {
				cw.ByTract[t.GeoID] = UnitRef{Code: u.Code, Name: u.Name}
				matched = true
				break
			}
		}
		if !matched {
			cw.Dropped++
		}
	}
	return cw
}
