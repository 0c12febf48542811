package nta

import (
	"sort"

	"rentmap/internal/acs"
)

// UnitYear is the median rent across a unit's tracts for one year.
type UnitYear struct {
	Code       string
	Name       string
	Year       int
	MedianRent float64
}

// Aggregate joins tract observations through the crosswalk and reduces each
// (unit, year) group by median. Records without a crosswalk entry are
// discarded; nil estimates are excluded from the median; a group with only
// nil estimates yields no row at all. Output is sorted by (code, year).
func Aggregate(records []acs.TractRent, cw Crosswalk) []UnitYear {
	type key struct {
		code string
		year int
	}
	groups := make(map[key][]float64)
	names := make(map[string]string)

	for _, rec := range records {
		ref, ok := cw.ByTract[rec.GeoID]
		if !ok {
			continue
		}
		names[ref.Code] = ref.Name
		if rec.Estimate == nil {
			continue
		}
		k := key{code: ref.Code, year: rec.Year}
		groups[k] = append(groups[k], *rec.Estimate)
	}

	out := make([]UnitYear, 0, len(groups))
	for k, vals := range groups {
		out = append(out, UnitYear{
			Code:       k.code,
			Name:       names[k.code],
			Year:       k.year,
			MedianRent: median(vals),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// median of a non-empty slice; even counts average the two middle values.
func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
