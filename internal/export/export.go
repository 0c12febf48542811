// Package export pivots unit-year aggregates into one row per unit and
// writes the final GeoJSON feature collection.
package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"rentmap/internal/cpi"
	"rentmap/internal/geo"
	"rentmap/internal/nta"
)

// WideRow is one aggregation unit with its per-year adjusted rents. Absent
// (unit, year) combinations stay nil, never zero.
type WideRow struct {
	Code  string
	Name  string
	Rents map[int]*float64
}

// Pivot reshapes long (unit, year, value) rows into one WideRow per unit,
// sorted by code.
func Pivot(rows []cpi.Adjusted) []WideRow {
	byCode := make(map[string]*WideRow)
	for _, r := range rows {
		w, ok := byCode[r.Code]
		if !ok {
			w = &WideRow{Code: r.Code, Name: r.Name, Rents: make(map[int]*float64)}
			byCode[r.Code] = w
		}
		v := r.AdjRent
		w.Rents[r.Year] = &v
	}

	out := make([]WideRow, 0, len(byCode))
	for _, w := range byCode {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Write joins wide rows onto unit geometry by code (left join: a unit with
// no rows keeps all-null rent columns), rounds values to whole dollars,
// reprojects to lon/lat, and writes one feature per unit. The file is
// written to a temp path and renamed so a partial write is never mistaken
// for a complete output.
func Write(path string, units []nta.Unit, rows []WideRow, years []int) error {
	byCode := make(map[string]WideRow, len(rows))
	for _, r := range rows {
		byCode[r.Code] = r
	}

	fc := geojson.NewFeatureCollection()
	for _, u := range units {
		f := geojson.NewFeature(toOrb(u.Polygon.Transform(geo.ToLonLat)))
		f.Properties["nta_code"] = u.Code
		f.Properties["nta_name"] = u.Name

		row, ok := byCode[u.Code]
		for _, year := range years {
			col := fmt.Sprintf("rent_%d", year)
			if ok {
				if v := row.Rents[year]; v != nil {
					f.Properties[col] = int(math.Round(*v))
					continue
				}
			}
			f.Properties[col] = nil
		}
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	return writeAtomic(path, data)
}

// toOrb converts the ring set to an orb polygon; GeoJSON positions are
// [lon, lat].
func toOrb(pg geo.Polygon) orb.Polygon {
	poly := make(orb.Polygon, 0, len(pg.Rings))
	for _, ring := range pg.Rings {
		r := make(orb.Ring, 0, len(ring))
		for _, p := range ring {
			r = append(r, orb.Point{p.X, p.Y})
		}
		poly = append(poly, r)
	}
	return poly
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".rentmap-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
