package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmap/internal/cpi"
	"rentmap/internal/geo"
	"rentmap/internal/nta"
)

func adjusted(code, name string, year int, v float64) cpi.Adjusted {
	return cpi.Adjusted{
		UnitYear: nta.UnitYear{Code: code, Name: name, Year: year, MedianRent: v},
		AdjRent:  v,
	}
}

func TestPivotCompleteness(t *testing.T) {
	rows := []cpi.Adjusted{
		adjusted("A", "Unit A", 2019, 1500),
		adjusted("B", "Unit B", 2019, 1600),
		adjusted("B", "Unit B", 2020, 1700),
	}

	wide := Pivot(rows)
	require.Len(t, wide, 2, "one row per unit")

	assert.Equal(t, "A", wide[0].Code)
	require.NotNil(t, wide[0].Rents[2019])
	assert.Equal(t, 1500.0, *wide[0].Rents[2019])
	assert.Nil(t, wide[0].Rents[2020], "missing cell stays absent, not zero")

	assert.Equal(t, "B", wide[1].Code)
	require.NotNil(t, wide[1].Rents[2020])
	assert.Equal(t, 1700.0, *wide[1].Rents[2020])
}

func TestPivotEmpty(t *testing.T) {
	assert.Empty(t, Pivot(nil))
}

func unitSquare(code, name string) nta.Unit {
	// A small square around Brooklyn, in EPSG:2263 feet.
	ring := []geo.Point{
		{X: -73.95, Y: 40.70},
		{X: -73.94, Y: 40.70},
		{X: -73.94, Y: 40.71},
		{X: -73.95, Y: 40.71},
		{X: -73.95, Y: 40.70},
	}
	pg := geo.NewPolygon([][]geo.Point{ring}).Transform(geo.ToStatePlane)
	return nta.Unit{Code: code, Name: name, Polygon: pg}
}

func TestWriteGeoJSON(t *testing.T) {
	units := []nta.Unit{unitSquare("A", "Unit A"), unitSquare("B", "Unit B")}
	rows := Pivot([]cpi.Adjusted{
		adjusted("A", "Unit A", 2019, 1500.4),
		adjusted("B", "Unit B", 2020, 1699.7),
	})
	out := filepath.Join(t.TempDir(), "nested", "rents.geojson")

	require.NoError(t, Write(out, units, rows, []int{2019, 2020}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	a := fc.Features[0]
	assert.Equal(t, "A", a.Properties["nta_code"])
	assert.Equal(t, "Unit A", a.Properties["nta_name"])
	assert.EqualValues(t, 1500, a.Properties["rent_2019"], "rounded to whole dollars")
	assert.Nil(t, a.Properties["rent_2020"], "missing cell is null")

	b := fc.Features[1]
	assert.EqualValues(t, 1700, b.Properties["rent_2020"])
	assert.Nil(t, b.Properties["rent_2019"])

	// Geometry must be back in lon/lat for web-mapping consumers.
	bound := a.Geometry.Bound()
	assert.InDelta(t, -73.95, bound.Min[0], 1e-6)
	assert.InDelta(t, 40.70, bound.Min[1], 1e-6)
}

func TestWriteLeftJoinKeepsGeometryWithoutRows(t *testing.T) {
	units := []nta.Unit{unitSquare("LONELY", "No Data Here")}
	out := filepath.Join(t.TempDir(), "rents.geojson")

	require.NoError(t, Write(out, units, nil, []int{2019}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "LONELY", fc.Features[0].Properties["nta_code"])
	assert.Nil(t, fc.Features[0].Properties["rent_2019"])
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "rents.geojson")
	require.NoError(t, Write(out, []nta.Unit{unitSquare("A", "A")}, nil, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the renamed output remains")
	assert.Equal(t, "rents.geojson", entries[0].Name())
}
