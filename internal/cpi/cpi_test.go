package cpi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmap/internal/nta"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cpi.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	table, err := Load(writeCSV(t, "year,cpi\n2019,255.657\n2020,258.811\n2025,320.0\n"))
	require.NoError(t, err)
	assert.Len(t, table, 3)
	assert.Equal(t, 258.811, table[2020])
}

func TestLoadExtraColumns(t *testing.T) {
	table, err := Load(writeCSV(t, "series,year,cpi\nCUUR0000SA0,2020,258.811\n"))
	require.NoError(t, err)
	assert.Equal(t, 258.811, table[2020])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeCSV(t, "year,cpi\n"))
	assert.Error(t, err, "no data rows")

	_, err = Load(writeCSV(t, "a,b\n1,2\n"))
	assert.Error(t, err, "missing columns")

	_, err = Load(writeCSV(t, "year,cpi\ntwenty,100\n"))
	assert.Error(t, err, "bad year")

	_, err = Load(writeCSV(t, "year,cpi\n2020,high\n"))
	assert.Error(t, err, "bad cpi")

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestAdjustSameYearIsIdentity(t *testing.T) {
	table := Table{2020: 258.811}
	rows := []nta.UnitYear{{Code: "U1", Name: "Unit", Year: 2020, MedianRent: 1500}}

	out, err := Adjust(rows, table, 2020)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1500.0, out[0].AdjRent)
	assert.Equal(t, 1500.0, out[0].MedianRent, "raw value preserved alongside")
}

func TestAdjustRoundTrip(t *testing.T) {
	table := Table{2015: 237.0, 2025: 320.0}
	rows := []nta.UnitYear{{Code: "U1", Year: 2015, MedianRent: 1234.56}}

	up, err := Adjust(rows, table, 2025)
	require.NoError(t, err)

	// Un-adjust: treat the adjusted value as a 2025 observation and scale
	// back to 2015 dollars.
	back, err := Adjust([]nta.UnitYear{{Code: "U1", Year: 2025, MedianRent: up[0].AdjRent}}, table, 2015)
	require.NoError(t, err)
	assert.InDelta(t, 1234.56, back[0].AdjRent, 1e-9)
}

func TestAdjustScaling(t *testing.T) {
	table := Table{2010: 100.0, 2020: 125.0}
	rows := []nta.UnitYear{{Code: "U1", Year: 2010, MedianRent: 1000}}

	out, err := Adjust(rows, table, 2020)
	require.NoError(t, err)
	assert.InDelta(t, 1250.0, out[0].AdjRent, 1e-9)
}

func TestAdjustMissingReferenceYearFatal(t *testing.T) {
	table := Table{2020: 258.811}

	_, err := Adjust([]nta.UnitYear{{Code: "U1", Year: 2020, MedianRent: 1500}}, table, 2025)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference year 2025")
}

func TestAdjustMissingRowYearFatal(t *testing.T) {
	table := Table{2025: 320.0, 2020: 258.811}
	rows := []nta.UnitYear{
		{Code: "U1", Year: 2020, MedianRent: 1500},
		{Code: "U1", Year: 2021, MedianRent: 1600},
	}

	_, err := Adjust(rows, table, 2025)
	require.Error(t, err, "partial adjustment would mix dollar vintages")
	assert.Contains(t, err.Error(), "missing year 2021")
}

func TestAdjustEmptyInput(t *testing.T) {
	out, err := Adjust(nil, Table{2025: 320.0}, 2025)
	require.NoError(t, err)
	assert.Empty(t, out)
}
