// Package cpi rescales currency amounts onto one reference year's
// purchasing power using an externally supplied year→index table.
package cpi

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"rentmap/internal/nta"
)

// Table maps year to CPI index value.
type Table map[int]float64

// Adjusted carries a unit-year aggregate plus its inflation-adjusted value.
type Adjusted struct {
	nta.UnitYear
	AdjRent float64
}

// Load reads a CSV with `year` and `cpi` columns (located by header name;
// extra columns are ignored). Any unparsable row is an error: a partial
// index table would silently corrupt the adjustment.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CPI csv %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CPI csv %s has no data rows", path)
	}

	yearCol, cpiCol := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "year":
			yearCol = i
		case "cpi":
			cpiCol = i
		}
	}
	if yearCol < 0 || cpiCol < 0 {
		return nil, fmt.Errorf("CPI csv %s missing year/cpi columns", path)
	}

	t := make(Table, len(rows)-1)
	for i, row := range rows[1:] {
		year, err := strconv.Atoi(strings.TrimSpace(row[yearCol]))
		if err != nil {
			return nil, fmt.Errorf("CPI csv %s row %d: bad year %q", path, i+2, row[yearCol])
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[cpiCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("CPI csv %s row %d: bad cpi %q", path, i+2, row[cpiCol])
		}
		t[year] = v
	}
	return t, nil
}

// Adjust rescales every row to refYear dollars: value × index[ref]/index[year].
// A missing reference year, or any row year absent from the table, is a
// configuration error and fails the whole operation: adjusting only some
// rows would produce a dataset that mixes dollar vintages.
func Adjust(rows []nta.UnitYear, t Table, refYear int) ([]Adjusted, error) {
	base, ok := t[refYear]
	if !ok {
		return nil, fmt.Errorf("CPI reference year %d not in index table", refYear)
	}

	out := make([]Adjusted, 0, len(rows))
	for _, row := range rows {
		idx, ok := t[row.Year]
		if !ok {
			return nil, fmt.Errorf("CPI index missing year %d", row.Year)
		}
		out = append(out, Adjusted{
			UnitYear: row,
			AdjRent:  row.MedianRent * (base / idx),
		})
	}
	return out, nil
}
