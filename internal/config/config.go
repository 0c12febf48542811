// Package config assembles the pipeline configuration once at startup so
// every stage receives explicit values instead of reading globals.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

// Config carries everything the pipeline needs. Defaults target NYC: the
// five borough county FIPS codes within New York State, ACS table B25064
// (median gross rent), TIGER 2020 tract geometry.
type Config struct {
	CensusKey string

	StartYear int
	EndYear   int

	StateFIPS string
	Counties  []string
	Variable  string

	Vintage       int
	ReferenceYear int

	CPIPath  string
	OutPath  string
	CacheDir string

	RequestTimeout  time.Duration
	DownloadTimeout time.Duration
}

// Default returns the NYC configuration the CLI starts from.
func Default() Config {
	return Config{
		StartYear:       2009,
		EndYear:         2023,
		StateFIPS:       "36",
		Counties:        []string{"005", "047", "061", "081", "085"},
		Variable:        "B25064_001E",
		Vintage:         2020,
		ReferenceYear:   2025,
		CPIPath:         "",
		OutPath:         "data/nta_rents.geojson",
		CacheDir:        "data/tiger",
		RequestTimeout:  60 * time.Second,
		DownloadTimeout: 120 * time.Second,
	}
}

// LoadEnv layers .env files into the process environment without overriding
// variables already set.
func LoadEnv() {
	_ = godotenv.Load(".env")
}

// ResolveKey fills CensusKey from the environment or, as a last resort, a
// no-echo terminal prompt. Running headless with no key configured is an
// error.
func (c *Config) ResolveKey() error {
	if c.CensusKey != "" {
		return nil
	}
	if key := os.Getenv("CENSUS_API_KEY"); key != "" {
		c.CensusKey = key
		return nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("no Census API key: pass -key or set CENSUS_API_KEY")
	}
	fmt.Fprint(os.Stderr, "Census API key: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	c.CensusKey = strings.TrimSpace(string(raw))
	if c.CensusKey == "" {
		return errors.New("empty Census API key")
	}
	return nil
}

// Validate catches caller mistakes before any network traffic happens.
func (c Config) Validate() error {
	if c.StartYear > c.EndYear {
		return fmt.Errorf("start year %d after end year %d", c.StartYear, c.EndYear)
	}
	if c.CPIPath == "" {
		return errors.New("CPI csv path is required")
	}
	if len(c.Counties) == 0 {
		return errors.New("county allow-list is empty")
	}
	return nil
}

// Years lists the requested years in ascending order.
func (c Config) Years() []int {
	years := make([]int, 0, c.EndYear-c.StartYear+1)
	for y := c.StartYear; y <= c.EndYear; y++ {
		years = append(years, y)
	}
	return years
}
