// rentmap pulls ACS5 median gross rent for NYC census tracts, aggregates
// to NTA-style units, CPI-adjusts to a reference year, and writes a
// Mapbox-ready GeoJSON.
package main

import (
	"context"
	"flag"
	"os"

	"rentmap/internal/config"
	"rentmap/internal/logger"
	"rentmap/internal/pipeline"
)

func main() {
	config.LoadEnv()
	log := logger.Setup()

	cfg := config.Default()
	flag.StringVar(&cfg.CensusKey, "key", "", "Census API key (or CENSUS_API_KEY)")
	flag.IntVar(&cfg.StartYear, "start", cfg.StartYear, "first ACS5 year")
	flag.IntVar(&cfg.EndYear, "end", cfg.EndYear, "last ACS5 year")
	flag.StringVar(&cfg.CPIPath, "cpi", "", "CSV with year,cpi columns (must include the reference year)")
	flag.StringVar(&cfg.OutPath, "out", cfg.OutPath, "output GeoJSON path")
	flag.IntVar(&cfg.ReferenceYear, "ref", cfg.ReferenceYear, "reference year for CPI adjustment")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if err := cfg.ResolveKey(); err != nil {
		log.Error("no API key", "err", err)
		os.Exit(1)
	}

	if err := pipeline.New(cfg, log).Run(context.Background()); err != nil {
		log.Error("pipeline failed", "err", err)
		os.Exit(1)
	}
}
