// Package pipeline sequences the full run: fetch statistics per year, load
// geometry, crosswalk, aggregate, inflation-adjust, pivot, export.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"rentmap/internal/acs"
	"rentmap/internal/config"
	"rentmap/internal/cpi"
	"rentmap/internal/export"
	"rentmap/internal/nta"
	"rentmap/internal/tiger"
)

// fetchParallelism bounds in-flight ACS requests. Each year is independent
// and merged by index after all fetches finish.
const fetchParallelism = 4

// Pipeline wires the stages together. ACS and Tiger are exported so tests
// can point them at local servers; Units defaults to the tract-per-unit
// builder and can be swapped for a real NTA boundary source.
type Pipeline struct {
	Cfg   config.Config
	Log   *slog.Logger
	ACS   *acs.Client
	Tiger tiger.Config
	Units nta.Builder
}

func New(cfg config.Config, log *slog.Logger) *Pipeline {
	return &Pipeline{
		Cfg: cfg,
		Log: log,
		ACS: acs.New(cfg.CensusKey, cfg.RequestTimeout),
		Tiger: tiger.Config{
			Vintage:   cfg.Vintage,
			StateFIPS: cfg.StateFIPS,
			Counties:  cfg.Counties,
			CacheDir:  cfg.CacheDir,
			Timeout:   cfg.DownloadTimeout,
		},
		Units: nta.TractUnits{},
	}
}

// Run executes the pipeline end to end. Per-year fetch failures are
// warnings; everything after the fetch propagates errors unmodified.
func (p *Pipeline) Run(ctx context.Context) error {
	records := p.fetchYears(ctx)
	if len(records) == 0 {
		// The reference behavior carries an empty table through to an
		// output with geometry but no data; keep that, but loudly.
		p.Log.Warn("no statistics rows fetched for any year")
	}

	p.Log.Info("loading tract geometry", "vintage", p.Cfg.Vintage, "state", p.Cfg.StateFIPS)
	tracts, err := tiger.Fetch(ctx, p.Tiger)
	if err != nil {
		return fmt.Errorf("load tract geometry: %w", err)
	}
	p.Log.Info("tracts loaded", "count", len(tracts))

	units, err := p.Units.Build(tracts)
	if err != nil {
		return fmt.Errorf("build aggregation units: %w", err)
	}
	p.Log.Info("aggregation units built", "count", len(units))

	cw := nta.BuildCrosswalk(tracts, units)
	p.Log.Info("crosswalk built", "mapped", len(cw.ByTract), "dropped", cw.Dropped)

	aggregated := nta.Aggregate(records, cw)
	p.Log.Info("aggregated to unit-year medians", "rows", len(aggregated))

	table, err := cpi.Load(p.Cfg.CPIPath)
	if err != nil {
		return fmt.Errorf("load CPI table: %w", err)
	}
	adjusted, err := cpi.Adjust(aggregated, table, p.Cfg.ReferenceYear)
	if err != nil {
		return fmt.Errorf("inflation adjust: %w", err)
	}

	wide := export.Pivot(adjusted)
	if err := export.Write(p.Cfg.OutPath, units, wide, p.Cfg.Years()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	p.Log.Info("wrote output", "path", p.Cfg.OutPath, "features", len(units))
	return nil
}

// fetchYears pulls every requested year with bounded parallelism. Results
// land in per-year slots, so no accumulator is shared across goroutines;
// the concatenation afterwards is ordered by year regardless of completion
// order. A failed year logs a warning and contributes nothing.
func (p *Pipeline) fetchYears(ctx context.Context) []acs.TractRent {
	years := p.Cfg.Years()
	query := acs.Query{
		StateFIPS: p.Cfg.StateFIPS,
		Counties:  p.Cfg.Counties,
		Variable:  p.Cfg.Variable,
	}

	type slot struct {
		rows []acs.TractRent
		err  error
	}
	slots := make([]slot, len(years))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)
	for i, year := range years {
		i, year := i, year
		g.Go(func() error {
			p.Log.Info("fetching ACS5", "variable", query.Variable, "year", year)
			rows, err := p.ACS.FetchYear(gctx, year, query)
			slots[i] = slot{rows: rows, err: err}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; failures live in slots

	var records []acs.TractRent
	for i, s := range slots {
		if s.err != nil {
			p.Log.Warn("year fetch failed, skipping", "year", years[i], "err", s.err)
			continue
		}
		records = append(records, s.rows...)
	}
	return records
}
