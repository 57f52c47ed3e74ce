// Package pipeline orchestrates the harvest: classify accessions out of
// sequence descriptions, fetch the matching remote records in paced
// batches and aggregate isolation sources into the run's two reports.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/seqwell/isosrc/internal/classify"
	"github.com/seqwell/isosrc/internal/echo"
	"github.com/seqwell/isosrc/internal/fasta"
	"github.com/seqwell/isosrc/internal/model"
)

// Pipeline wires the harvest stages together
type Pipeline struct {
	cfg     *model.Config
	fetcher Fetcher
	log     echo.Sink
}

// New creates a pipeline using the given fetcher for remote access
func New(cfg *model.Config, fetcher Fetcher, log echo.Sink) *Pipeline {
	return &Pipeline{cfg: cfg, fetcher: fetcher, log: log}
}

// Summary aggregates run statistics for the final echo
type Summary struct {
	Files           int
	Records         int
	Identifiers     int
	Skipped         int
	Rows            int
	DistinctSources int
}

// Run executes the whole harvest over the input paths
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Summary, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: %w", path, ErrMissingInput)
		}
	}

	var records []model.SequenceRecord
	files := 0
	for _, path := range paths {
		recs, err := fasta.ReadFile(path)
		if err != nil {
			// a broken file is skipped, not fatal to the run
			p.log.Printf("skipping file: %v\n", err)
			continue
		}
		p.log.Printf("loaded %d records from %s\n", len(recs), path)
		records = append(records, recs...)
		files++
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	identifiers := classify.Filter(records, p.cfg.Entrez.Database, p.log)
	if len(identifiers) == 0 {
		return nil, ErrNoIdentifiers
	}
	p.log.Printf("classified %d of %d records for the %s database\n",
		len(identifiers), len(records), p.cfg.Entrez.Database)

	ids := make([]string, len(identifiers))
	for i, id := range identifiers {
		ids[i] = id.Accession
	}

	agg, err := NewAggregator(p.cfg.Output.ReportPath, p.cfg.Output.IncludeReferences)
	if err != nil {
		return nil, err
	}

	scheduler := NewScheduler(p.fetcher, p.cfg.Pacing, p.cfg.Entrez.RequestsPerSecond, p.log)
	runErr := scheduler.Run(ctx, ids, func(rec model.RemoteRecord) error {
		groups := ExtractSources(rec, p.log)
		if groups == nil {
			p.log.Printf("%s: no source feature, nothing to report\n", rec.Accession)
			return nil
		}
		row := model.IsolationSourceRow{
			Description: rec.Definition,
			Accession:   rec.Accession,
			Sources:     groups[0],
			Countries:   groups[1],
		}
		if p.cfg.Output.IncludeReferences {
			row.References = JoinReferences(rec.References)
		}
		return agg.Record(row)
	})

	// The report handle is released on every path, and the histogram
	// covers whatever rows made it out before an abort.
	closeErr := agg.Close()
	histErr := agg.WriteHistogram(p.cfg.Output.HistogramPath)

	if runErr != nil {
		return nil, runErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close report: %w", closeErr)
	}
	if histErr != nil {
		return nil, histErr
	}

	return &Summary{
		Files:           files,
		Records:         len(records),
		Identifiers:     len(identifiers),
		Skipped:         len(records) - len(identifiers),
		Rows:            agg.Rows(),
		DistinctSources: agg.DistinctSources(),
	}, nil
}
