package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/seqwell/isosrc/internal/echo"
	"github.com/seqwell/isosrc/internal/entrez"
	"github.com/seqwell/isosrc/internal/model"
)

// Fetcher runs one remote round trip for a batch of accessions
type Fetcher interface {
	FetchBatch(ctx context.Context, ids []string) ([]model.RemoteRecord, error)
}

// Pacing is the per-run pause policy derived once from the total
// identifier count before fetching begins, read-only thereafter.
type Pacing struct {
	BatchSize  int
	NumQueries int
	NumPauses  int
	PauseEvery int // pause before every Nth batch; 0 disables pausing
	Pause      time.Duration
}

// PlanPacing computes the pause policy. When the query count exceeds the
// threshold, pauses are spread evenly over the run instead of clustering
// at the threshold boundary.
func PlanPacing(total, batchSize, threshold int, pause time.Duration) Pacing {
	if batchSize <= 0 {
		batchSize = 20
	}
	p := Pacing{
		BatchSize:  batchSize,
		NumQueries: (total + batchSize - 1) / batchSize,
		Pause:      pause,
	}
	if threshold > 0 && p.NumQueries > threshold {
		p.NumPauses = p.NumQueries / threshold
		p.PauseEvery = p.NumQueries/(p.NumPauses+1) + 1
	}
	return p
}

// TotalPauseTime is the cumulative sleep the policy will insert
func (p Pacing) TotalPauseTime() time.Duration {
	return time.Duration(p.NumPauses) * p.Pause
}

// Scheduler partitions the identifier list into fixed-size batches and
// drives fetch-and-accumulate across them, strictly in order, enforcing
// the computed pauses. No batch ever runs concurrently with another: the
// remote service enforces a global rate ceiling.
type Scheduler struct {
	fetcher Fetcher
	cfg     model.PacingConfig
	rps     float64 // advisory throughput ceiling for the time estimate
	log     echo.Sink
}

// NewScheduler creates a scheduler over the given fetcher
func NewScheduler(fetcher Fetcher, cfg model.PacingConfig, rps float64, log echo.Sink) *Scheduler {
	return &Scheduler{fetcher: fetcher, cfg: cfg, rps: rps, log: log}
}

// Run fetches every batch and streams the returned records to handle.
// A batch-level terminal failure aborts the remaining schedule; rows
// already handled are not rolled back.
func (s *Scheduler) Run(ctx context.Context, ids []string, handle func(model.RemoteRecord) error) error {
	pacing := PlanPacing(len(ids), s.cfg.BatchSize, s.cfg.PauseThreshold, s.cfg.Pause)

	queryTime := entrez.EstimateQueryTime(pacing.NumQueries, s.rps)
	if pacing.NumPauses > 0 {
		s.log.Printf("%d queries exceed the %d-query load policy: pausing %s before every %d batches\n",
			pacing.NumQueries, s.cfg.PauseThreshold, pacing.Pause, pacing.PauseEvery)
		s.log.Printf("estimated query time %s, minimum total time %s\n",
			queryTime.Round(time.Second), (queryTime + pacing.TotalPauseTime()).Round(time.Second))
	}

	nextPause := pacing.PauseEvery
	batch := 0
	for start := 0; start < len(ids); start += pacing.BatchSize {
		batch++
		if pacing.PauseEvery > 0 && batch > nextPause {
			s.log.Printf("pausing %s to respect the remote load policy\n", pacing.Pause)
			if err := sleep(ctx, pacing.Pause); err != nil {
				return fmt.Errorf("pause interrupted: %v: %w", err, ErrQueryAborted)
			}
			nextPause += pacing.PauseEvery
		}

		stop := min(start+pacing.BatchSize, len(ids))
		s.log.Printf("fetching batch %d/%d (identifiers %d-%d of %d)\n",
			batch, pacing.NumQueries, start+1, stop, len(ids))

		records, err := s.fetcher.FetchBatch(ctx, ids[start:stop])
		if err != nil {
			return fmt.Errorf("batch %d of %d: %v: %w", batch, pacing.NumQueries, err, ErrQueryAborted)
		}
		for _, rec := range records {
			if err := handle(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// sleep blocks for d or until the context is canceled
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
