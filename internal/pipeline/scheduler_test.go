package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/seqwell/isosrc/internal/echo"
	"github.com/seqwell/isosrc/internal/model"
)

// fakeFetcher records the batches it was asked for and replays canned
// responses per batch index
type fakeFetcher struct {
	batches [][]string
	respond func(batch int, ids []string) ([]model.RemoteRecord, error)
}

func (f *fakeFetcher) FetchBatch(ctx context.Context, ids []string) ([]model.RemoteRecord, error) {
	batch := len(f.batches)
	f.batches = append(f.batches, append([]string(nil), ids...))
	if f.respond == nil {
		records := make([]model.RemoteRecord, len(ids))
		for i, id := range ids {
			records[i] = model.RemoteRecord{Accession: id}
		}
		return records, nil
	}
	return f.respond(batch, ids)
}

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("AB%06d", i)
	}
	return ids
}

func TestPlanPacing_BelowThreshold(t *testing.T) {
	p := PlanPacing(45, 20, 100, time.Minute)
	if p.NumQueries != 3 {
		t.Errorf("expected 3 queries, got %d", p.NumQueries)
	}
	if p.NumPauses != 0 || p.PauseEvery != 0 {
		t.Errorf("no pausing expected below threshold, got %+v", p)
	}
	if p.TotalPauseTime() != 0 {
		t.Errorf("expected zero pause time")
	}
}

func TestPlanPacing_AboveThreshold(t *testing.T) {
	// 250 queries over a threshold of 100: 2 pauses spread over the run
	p := PlanPacing(5000, 20, 100, 2*time.Minute)
	if p.NumQueries != 250 {
		t.Fatalf("expected 250 queries, got %d", p.NumQueries)
	}
	if p.NumPauses != 2 {
		t.Errorf("expected 2 pauses, got %d", p.NumPauses)
	}
	// 250/(2+1)+1 = 84: pauses spread evenly, not clustered at 100
	if p.PauseEvery != 84 {
		t.Errorf("expected pause every 84 batches, got %d", p.PauseEvery)
	}
	if p.TotalPauseTime() != 4*time.Minute {
		t.Errorf("expected 4m total pause time, got %s", p.TotalPauseTime())
	}
}

func TestPlanPacing_DefaultBatchSize(t *testing.T) {
	p := PlanPacing(100, 0, 100, time.Minute)
	if p.BatchSize != 20 || p.NumQueries != 5 {
		t.Errorf("expected default batch size 20, got %+v", p)
	}
}

func TestScheduler_PartitionsInOrder(t *testing.T) {
	ids := makeIDs(45)
	fetcher := &fakeFetcher{}
	s := NewScheduler(fetcher, model.PacingConfig{BatchSize: 20, PauseThreshold: 100, Pause: time.Minute}, 3, echo.Discard())

	var seen []string
	err := s.Run(context.Background(), ids, func(rec model.RemoteRecord) error {
		seen = append(seen, rec.Accession)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(fetcher.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(fetcher.batches))
	}
	if len(fetcher.batches[0]) != 20 || len(fetcher.batches[1]) != 20 || len(fetcher.batches[2]) != 5 {
		t.Errorf("unexpected batch sizes: %d, %d, %d",
			len(fetcher.batches[0]), len(fetcher.batches[1]), len(fetcher.batches[2]))
	}

	// every identifier exactly once, in original order
	if len(seen) != len(ids) {
		t.Fatalf("expected %d records, got %d", len(ids), len(seen))
	}
	for i, id := range ids {
		if seen[i] != id {
			t.Fatalf("order broken at %d: got %s want %s", i, seen[i], id)
		}
	}
}

func TestScheduler_EmptyBatchIsSkipped(t *testing.T) {
	ids := makeIDs(40)
	fetcher := &fakeFetcher{
		respond: func(batch int, batchIDs []string) ([]model.RemoteRecord, error) {
			if batch == 0 {
				return nil, nil // remote search matched nothing
			}
			records := make([]model.RemoteRecord, len(batchIDs))
			for i, id := range batchIDs {
				records[i] = model.RemoteRecord{Accession: id}
			}
			return records, nil
		},
	}
	s := NewScheduler(fetcher, model.PacingConfig{BatchSize: 20, PauseThreshold: 100, Pause: time.Minute}, 3, echo.Discard())

	count := 0
	err := s.Run(context.Background(), ids, func(model.RemoteRecord) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("empty batch must not abort the run: %v", err)
	}
	if len(fetcher.batches) != 2 {
		t.Errorf("expected both batches attempted, got %d", len(fetcher.batches))
	}
	if count != 20 {
		t.Errorf("expected 20 records from the second batch, got %d", count)
	}
}

func TestScheduler_BatchFailureAbortsRemaining(t *testing.T) {
	ids := makeIDs(60)
	fetcher := &fakeFetcher{
		respond: func(batch int, batchIDs []string) ([]model.RemoteRecord, error) {
			if batch == 1 {
				return nil, errors.New("search query failed: retries exhausted")
			}
			return []model.RemoteRecord{{Accession: batchIDs[0]}}, nil
		},
	}
	s := NewScheduler(fetcher, model.PacingConfig{BatchSize: 20, PauseThreshold: 100, Pause: time.Minute}, 3, echo.Discard())

	count := 0
	err := s.Run(context.Background(), ids, func(model.RemoteRecord) error {
		count++
		return nil
	})
	if err == nil {
		t.Fatal("expected an abort error")
	}
	if !errors.Is(err, ErrQueryAborted) {
		t.Errorf("expected ErrQueryAborted, got %v", err)
	}
	if len(fetcher.batches) != 2 {
		t.Errorf("remaining batches must not be attempted, got %d", len(fetcher.batches))
	}
	if count != 1 {
		t.Errorf("records before the failure are kept, got %d", count)
	}
}

func TestScheduler_PausesSpreadOverRun(t *testing.T) {
	// 6 queries, threshold 2: 3 pauses, pause every 6/(3+1)+1 = 2 batches
	ids := makeIDs(6)
	fetcher := &fakeFetcher{}
	s := NewScheduler(fetcher, model.PacingConfig{BatchSize: 1, PauseThreshold: 2, Pause: 10 * time.Millisecond}, 3, echo.Discard())

	start := time.Now()
	if err := s.Run(context.Background(), ids, func(model.RemoteRecord) error { return nil }); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	elapsed := time.Since(start)

	p := PlanPacing(6, 1, 2, 10*time.Millisecond)
	if p.NumPauses != 3 || p.PauseEvery != 2 {
		t.Fatalf("unexpected pacing: %+v", p)
	}
	// pauses fire before batches 3 and 5: two sleeps within this run
	if elapsed < 20*time.Millisecond {
		t.Errorf("expected at least two pauses, elapsed %s", elapsed)
	}
}

func TestScheduler_CancellationStopsPause(t *testing.T) {
	ids := makeIDs(4)
	fetcher := &fakeFetcher{}
	s := NewScheduler(fetcher, model.PacingConfig{BatchSize: 1, PauseThreshold: 1, Pause: time.Hour}, 3, echo.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := s.Run(ctx, ids, func(model.RemoteRecord) error { return nil })
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, ErrQueryAborted) {
		t.Errorf("expected ErrQueryAborted, got %v", err)
	}
}
