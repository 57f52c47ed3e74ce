package entrez

import (
	"errors"
	"fmt"

	"github.com/seqwell/isosrc/internal/echo"
)

// ErrRetriesExhausted marks a terminal failure after the attempt budget
// was spent. The underlying cause is preserved in the log stream only.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Retrier re-runs a fallible operation up to a fixed attempt budget.
// No backoff between attempts: pacing toward the remote service happens
// at the batch level, not here.
type Retrier struct {
	attempts int
	log      echo.Sink
}

// NewRetrier creates a retrier with the given attempt budget
func NewRetrier(attempts int, log echo.Sink) *Retrier {
	if attempts <= 0 {
		attempts = 1
	}
	return &Retrier{attempts: attempts, log: log}
}

// Do invokes op until it succeeds or the budget is exhausted. Failures
// before the last attempt are logged and swallowed. The terminal error
// carries only msg so callers never see transport detail.
func (r *Retrier) Do(msg string, op func() error) error {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		r.log.Printf("%s (attempt %d/%d): %v\n", msg, attempt, r.attempts, err)
	}
	return fmt.Errorf("%s: %w", msg, ErrRetriesExhausted)
}
