package pipeline

import "errors"

// Run-terminating error kinds. Callers pick continue-vs-abort per kind;
// only these and batch-fatal aborts affect the process outcome code.
var (
	ErrMissingInput  = errors.New("input path does not exist")
	ErrNoRecords     = errors.New("no sequence records loaded")
	ErrNoIdentifiers = errors.New("no supported accession numbers found")
	ErrQueryAborted  = errors.New("query aborted")
)

// ExitCode maps an error to the process outcome code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrMissingInput):
		return 2
	case errors.Is(err, ErrNoRecords):
		return 3
	case errors.Is(err, ErrNoIdentifiers):
		return 4
	case errors.Is(err, ErrQueryAborted):
		return 5
	default:
		return 1
	}
}
