package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/seqwell/isosrc/internal/model"
)

// Aggregator streams report rows to the primary CSV while tallying the
// case-normalized isolation-source histogram. Rows are written in fetch
// order and flushed eagerly so an aborted run keeps everything already
// fetched.
type Aggregator struct {
	file        *os.File
	writer      *csv.Writer
	includeRefs bool
	counts      map[string]int
	order       []string // first-seen order, breaks histogram ties
	rows        int
}

// NewAggregator opens the report file and writes the header row
func NewAggregator(path string, includeRefs bool) (*Aggregator, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	w := csv.NewWriter(f)
	header := []string{"DESCRIPTION", "ACCESSION", "ISOLATION SOURCE", "COUNTRY"}
	if includeRefs {
		header = append(header, "REFERENCES")
	}
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	w.Flush()

	return &Aggregator{
		file:        f,
		writer:      w,
		includeRefs: includeRefs,
		counts:      make(map[string]int),
	}, nil
}

// Record appends one row and counts its lower-cased source values
func (a *Aggregator) Record(row model.IsolationSourceRow) error {
	fields := []string{
		row.Description,
		row.Accession,
		strings.Join(row.Sources, "; "),
		strings.Join(row.Countries, "; "),
	}
	if a.includeRefs {
		fields = append(fields, row.References)
	}
	if err := a.writer.Write(fields); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	a.writer.Flush()
	if err := a.writer.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}

	for _, src := range row.Sources {
		key := strings.ToLower(src)
		if _, seen := a.counts[key]; !seen {
			a.order = append(a.order, key)
		}
		a.counts[key]++
	}
	a.rows++
	return nil
}

// Rows returns the number of data rows written so far
func (a *Aggregator) Rows() int {
	return a.rows
}

// DistinctSources returns the number of distinct normalized sources
func (a *Aggregator) DistinctSources() int {
	return len(a.counts)
}

// WriteHistogram writes the headerless (source, count) histogram sorted
// by descending count, first-seen order breaking ties
func (a *Aggregator) WriteHistogram(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create histogram: %w", err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, len(a.order))
	copy(keys, a.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return a.counts[keys[i]] > a.counts[keys[j]]
	})

	w := csv.NewWriter(f)
	for _, key := range keys {
		if err := w.Write([]string{key, strconv.Itoa(a.counts[key])}); err != nil {
			return fmt.Errorf("write histogram row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush histogram: %w", err)
	}
	return nil
}

// Close flushes pending rows and releases the report file handle
func (a *Aggregator) Close() error {
	a.writer.Flush()
	err := a.writer.Error()
	if cerr := a.file.Close(); err == nil {
		err = cerr
	}
	return err
}
