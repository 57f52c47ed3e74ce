package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/seqwell/isosrc/internal/model"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestAggregator_ReportAndHistogram(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.csv")
	histogram := filepath.Join(dir, "stats.csv")

	agg, err := NewAggregator(report, true)
	if err != nil {
		t.Fatalf("NewAggregator failed: %v", err)
	}

	rows := []model.IsolationSourceRow{
		{Description: "rec one", Accession: "A1", Sources: []string{"Soil"}, Countries: []string{"Japan"}, References: "ref one"},
		{Description: "rec two", Accession: "A2", Sources: []string{"soil"}, Countries: []string{"Norway"}},
		{Description: "rec three", Accession: "A3", Sources: []string{"sea water"}, Countries: []string{"Iceland"}},
		{Description: "rec four", Accession: "A4", Sources: []string{"SOIL"}, Countries: []string{"Japan"}},
		{Description: "rec five", Accession: "A5", Sources: []string{"sediment"}, Countries: []string{"Chile"}},
	}
	for _, row := range rows {
		if err := agg.Record(row); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := agg.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := agg.WriteHistogram(histogram); err != nil {
		t.Fatalf("WriteHistogram failed: %v", err)
	}

	got := readCSV(t, report)
	if len(got) != 6 {
		t.Fatalf("expected header + 5 rows, got %d", len(got))
	}
	wantHeader := []string{"DESCRIPTION", "ACCESSION", "ISOLATION SOURCE", "COUNTRY", "REFERENCES"}
	for i, col := range wantHeader {
		if got[0][i] != col {
			t.Errorf("header[%d]: got %q want %q", i, got[0][i], col)
		}
	}
	if got[1][4] != "ref one" || got[2][4] != "" {
		t.Errorf("references column wrong: %v %v", got[1], got[2])
	}

	// histogram: case-normalized counts, descending, ties by first seen
	hist := readCSV(t, histogram)
	want := [][]string{
		{"soil", "3"},
		{"sea water", "1"},
		{"sediment", "1"},
	}
	if len(hist) != len(want) {
		t.Fatalf("expected %d histogram rows, got %d: %v", len(want), len(hist), hist)
	}
	for i := range want {
		if hist[i][0] != want[i][0] || hist[i][1] != want[i][1] {
			t.Errorf("histogram[%d]: got %v want %v", i, hist[i], want[i])
		}
	}

	if agg.Rows() != 5 {
		t.Errorf("Rows: got %d", agg.Rows())
	}
	if agg.DistinctSources() != 3 {
		t.Errorf("DistinctSources: got %d", agg.DistinctSources())
	}
}

func TestAggregator_SuppressedReferences(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.csv")

	agg, err := NewAggregator(report, false)
	if err != nil {
		t.Fatalf("NewAggregator failed: %v", err)
	}
	err = agg.Record(model.IsolationSourceRow{
		Description: "rec", Accession: "A1",
		Sources: []string{"soil"}, Countries: []string{"Japan"},
		References: "must not appear",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := agg.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got := readCSV(t, report)
	if len(got[0]) != 4 {
		t.Errorf("expected 4 header columns, got %v", got[0])
	}
	if len(got[1]) != 4 {
		t.Errorf("expected 4 data columns, got %v", got[1])
	}
}

func TestAggregator_MultiValueGroups(t *testing.T) {
	dir := t.TempDir()
	agg, err := NewAggregator(filepath.Join(dir, "report.csv"), false)
	if err != nil {
		t.Fatalf("NewAggregator failed: %v", err)
	}
	err = agg.Record(model.IsolationSourceRow{
		Description: "rec", Accession: "A1",
		Sources:   []string{"soil", "rhizosphere"},
		Countries: []string{"Japan"},
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := agg.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// every source value counts once: one (record, source) pair each
	if agg.DistinctSources() != 2 {
		t.Errorf("expected 2 distinct sources, got %d", agg.DistinctSources())
	}

	got := readCSV(t, filepath.Join(dir, "report.csv"))
	if got[1][2] != "soil; rhizosphere" {
		t.Errorf("joined source cell: got %q", got[1][2])
	}
}
