package fasta

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRead_BasicRecords(t *testing.T) {
	input := `>AB001440.1.1538 Bacillus subtilis
GATCCTCCATAGAGTTTGATCCTGGCTCAG
GACGAACGCTGGCGGCGTGC
>X81446.1 Homo sapiens mitochondrial DNA
AACCCTAACACCAGCCTAACCAGATTTCAA
`
	records, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if records[0].ID != "AB001440.1.1538" {
		t.Errorf("id: got %q", records[0].ID)
	}
	if records[0].Description != "AB001440.1.1538 Bacillus subtilis" {
		t.Errorf("description: got %q", records[0].Description)
	}
	if records[0].Length != 50 {
		t.Errorf("length: got %d", records[0].Length)
	}
	if records[1].ID != "X81446.1" {
		t.Errorf("second id: got %q", records[1].ID)
	}
}

func TestRead_SkipsBlankLines(t *testing.T) {
	input := ">seq1 first\nACGT\n\n\n>seq2 second\nACGTACGT\n"
	records, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Length != 8 {
		t.Errorf("length: got %d", records[1].Length)
	}
}

func TestRead_SequenceBeforeHeader(t *testing.T) {
	if _, err := Read(strings.NewReader("ACGT\n>seq1\nACGT\n")); err == nil {
		t.Fatal("expected an error for sequence data before the first header")
	}
}

func TestRead_Empty(t *testing.T) {
	if _, err := Read(strings.NewReader("")); err == nil {
		t.Fatal("expected an error for an empty stream")
	}
}

func TestReadFile_MissingFile(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.fasta")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestReadFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.fasta")
	if err := os.WriteFile(path, []byte(">seq1 something\nACGT\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	records, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "seq1" {
		t.Errorf("unexpected records: %v", records)
	}
}
