// Package fasta contains a minimal streaming parser for FASTA formatted
// sequence files. Headers are kept verbatim: downstream classification
// works on the raw description.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/seqwell/isosrc/internal/model"
)

// Read parses FASTA records from r. Lines beginning with '>' start a new
// record; sequence lines only contribute to the record's length.
func Read(r io.Reader) ([]model.SequenceRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var records []model.SequenceRecord
	var current *model.SequenceRecord

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if current != nil {
				records = append(records, *current)
			}
			header := strings.TrimSpace(line[1:])
			current = &model.SequenceRecord{
				ID:          firstField(header),
				Description: header,
			}
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("sequence data before first header")
		}
		current.Length += len(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if current != nil {
		records = append(records, *current)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no FASTA records found")
	}
	return records, nil
}

// ReadFile parses one FASTA file from disk
func ReadFile(path string) ([]model.SequenceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

func firstField(header string) string {
	if fields := strings.Fields(header); len(fields) > 0 {
		return fields[0]
	}
	return header
}
