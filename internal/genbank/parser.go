// Package genbank parses GenBank flat-file text as returned by an EFetch
// call with rettype=gb. Only the parts the pipeline consumes are kept:
// definition, accession/version, references and the feature table.
package genbank

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/seqwell/isosrc/internal/model"
)

// Flat-file column conventions: top-level keywords occupy the first 12
// columns, feature keys start at column 6, qualifiers at column 22.
const (
	continuationIndent = "            "
	featureIndent      = "     "
	qualifierIndent    = "                     "
)

// Parse reads zero or more flat-file records from r
func Parse(r io.Reader) ([]model.RemoteRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []model.RemoteRecord
	var rec *model.RemoteRecord
	var ref *model.Reference
	var feat *model.Feature
	var topKey string  // keyword whose continuation lines we are in
	var lastQual string // qualifier receiving multi-line values
	inFeatures := false
	skipping := false // inside ORIGIN/CONTIG sequence data

	flushFeature := func() {
		if rec != nil && feat != nil {
			rec.Features = append(rec.Features, *feat)
		}
		feat = nil
		lastQual = ""
	}
	flushReference := func() {
		if rec != nil && ref != nil {
			rec.References = append(rec.References, *ref)
		}
		ref = nil
	}
	flushRecord := func() {
		flushFeature()
		flushReference()
		if rec != nil {
			records = append(records, *rec)
		}
		rec = nil
		topKey = ""
		inFeatures = false
		skipping = false
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "//"):
			flushRecord()

		case strings.HasPrefix(line, "LOCUS"):
			flushRecord()
			rec = &model.RemoteRecord{}

		case rec == nil || line == "":
			// release-file header noise between records

		case strings.HasPrefix(line, "ORIGIN"), strings.HasPrefix(line, "CONTIG"):
			flushFeature()
			inFeatures = false
			skipping = true
			topKey = ""

		case skipping:
			// sequence lines until the record terminator

		case strings.HasPrefix(line, "FEATURES"):
			flushReference()
			inFeatures = true
			topKey = ""

		case inFeatures && strings.HasPrefix(line, qualifierIndent):
			text := strings.TrimSpace(line)
			if feat == nil {
				continue
			}
			if strings.HasPrefix(text, "/") {
				name, value := splitQualifier(text)
				feat.Qualifiers[name] = append(feat.Qualifiers[name], value)
				lastQual = name
			} else if lastQual != "" {
				// continuation of a multi-line qualifier value
				vals := feat.Qualifiers[lastQual]
				vals[len(vals)-1] = strings.TrimSpace(vals[len(vals)-1] + " " + trimQuotes(text))
			}

		case inFeatures && strings.HasPrefix(line, featureIndent) && len(line) > 5 && line[5] != ' ':
			flushFeature()
			fields := strings.Fields(line)
			feat = &model.Feature{
				Key:        fields[0],
				Qualifiers: make(map[string][]string),
			}
			if len(fields) > 1 {
				feat.Location = fields[1]
			}

		case strings.HasPrefix(line, "DEFINITION"):
			rec.Definition = rest(line, "DEFINITION")
			topKey = "DEFINITION"

		case strings.HasPrefix(line, "ACCESSION"):
			rec.Accession = firstField(rest(line, "ACCESSION"))
			topKey = ""

		case strings.HasPrefix(line, "VERSION"):
			rec.Version = firstField(rest(line, "VERSION"))
			topKey = ""

		case strings.HasPrefix(line, "REFERENCE"):
			flushReference()
			ref = &model.Reference{}
			topKey = ""

		case strings.HasPrefix(line, "  AUTHORS") && ref != nil:
			ref.Authors = rest(line, "  AUTHORS")
			topKey = "AUTHORS"

		case strings.HasPrefix(line, "  TITLE") && ref != nil:
			ref.Title = rest(line, "  TITLE")
			topKey = "TITLE"

		case strings.HasPrefix(line, "  JOURNAL") && ref != nil:
			ref.Journal = rest(line, "  JOURNAL")
			topKey = "JOURNAL"

		case strings.HasPrefix(line, continuationIndent):
			appendContinuation(rec, ref, topKey, strings.TrimSpace(line))

		default:
			// keyword we do not consume (SOURCE, KEYWORDS, COMMENT, ...)
			topKey = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan flatfile: %w", err)
	}

	// tolerate a missing terminator on the last record
	flushRecord()

	if len(records) == 0 {
		return nil, fmt.Errorf("no records in flatfile payload")
	}
	return records, nil
}

// splitQualifier parses `/name="value"` or the bare-flag form `/name`
func splitQualifier(text string) (string, string) {
	text = strings.TrimPrefix(text, "/")
	name, value, found := strings.Cut(text, "=")
	if !found {
		return name, ""
	}
	return name, trimQuotes(value)
}

func trimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// rest returns the value part of a keyword line
func rest(line, keyword string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, keyword))
}

func firstField(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}

// appendContinuation folds a 12-space continuation line into the field
// currently being collected
func appendContinuation(rec *model.RemoteRecord, ref *model.Reference, topKey, text string) {
	switch topKey {
	case "DEFINITION":
		rec.Definition += " " + text
	case "AUTHORS":
		if ref != nil {
			ref.Authors += " " + text
		}
	case "TITLE":
		if ref != nil {
			ref.Title += " " + text
		}
	case "JOURNAL":
		if ref != nil {
			ref.Journal += " " + text
		}
	}
}
