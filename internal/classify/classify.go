// Package classify recognizes accession numbers embedded in free-text
// sequence descriptions and maps them to the Entrez database they live in.
package classify

import (
	"regexp"
	"strings"

	"github.com/seqwell/isosrc/internal/echo"
	"github.com/seqwell/isosrc/internal/model"
)

// rule ties a named accession grammar to its logical database.
// Rules are tried in declaration order; the first match wins. The grammars
// are near-disjoint but not provably so, which is covered by a test rather
// than a runtime guard.
type rule struct {
	name    string
	pattern *regexp.Regexp
	db      model.Database
}

var rules = []rule{
	{"genbank-nucleotide", regexp.MustCompile(`\b([A-Z]{1,2}\d{5,8})(?:\.\d+)?\b`), model.DatabaseNucleotide},
	{"genbank-protein", regexp.MustCompile(`\b([A-Z]{3}\d{5,7})(?:\.\d+)?\b`), model.DatabaseProtein},
	{"wgs", regexp.MustCompile(`\b([A-Z]{4,6}\d{8,10})(?:\.\d+)?\b`), model.DatabaseNucleotide},
	{"uniprot", regexp.MustCompile(`\b([OPQ][0-9][A-Z0-9]{3}[0-9]|[A-NR-Z][0-9](?:[A-Z][A-Z0-9]{2}[0-9]){1,2})\b`), model.DatabaseProtein},
	{"refseq-nucleotide", regexp.MustCompile(`\b((?:AC|NC|NG|NT|NW|NZ|NM|NR|XM|XR)_[A-Z]{0,4}\d+)(?:\.\d+)?\b`), model.DatabaseNucleotide},
	{"refseq-protein", regexp.MustCompile(`\b((?:AP|NP|YP|XP|WP)_\d+)(?:\.\d+)?\b`), model.DatabaseProtein},
}

// Classify matches a description against the accession grammars and returns
// the accession found plus its database. ok is false when nothing matched.
func Classify(description string) (model.ClassifiedIdentifier, bool) {
	for _, r := range rules {
		if m := r.pattern.FindStringSubmatch(description); m != nil {
			return model.ClassifiedIdentifier{
				Accession: m[1],
				Format:    r.name,
				Database:  r.db,
			}, true
		}
	}
	return model.ClassifiedIdentifier{}, false
}

// Formats returns the names of the supported accession grammars,
// used in skip diagnostics.
func Formats() string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return strings.Join(names, ", ")
}

// Filter classifies every record's description and keeps the accessions
// that belong to the target database, preserving input order. Records with
// no recognizable accession or with an accession from the other database
// are skipped with a diagnostic, never an error.
func Filter(records []model.SequenceRecord, target model.Database, log echo.Sink) []model.ClassifiedIdentifier {
	var kept []model.ClassifiedIdentifier
	for _, rec := range records {
		id, ok := Classify(rec.Description)
		if !ok {
			log.Printf("skipping %q: no accession found (supported formats: %s)\n", rec.ID, Formats())
			continue
		}
		if id.Database != target {
			log.Printf("skipping %s: %s accession belongs to the %s database, not %s\n",
				id.Accession, id.Format, id.Database, target)
			continue
		}
		kept = append(kept, id)
	}
	return kept
}
