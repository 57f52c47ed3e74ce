package model

// Database identifies the logical Entrez collection an accession belongs to
type Database string

const (
	DatabaseNucleotide Database = "nucleotide"
	DatabaseProtein    Database = "protein"
)

// Valid reports whether the database is one of the supported targets
func (d Database) Valid() bool {
	return d == DatabaseNucleotide || d == DatabaseProtein
}

// SequenceRecord is one record loaded from an input sequence file
type SequenceRecord struct {
	ID          string // first whitespace-delimited token of the header
	Description string // full header line, accession usually embedded here
	Length      int    // sequence length in bases
}

// ClassifiedIdentifier is an accession number recognized in a description
// together with the logical database its grammar belongs to
type ClassifiedIdentifier struct {
	Accession string
	Format    string // name of the pattern rule that matched
	Database  Database
}

// Feature is one entry of a GenBank feature table
type Feature struct {
	Key        string              // feature key, e.g. "source", "CDS"
	Location   string              // raw location string
	Qualifiers map[string][]string // qualifier name -> values, repeats preserved
}

// Reference is one literature reference attached to a GenBank record
type Reference struct {
	Authors string
	Title   string
	Journal string
}

// RemoteRecord is a record fetched from the remote service for one batch
type RemoteRecord struct {
	Accession  string
	Version    string
	Definition string
	Features   []Feature
	References []Reference
}

// SourceFeature returns the first feature keyed "source", if any
func (r RemoteRecord) SourceFeature() (Feature, bool) {
	for _, f := range r.Features {
		if f.Key == "source" {
			return f, true
		}
	}
	return Feature{}, false
}

// IsolationSourceRow is one line of the primary report
type IsolationSourceRow struct {
	Description string
	Accession   string
	Sources     []string // isolation_source qualifier values (or a sentinel)
	Countries   []string // country qualifier values (or a sentinel)
	References  string   // pre-joined reference column, empty when suppressed
}
