package pipeline

import (
	"strings"

	"github.com/seqwell/isosrc/internal/echo"
	"github.com/seqwell/isosrc/internal/model"
)

// Sentinels substituted when a source feature lacks an annotation
const (
	NoIsolationSource = "no isolation source"
	NoCountry         = "no country"
)

// ExtractSources scans the record's feature table for the first feature
// keyed "source" and returns two qualifier groups: isolation-source
// values, then country values. Missing qualifiers yield single-element
// sentinel groups. A record with no source feature yields nil.
func ExtractSources(rec model.RemoteRecord, log echo.Sink) [][]string {
	feat, ok := rec.SourceFeature()
	if !ok {
		return nil
	}

	sources := feat.Qualifiers["isolation_source"]
	if len(sources) == 0 {
		log.Printf("%s: source feature carries no isolation_source qualifier\n", rec.Accession)
		sources = []string{NoIsolationSource}
	}

	countries := feat.Qualifiers["country"]
	if len(countries) == 0 {
		// INSDC renamed /country to /geo_loc_name in 2024
		countries = feat.Qualifiers["geo_loc_name"]
	}
	if len(countries) == 0 {
		log.Printf("%s: source feature carries no country qualifier\n", rec.Accession)
		countries = []string{NoCountry}
	}

	return [][]string{sources, countries}
}

// JoinReferences flattens a record's reference list into one report cell.
// Non-empty parts of a reference join with ". ", references with " | ".
func JoinReferences(refs []model.Reference) string {
	var joined []string
	for _, ref := range refs {
		var parts []string
		for _, part := range []string{ref.Title, ref.Authors, ref.Journal} {
			if part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			joined = append(joined, strings.Join(parts, ". "))
		}
	}
	return strings.Join(joined, " | ")
}
