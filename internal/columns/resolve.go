// Package columns maps human-maintained spreadsheet headers onto the logical
// fields the ingestion layer needs.
package columns

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims a header and applies NFKC so spreadsheet artefacts such as
// non-breaking spaces and full-width letters compare like plain text.
func Normalize(header string) string {
	return strings.TrimSpace(norm.NFKC.String(header))
}

// fold lowercases for caseless comparison. Casers are stateful, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(Normalize(s))
}

// Resolve returns the column that best matches candidates. Matching runs in
// three tiers and the first tier with a hit wins:
//  1. exact, case-sensitive (candidate order)
//  2. case-insensitive (candidate order)
//  3. case-insensitive substring: the column contains a candidate (column order)
//
// The returned name is the normalised header, so "lat " resolves as "lat".
func Resolve(columns []string, candidates []string) (string, bool) {
	i := ResolveIndex(columns, candidates)
	if i < 0 {
		return "", false
	}
	return Normalize(columns[i]), true
}

// ResolveIndex is Resolve returning the column position, or -1.
func ResolveIndex(columns []string, candidates []string) int {
	normalized := make([]string, len(columns))
	folded := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = Normalize(c)
		folded[i] = fold(c)
	}

	for _, cand := range candidates {
		want := Normalize(cand)
		if want == "" {
			continue
		}
		for i := range columns {
			if normalized[i] == want {
				return i
			}
		}
	}

	for _, cand := range candidates {
		want := fold(cand)
		if want == "" {
			continue
		}
		for i := range columns {
			if folded[i] == want {
				return i
			}
		}
	}

	for i := range columns {
		if folded[i] == "" {
			continue
		}
		for _, cand := range candidates {
			want := fold(cand)
			if want != "" && strings.Contains(folded[i], want) {
				return i
			}
		}
	}

	return -1
}
