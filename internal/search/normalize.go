// Package search implements the query-side building blocks of the product
// pipeline: query normalization, category classification, result filtering,
// outbound link extraction, and price parsing. Everything here is pure and
// side-effect free; external calls live in the providers package.
package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// trailingNoiseRE matches trailing numeric noise tokens appended by clients,
// such as cache-busting 13-digit epoch timestamps ("کفش ورزشی 1716899123456").
// Only long digit runs are treated as noise so model numbers ("iphone 15")
// survive.
var trailingNoiseRE = regexp.MustCompile(`(\s+\d{8,})+$`)

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// folder performs Unicode case folding; scripts without case (Persian,
// Arabic) pass through unchanged.
var folder = cases.Fold()

// Normalize canonicalizes free-text user input into the stable cache key
// shared by all three cache tiers.
//
// It strips trailing numeric noise, trims, case-folds, and collapses internal
// whitespace. No stemming or translation happens here; that is deferred to
// the enrichment pipeline. The function is total and idempotent: it never
// fails on any input, and Normalize(Normalize(s)) == Normalize(s). Empty
// input is a caller error handled upstream, not here.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = trailingNoiseRE.ReplaceAllString(s, "")
	s = folder.String(s)
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}
