package search

import (
	"net/url"
	"strings"
)

// excludedKeywords rejects whole item categories the storefront does not
// carry (adult/underwear) regardless of the query.
var excludedKeywords = []string{
	"iç çamaşırı", "külot", "sütyen", "boxer", "lingerie",
	"underwear", "bra", "panties",
	"لباس زیر", "شورت", "سوتین",
}

// accessoryOnlyExclusions rejects complete systems when the storefront only
// resells accessories for the category (e.g. a full desktop PC showing up in
// a "keyboard" search).
var accessoryOnlyExclusions = []string{
	"masaüstü bilgisayar", "hazır sistem", "gaming pc",
	"desktop computer", "complete pc", "all-in-one pc",
	"کامپیوتر کامل", "کیس کامل",
}

// FilterOptions controls result filtering for one enrichment run.
type FilterOptions struct {
	// AllowedDomains, when non-empty, requires the item's outbound link host
	// (or a parent domain) to be on the list.
	AllowedDomains []string
	// AccessoriesOnly additionally applies accessoryOnlyExclusions.
	AccessoriesOnly bool
}

// Acceptable reports whether an item title passes the exclusion keyword
// lists. Matching is lowercase containment, same as classification.
func Acceptable(title string, opts FilterOptions) bool {
	t := strings.ToLower(title)
	for _, kw := range excludedKeywords {
		if strings.Contains(t, kw) {
			return false
		}
	}
	if opts.AccessoriesOnly {
		for _, kw := range accessoryOnlyExclusions {
			if strings.Contains(t, kw) {
				return false
			}
		}
	}
	return true
}

// DomainAllowed reports whether rawLink's host is covered by the allowlist.
// An empty allowlist allows everything. Unparseable links are rejected only
// when an allowlist is in force.
func DomainAllowed(rawLink string, opts FilterOptions) bool {
	if len(opts.AllowedDomains) == 0 {
		return true
	}
	u, err := url.Parse(rawLink)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for _, d := range opts.AllowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
