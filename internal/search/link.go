package search

import (
	"net/url"
	"strings"
)

// searchEngineHosts are aggregator hosts we prefer not to send shoppers to;
// a direct store link is always better than a results page.
var searchEngineHosts = []string{
	"google.com", "google.com.tr", "bing.com", "yandex.com", "duckduckgo.com",
}

// ExtractLink selects a canonical outbound store link from a priority-ordered
// list of candidate link fields.
//
// Acceptance loosens progressively:
//  1. the first candidate that is an absolute http(s) URL on a non-search-
//     engine host;
//  2. failing that, the first candidate that is link-shaped at all (absolute
//     URL, protocol-relative, or a bare host with a dot);
//  3. failing that, a shopping search deep link built from query.
//
// The result is empty only when every candidate is empty and query is blank:
// given any non-empty link-shaped field, some navigable URL comes back.
func ExtractLink(candidates []string, query string) string {
	// Pass 1: direct store links.
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if u, err := url.Parse(c); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" && !isSearchEngine(u.Hostname()) {
			return c
		}
	}

	// Pass 2: anything link-shaped, search engines included.
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if linkShaped(c) {
			return absolutize(c)
		}
	}

	// Pass 3: search deep link.
	if strings.TrimSpace(query) != "" {
		return "https://www.google.com/search?tbm=shop&q=" + url.QueryEscape(query)
	}
	return ""
}

func isSearchEngine(host string) bool {
	h := strings.ToLower(strings.TrimPrefix(host, "www."))
	for _, se := range searchEngineHosts {
		if h == se || strings.HasSuffix(h, "."+se) {
			return true
		}
	}
	return false
}

// linkShaped reports whether s plausibly denotes a URL: absolute,
// protocol-relative, or a bare dotted host ("shop.example.com/item").
func linkShaped(s string) bool {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "//") {
		return true
	}
	head := s
	if i := strings.IndexByte(head, '/'); i >= 0 {
		head = head[:i]
	}
	return strings.Contains(head, ".") && !strings.ContainsAny(head, " \t")
}

// absolutize upgrades protocol-relative and bare-host links to https.
func absolutize(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	if strings.HasPrefix(s, "//") {
		return "https:" + s
	}
	return "https://" + s
}
