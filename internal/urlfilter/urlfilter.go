// Package urlfilter decides whether a navigation target is eligible for a
// reputation check at all. Browser-internal pages are not network-fetchable
// and must never be redirected, so the filter runs before anything else in
// the gating path.
package urlfilter

import "strings"

// skipSchemes are URL prefixes that are never checked: browser-internal
// pages, extension pages and non-navigable schemes.
var skipSchemes = []string{
	"chrome://",
	"chrome-extension://",
	"edge://",
	"moz-extension://",
	"about:",
	"data:",
	"javascript:",
	"file://",
}

// skipPages are the fixed new-tab / blank special pages, matched by prefix.
var skipPages = []string{
	"chrome://new-tab-page/",
	"chrome://newtab/",
	"chrome://startpageshared/",
	"about:blank",
	"about:newtab",
}

// Eligible reports whether url is a candidate for classification. It returns
// true for any ordinary http/https URL regardless of reachability. Pure
// function: no side effects, no I/O.
func Eligible(url string) bool {
	if url == "" {
		return false
	}

	lower := strings.ToLower(url)

	for _, scheme := range skipSchemes {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	for _, page := range skipPages {
		if lower == page || strings.HasPrefix(lower, page) {
			return false
		}
	}
	return true
}
