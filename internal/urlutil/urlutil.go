// Package urlutil holds small URL helpers shared across the engine.
package urlutil

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Host extracts the lowercase hostname from a raw URL (scheme, port and
// path stripped). IDN hostnames are converted to punycode so override
// lookups compare a single canonical form. Returns "" when the URL has no
// resolvable host.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	return host
}
