package ingest

import "strings"

// MatchesAllowlist reports whether the caller's Origin or Referer header
// contains at least one allowlisted hostname. An empty allowlist always
// passes.
//
// Matching is substring containment, not a full URL parse. This is a
// deliberate relaxed-match policy: it tolerates schemes, ports, paths and
// query strings from no-code form builders without per-entry configuration.
// The known consequence is that an allowlist entry like "example.com.br" also
// matches "notexample.com.br"; tightening to exact host matching is an open
// hardening question and must not be changed silently.
func MatchesAllowlist(origin, referer string, allowlist []string) bool {
	if len(allowlist) == 0 {
		return true
	}
	origin = strings.ToLower(origin)
	referer = strings.ToLower(referer)
	for _, host := range allowlist {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		if strings.Contains(origin, host) || strings.Contains(referer, host) {
			return true
		}
	}
	return false
}
