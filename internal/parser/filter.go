package parser

import "strings"

// FilterLinks reduces raw anchor href values to paths on domain.
//
// Rules:
//  1. Empty values are discarded
//  2. Values starting with "/" are accepted verbatim
//  3. Absolute values are accepted only if their network location equals
//     domain exactly, reduced to their path as written ("/" when empty)
//  4. Everything else is discarded
//
// The result is deduplicated and keeps first-seen order. Filtering an
// already-filtered slice returns it unchanged.
//
// Design decision: Host comparison is exact (no case folding, no "www."
// stripping, no port normalization) so that subdomains are never crawled as
// part of the target domain.
func FilterLinks(links []string, domain string) []string {
	seen := make(map[string]bool, len(links))
	filtered := make([]string, 0, len(links))

	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		filtered = append(filtered, path)
	}

	for _, link := range links {
		if link == "" {
			continue
		}
		if strings.HasPrefix(link, "/") {
			add(link)
			continue
		}

		netloc, path, ok := splitURL(link)
		if !ok || netloc != domain {
			continue
		}
		if path == "" {
			path = "/"
		}
		add(path)
	}

	return filtered
}

// splitURL splits an absolute "scheme://netloc/path?query#fragment" value
// into its network location and its path, both exactly as written. Paths
// are neither decoded nor re-escaped, so malformed escapes survive here and
// are rejected later by the fetcher.
func splitURL(link string) (netloc, path string, ok bool) {
	scheme, rest, found := strings.Cut(link, ":")
	if !found || !validScheme(scheme) || !strings.HasPrefix(rest, "//") {
		return "", "", false
	}
	rest = rest[2:]

	end := strings.IndexAny(rest, "/?#")
	if end < 0 {
		return rest, "", true
	}
	netloc, rest = rest[:end], rest[end:]

	if end := strings.IndexAny(rest, "?#"); end >= 0 {
		rest = rest[:end]
	}
	return netloc, rest, true
}

// validScheme reports whether s is a URL scheme: a letter followed by
// letters, digits, "+", "-" or ".".
func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}
