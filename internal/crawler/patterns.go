package crawler

import (
	"path"
	"strings"
)

// PathFilter decides whether a popped path may be crawled based on glob
// patterns. The zero value allows every path.
type PathFilter struct {
	// Ignore patterns reject matching paths.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
	Ignore []string

	// Follow patterns, when non-empty, restrict crawling to matching paths.
	Follow []string
}

// Empty reports whether the filter has no patterns.
func (f PathFilter) Empty() bool {
	return len(f.Ignore) == 0 && len(f.Follow) == 0
}

// Allow reports whether p should be crawled.
// Ignore patterns are checked first. The seed path "/" is matched like any
// other path, so a follow list should include it when the root matters.
func (f PathFilter) Allow(p string) bool {
	// Query strings never take part in matching.
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		p = "/"
	}

	for _, pattern := range f.Ignore {
		if matchPattern(pattern, p) {
			return false
		}
	}

	if len(f.Follow) == 0 {
		return true
	}
	for _, pattern := range f.Follow {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// matchPattern checks if a URL path matches a glob pattern.
//
// Supported forms:
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - anything else uses path.Match, and slash-free patterns are also tried
//     against the last path segment
func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(p, prefix+"/") || p == prefix {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?[") {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}

	if matched, err := path.Match(pattern, p); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := path.Match(pattern, path.Base(p)); err == nil && matched {
			return true
		}
	}
	return false
}
