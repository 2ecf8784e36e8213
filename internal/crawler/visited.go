package crawler

import "sort"

// VisitedSet records every path the driver has accepted or discarded by
// policy. It only grows. It is owned by the driver goroutine.
type VisitedSet struct {
	paths map[string]struct{}
}

// NewVisitedSet creates an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{paths: make(map[string]struct{})}
}

// Add inserts path and reports whether it was new.
func (v *VisitedSet) Add(path string) bool {
	if _, ok := v.paths[path]; ok {
		return false
	}
	v.paths[path] = struct{}{}
	return true
}

// Contains reports whether path has been visited.
func (v *VisitedSet) Contains(path string) bool {
	_, ok := v.paths[path]
	return ok
}

// Len returns the number of visited paths.
func (v *VisitedSet) Len() int {
	return len(v.paths)
}

// Paths returns the visited paths in lexical order.
func (v *VisitedSet) Paths() []string {
	out := make([]string, 0, len(v.paths))
	for p := range v.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
