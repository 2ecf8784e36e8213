package crawler

import "testing"

// TestMatchPattern tests glob matching on URL paths.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "directory pattern matches child", pattern: "/admin/*", path: "/admin/users", want: true},
		{name: "directory pattern matches nested", pattern: "/admin/*", path: "/admin/users/1", want: true},
		{name: "directory pattern matches itself", pattern: "/admin/*", path: "/admin", want: true},
		{name: "directory pattern rejects sibling", pattern: "/admin/*", path: "/administrator", want: false},
		{name: "extension pattern", pattern: "*.pdf", path: "/docs/manual.pdf", want: true},
		{name: "extension pattern rejects other", pattern: "*.pdf", path: "/docs/manual.html", want: false},
		{name: "prefix glob", pattern: "/logout*", path: "/logout-now", want: true},
		{name: "exact", pattern: "/about", path: "/about", want: true},
		{name: "exact mismatch", pattern: "/about", path: "/about/team", want: false},
		{name: "segment glob", pattern: "draft-*", path: "/blog/draft-1", want: true},
		{name: "bad pattern", pattern: "[", path: "/[", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, expected %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

// TestPathFilter tests ignore and follow precedence.
func TestPathFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter PathFilter
		path   string
		want   bool
	}{
		{name: "zero value allows all", filter: PathFilter{}, path: "/anything", want: true},
		{name: "ignored", filter: PathFilter{Ignore: []string{"/private/*"}}, path: "/private/x", want: false},
		{name: "not ignored", filter: PathFilter{Ignore: []string{"/private/*"}}, path: "/public", want: true},
		{name: "follow match", filter: PathFilter{Follow: []string{"/", "/blog/*"}}, path: "/blog/post", want: true},
		{name: "follow root", filter: PathFilter{Follow: []string{"/", "/blog/*"}}, path: "/", want: true},
		{name: "follow miss", filter: PathFilter{Follow: []string{"/blog/*"}}, path: "/shop", want: false},
		{
			name:   "ignore beats follow",
			filter: PathFilter{Ignore: []string{"/blog/drafts/*"}, Follow: []string{"/blog/*"}},
			path:   "/blog/drafts/1",
			want:   false,
		},
		{name: "query ignored for matching", filter: PathFilter{Ignore: []string{"/search"}}, path: "/search?q=go", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.filter.Allow(tt.path); got != tt.want {
				t.Errorf("Allow(%q) = %v, expected %v", tt.path, got, tt.want)
			}
		})
	}

	if !(PathFilter{}).Empty() {
		t.Error("expected zero filter to be empty")
	}
}
