package fetch

import (
	"errors"
	"fmt"
)

// Fetch errors.
// Callers can distinguish policy outcomes from transport failures with
// errors.Is, although the crawler treats all of them as "no content".
var (
	// ErrDisallowed is returned when robots.txt forbids crawling the path.
	ErrDisallowed = errors.New("disallowed by robots.txt")

	// ErrNotHTML is returned when the HEAD response is not text/html.
	ErrNotHTML = errors.New("content type is not text/html")

	// ErrInvalidPath is returned when the path does not start with "/" or
	// cannot be parsed.
	ErrInvalidPath = errors.New("invalid path: must start with /")

	// ErrOffSite is returned when a path or a redirect would leave the
	// crawled host.
	ErrOffSite = errors.New("target is outside the crawled host")

	// ErrInvalidProxy is returned when the proxy URL cannot be used.
	ErrInvalidProxy = errors.New("invalid proxy URL: expected socks5://host:port")
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	// Method is the HTTP method of the failed request.
	Method string

	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status returned by the server.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// IsPolicy reports whether err is a policy outcome (robots, content type or
// host scope) rather than a failure.
func IsPolicy(err error) bool {
	return errors.Is(err, ErrDisallowed) || errors.Is(err, ErrNotHTML) || errors.Is(err, ErrOffSite)
}
