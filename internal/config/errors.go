package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and ValidateDomain().
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrInvalidDomain is returned when the domain is not a bare hostname
	// such as "example.com". URLs, paths, ports and single labels are rejected.
	ErrInvalidDomain = errors.New("invalid domain: expected a bare hostname such as example.com")

	// ErrNoOutputFile is returned when no output file is given.
	ErrNoOutputFile = errors.New("no output file specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidParsers is returned when the parse pool size is not positive.
	ErrInvalidParsers = errors.New("invalid parser count: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to select the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidProxy is returned when the proxy is not a socks5:// URL.
	ErrInvalidProxy = errors.New("invalid proxy: expected socks5://host:port")

	// ErrNoDBDir is returned when the database is enabled without a directory.
	ErrNoDBDir = errors.New("database enabled but no database directory set")
)
