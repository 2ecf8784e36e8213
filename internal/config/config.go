package config

import (
	"net/url"
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitecrawl"

	// DefaultTimeout bounds each HTTP request. Public websites normally
	// answer well within this; slow pages are reported as having no content.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the crawler in HTTP requests and selects
	// the matching robots.txt group.
	DefaultUserAgent = "sitecrawl/1.0 (+https://github.com/nao1215/sitecrawl)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory exhaustion.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// DefaultParsers is the default size of the parse worker pool.
var DefaultParsers = runtime.NumCPU()

// Config holds all configuration options for a crawl.
// It is populated from CLI flags and passed through the application via
// dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable.
type Config struct {
	// Domain is the host to crawl, e.g. "example.com".
	// Validate normalizes it to lowercase ASCII.
	Domain string

	// OutputFile receives one line per crawled page. It is truncated at start.
	OutputFile string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Parsers is the number of HTML parse workers.
	Parsers int

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// IgnoreRobots disables robots.txt checks.
	IgnoreRobots bool

	// ProxyURL is an optional SOCKS5 proxy, e.g. "socks5://127.0.0.1:1080".
	ProxyURL string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// DBDir is the directory holding the SQLite database.
	// Defaults to XDG data directory (~/.local/share/sitecrawl on Linux).
	DBDir string

	// SaveToDB records the run and its pages in the database.
	SaveToDB bool

	// SummaryFile, when set, receives a Markdown summary of the run.
	SummaryFile string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		Parsers:     DefaultParsers,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for sitecrawl.
// On Linux: ~/.local/share/sitecrawl
// On macOS: ~/Library/Application Support/sitecrawl
// On Windows: %LOCALAPPDATA%\sitecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitecrawl.
// On Linux: ~/.config/sitecrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// SiteConfig returns the merged site configuration for the configured
// domain. It is empty when no configuration file was loaded.
func (c *Config) SiteConfig() SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(c.Domain)
}

// Validate checks if the configuration is valid and normalizes Domain.
// It returns the first problem found.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast, before the output file is created.
func (c *Config) Validate() error {
	domain, err := ValidateDomain(c.Domain)
	if err != nil {
		return err
	}
	c.Domain = domain

	if c.OutputFile == "" {
		return ErrNoOutputFile
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Parsers <= 0 {
		return ErrInvalidParsers
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ProxyURL != "" {
		u, err := url.Parse(c.ProxyURL)
		if err != nil || (u.Scheme != "socks5" && u.Scheme != "socks5h") || u.Host == "" {
			return ErrInvalidProxy
		}
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}
