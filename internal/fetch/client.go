package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Default values for the client.
const (
	// DefaultUserAgent identifies the crawler to the sites it visits.
	DefaultUserAgent = "sitecrawl/1.0"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of a page body is read (5 MiB).
	DefaultMaxBodySize int64 = 5 * 1024 * 1024
)

// Client fetches pages of a single domain.
// It is safe for concurrent use by multiple pipelines.
type Client struct {
	// baseURL is the origin every path is resolved against.
	baseURL *url.URL

	// httpClient performs the requests.
	httpClient *http.Client

	// transport configures httpClient when no client is injected.
	transport TransportConfig

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize caps the bytes read from each GET body.
	maxBodySize int64

	// respectRobots enables robots.txt checks.
	respectRobots bool

	// robotsOnce guards the lazy robots.txt load.
	robotsOnce sync.Once

	// robots is the loaded policy.
	robots *robotsPolicy

	// limiter enforces Crawl-delay. Nil means no delay.
	limiter *rate.Limiter

	// logger is used for structured logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the origin derived from the domain.
// Tests use it to point the client at an httptest server.
func WithBaseURL(base *url.URL) Option {
	return func(c *Client) {
		if base != nil {
			c.baseURL = base
		}
	}
}

// WithHTTPClient injects a preconfigured HTTP client.
// Transport options are ignored when this is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.transport.Timeout = d
		}
	}
}

// WithProxy routes requests through a SOCKS5 proxy.
func WithProxy(proxyURL string) Option {
	return func(c *Client) {
		c.transport.ProxyURL = proxyURL
	}
}

// WithCookie attaches a cookie string to every request.
func WithCookie(cookie string) Option {
	return func(c *Client) {
		c.transport.Cookie = cookie
	}
}

// WithHeaders attaches extra headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.transport.Headers = headers
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodySize caps how many bytes of each body are read.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithRespectRobots toggles robots.txt handling.
func WithRespectRobots(respect bool) Option {
	return func(c *Client) {
		c.respectRobots = respect
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for domain. Paths are resolved against https://<domain>.
func New(domain string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:       &url.URL{Scheme: "https", Host: domain},
		transport:     TransportConfig{Timeout: DefaultTimeout},
		userAgent:     DefaultUserAgent,
		maxBodySize:   DefaultMaxBodySize,
		respectRobots: true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.transport.Host = c.baseURL.Host
		hc, err := NewHTTPClient(c.transport)
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}
	return c, nil
}

// BaseURL returns the origin paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Fetch retrieves the page at path.
// It returns the decoded page text, or an error meaning the page has no
// content. A HEAD request screens out non-HTML resources before the body
// is downloaded.
func (c *Client) Fetch(ctx context.Context, path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	// "//host/x" is a network-path reference to another host.
	if strings.HasPrefix(path, "//") {
		return "", fmt.Errorf("%w: %q", ErrOffSite, path)
	}
	target, err := c.resolve(path)
	if err != nil {
		return "", err
	}

	if c.respectRobots {
		c.robotsOnce.Do(func() {
			c.robots = c.loadRobots(ctx)
			if delay := c.robots.CrawlDelay(); delay > 0 {
				c.limiter = rate.NewLimiter(rate.Every(delay), 1)
			}
		})
		if !c.robots.Allowed(path) {
			return "", fmt.Errorf("%s: %w", path, ErrDisallowed)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("crawl delay: %w", err)
		}
	}

	if err := c.checkHTML(ctx, target); err != nil {
		return "", err
	}
	return c.get(ctx, target)
}

// resolve places path on a copy of the base URL. Only the path and query
// come from path, so the scheme and host never change.
func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidPath, path, err)
	}

	target := *c.baseURL
	target.Path = ref.Path
	target.RawPath = ref.RawPath
	target.RawQuery = ref.RawQuery
	target.Fragment = ""
	target.RawFragment = ""
	return target.String(), nil
}

// checkHTML issues a HEAD request and verifies the content type.
func (c *Client) checkHTML(ctx context.Context, target string) error {
	resp, err := c.do(ctx, http.MethodHead, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isHTML(resp.Header.Get("Content-Type")) {
		return fmt.Errorf("%s (%q): %w", target, resp.Header.Get("Content-Type"), ErrNotHTML)
	}
	return nil
}

// get downloads and decodes the body.
func (c *Client) get(ctx context.Context, target string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, target)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Method: http.MethodGet, URL: target, StatusCode: resp.StatusCode}
	}

	body := io.LimitReader(resp.Body, c.maxBodySize)
	reader, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to decode body of %s: %w", target, err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", target, err)
	}
	return string(data), nil
}

// do performs a single request with the configured User-Agent.
func (c *Client) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	return resp, nil
}

// isHTML reports whether a Content-Type header denotes an HTML document.
func isHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mediaType == "text/html"
}

// StatusCode extracts the HTTP status from a StatusError in err's chain.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}
