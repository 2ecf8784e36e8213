package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects bounds redirect chains followed by the HTTP client.
const maxRedirects = 10

// TransportConfig describes how the HTTP client reaches the target site.
type TransportConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration

	// ProxyURL is an optional SOCKS5 proxy (e.g., "socks5://127.0.0.1:1080").
	// Empty means direct connections.
	ProxyURL string

	// Cookie is a raw cookie string attached to every request.
	Cookie string

	// Headers are extra headers attached to every request.
	Headers map[string]string

	// Host, when set, is the only host ("name[:port]") that receives Cookie
	// and Headers.
	Host string
}

// NewHTTPClient creates the HTTP client used by Client.
//
// Design decisions:
//   - Redirects are limited to 10 and must stay on the host of the first
//     request; leaving it fails the request with ErrOffSite
//   - A SOCKS5 proxy, when configured, is used for every connection
//   - Configured cookie and headers are injected by a RoundTripper, and only
//     into requests for cfg.Host
func NewHTTPClient(cfg TransportConfig) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	transport.MaxIdleConnsPerHost = 8
	transport.IdleConnTimeout = 30 * time.Second

	if cfg.ProxyURL != "" {
		dialContext, err := socksDialer(cfg.ProxyURL)
		if err != nil {
			return nil, err
		}
		transport.Proxy = nil
		transport.DialContext = dialContext
	}

	var rt http.RoundTripper = transport
	if cfg.Cookie != "" || len(cfg.Headers) > 0 {
		rt = &headerInjectingTransport{
			base:    transport,
			cookie:  cfg.Cookie,
			headers: cfg.Headers,
			host:    cfg.Host,
		}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if req.URL.Host != via[0].URL.Host {
				return fmt.Errorf("%w: redirect to %s", ErrOffSite, req.URL.Redacted())
			}
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// socksDialer builds a DialContext function that routes through a SOCKS5 proxy.
func socksDialer(rawURL string) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return nil, ErrInvalidProxy
	}
	if u.Host == "" {
		return nil, ErrInvalidProxy
	}

	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}

	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}, nil
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// custom headers and cookies into requests for host. An empty host
// matches every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
	host    string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.host != "" && req.URL.Host != t.host {
		return t.base.RoundTrip(req)
	}

	// Clone the request to avoid modifying the original
	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
