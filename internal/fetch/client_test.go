package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newTestServer serves a small site with a robots.txt.
func newTestServer(t *testing.T, robots string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		if robots == "" {
			http.NotFound(w, nil)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, robots)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><body><a href="/a">a</a></body></html>`)
	})
	mux.HandleFunc("/private/page", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "secret")
	})
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	mux.HandleFunc("/latin1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, strings.Repeat("x", 1000))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.Method == http.MethodHead {
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/ua", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, r.UserAgent()+"|"+r.Header.Get("Cookie")+"|"+r.Header.Get("X-Test"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()

	base, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	opts = append([]Option{
		WithBaseURL(base),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	client, err := New("example.com", opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

// TestNew tests the Client constructor.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults to https origin", func(t *testing.T) {
		t.Parallel()

		client, err := New("example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.BaseURL() != "https://example.com" {
			t.Errorf("BaseURL() = %q, expected %q", client.BaseURL(), "https://example.com")
		}
		if client.userAgent != DefaultUserAgent {
			t.Errorf("expected default user agent, got %q", client.userAgent)
		}
		if !client.respectRobots {
			t.Error("expected robots.txt to be respected by default")
		}
	})

	t.Run("valid socks5 proxy", func(t *testing.T) {
		t.Parallel()

		if _, err := New("example.com", WithProxy("socks5://127.0.0.1:1080")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("invalid proxy scheme", func(t *testing.T) {
		t.Parallel()

		_, err := New("example.com", WithProxy("http://127.0.0.1:8080"))
		if !errors.Is(err, ErrInvalidProxy) {
			t.Errorf("expected ErrInvalidProxy, got %v", err)
		}
	})

	t.Run("proxy without host", func(t *testing.T) {
		t.Parallel()

		_, err := New("example.com", WithProxy("socks5://"))
		if !errors.Is(err, ErrInvalidProxy) {
			t.Errorf("expected ErrInvalidProxy, got %v", err)
		}
	})
}

// TestClientFetch tests page retrieval.
func TestClientFetch(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, "User-agent: *\nDisallow: /private/\n")

	t.Run("html page returns body", func(t *testing.T) {
		t.Parallel()

		text, err := newTestClient(t, srv).Fetch(context.Background(), "/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(text, `href="/a"`) {
			t.Errorf("unexpected body: %q", text)
		}
	})

	t.Run("non-html is not content", func(t *testing.T) {
		t.Parallel()

		_, err := newTestClient(t, srv).Fetch(context.Background(), "/logo.png")
		if !errors.Is(err, ErrNotHTML) {
			t.Errorf("expected ErrNotHTML, got %v", err)
		}
		if !IsPolicy(err) {
			t.Error("expected IsPolicy to be true")
		}
	})

	t.Run("missing page is not content", func(t *testing.T) {
		t.Parallel()

		_, err := newTestClient(t, srv).Fetch(context.Background(), "/missing")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("server error on GET", func(t *testing.T) {
		t.Parallel()

		_, err := newTestClient(t, srv).Fetch(context.Background(), "/broken")
		code, ok := StatusCode(err)
		if !ok {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", code)
		}
		if IsPolicy(err) {
			t.Error("expected IsPolicy to be false for status errors")
		}
	})

	t.Run("disallowed by robots", func(t *testing.T) {
		t.Parallel()

		_, err := newTestClient(t, srv).Fetch(context.Background(), "/private/page")
		if !errors.Is(err, ErrDisallowed) {
			t.Errorf("expected ErrDisallowed, got %v", err)
		}
	})

	t.Run("ignore robots", func(t *testing.T) {
		t.Parallel()

		text, err := newTestClient(t, srv, WithRespectRobots(false)).Fetch(context.Background(), "/private/page")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "secret" {
			t.Errorf("expected %q, got %q", "secret", text)
		}
	})

	t.Run("charset is decoded", func(t *testing.T) {
		t.Parallel()

		text, err := newTestClient(t, srv).Fetch(context.Background(), "/latin1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "café" {
			t.Errorf("expected %q, got %q", "café", text)
		}
	})

	t.Run("body is capped", func(t *testing.T) {
		t.Parallel()

		text, err := newTestClient(t, srv, WithMaxBodySize(10)).Fetch(context.Background(), "/big")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(text) != 10 {
			t.Errorf("expected 10 bytes, got %d", len(text))
		}
	})

	t.Run("user agent cookie and headers are sent", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, srv,
			WithUserAgent("testbot/2.0"),
			WithCookie("session=abc"),
			WithHeaders(map[string]string{"X-Test": "yes"}),
		)
		text, err := client.Fetch(context.Background(), "/ua")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "testbot/2.0|session=abc|yes" {
			t.Errorf("unexpected echo: %q", text)
		}
	})

	t.Run("relative path is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := newTestClient(t, srv).Fetch(context.Background(), "about")
		if !errors.Is(err, ErrInvalidPath) {
			t.Errorf("expected ErrInvalidPath, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := newTestClient(t, srv, WithRespectRobots(false)).Fetch(ctx, "/"); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}

// TestRobotsLoadedOnce verifies robots.txt is requested a single time.
func TestRobotsLoadedOnce(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "ok")
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv)
	for range 3 {
		if _, err := client.Fetch(context.Background(), "/"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected robots.txt fetched once, got %d", got)
	}
}

// TestCrawlDelay verifies that Crawl-delay spaces out requests.
func TestCrawlDelay(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, "User-agent: *\nCrawl-delay: 0.2\n")
	client := newTestClient(t, srv)

	start := time.Now()
	for range 3 {
		if _, err := client.Fetch(context.Background(), "/"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// The first request consumes the initial token; two more wait ~200ms each.
	if elapsed := time.Since(start); elapsed < 350*time.Millisecond {
		t.Errorf("expected requests to be delayed, took %v", elapsed)
	}
}

// TestRobotsAgent tests product token extraction.
func TestRobotsAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ua   string
		want string
	}{
		{name: "with version", ua: "sitecrawl/1.0", want: "sitecrawl"},
		{name: "with comment", ua: "bot (+https://example.com)", want: "bot"},
		{name: "bare token", ua: "crawler", want: "crawler"},
		{name: "empty", ua: "", want: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := robotsAgent(tt.ua); got != tt.want {
				t.Errorf("robotsAgent(%q) = %q, expected %q", tt.ua, got, tt.want)
			}
		})
	}
}

// TestIsHTML tests content-type detection.
func TestIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"TEXT/HTML", true},
		{"application/xhtml+xml", false},
		{"image/png", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			if got := isHTML(tt.contentType); got != tt.want {
				t.Errorf("isHTML(%q) = %v, expected %v", tt.contentType, got, tt.want)
			}
		})
	}
}

// TestHeaderInjectingTransport tests cookie merging.
func TestHeaderInjectingTransport(t *testing.T) {
	t.Parallel()

	cookies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		cookies <- r.Header.Get("Cookie")
	}))
	t.Cleanup(srv.Close)

	hc, err := NewHTTPClient(TransportConfig{Timeout: 5 * time.Second, Cookie: "b=2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req.Header.Set("Cookie", "a=1")

	resp, err := hc.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotCookie := <-cookies; gotCookie != "a=1; b=2" {
		t.Errorf("expected merged cookie, got %q", gotCookie)
	}
	if req.Header.Get("Cookie") != "a=1" {
		t.Error("original request must not be modified")
	}
}

// TestClientStaysOnHost verifies that neither paths nor redirects reach
// another host, and that the cookie never leaves the crawled host.
func TestClientStaysOnHost(t *testing.T) {
	t.Parallel()

	var foreignHits atomic.Int32
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		foreignHits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<a href="/x">foreign</a>`)
	}))
	t.Cleanup(foreign.Close)

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/go":
			http.Redirect(w, r, foreign.URL+"/landing", http.StatusFound)
		case "/old":
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		case "/new":
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "moved|"+r.Header.Get("Cookie"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(target.Close)

	foreignHost := strings.TrimPrefix(foreign.URL, "http://")

	tests := []struct {
		name string
		path string
	}{
		{name: "network-path reference", path: "//" + foreignHost + "/secret"},
		{name: "cross-host redirect", path: "/go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, target, WithRespectRobots(false), WithCookie("session=secret"))
			text, err := client.Fetch(context.Background(), tt.path)
			if !errors.Is(err, ErrOffSite) {
				t.Errorf("expected ErrOffSite, got text=%q err=%v", text, err)
			}
			if !IsPolicy(err) {
				t.Errorf("expected a policy error, got %v", err)
			}
		})
	}

	t.Run("same-host redirect keeps the cookie", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, target, WithRespectRobots(false), WithCookie("session=secret"))
		text, err := client.Fetch(context.Background(), "/old")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "moved|session=secret" {
			t.Errorf("unexpected body %q", text)
		}
	})

	t.Run("malformed escape is an invalid path", func(t *testing.T) {
		t.Parallel()

		_, err := newTestClient(t, target, WithRespectRobots(false)).Fetch(context.Background(), "/%zz")
		if !errors.Is(err, ErrInvalidPath) {
			t.Errorf("expected ErrInvalidPath, got %v", err)
		}
	})

	// Subtests above run in parallel; check the foreign server after them.
	t.Cleanup(func() {
		if got := foreignHits.Load(); got != 0 {
			t.Errorf("expected the foreign host never to be contacted, got %d request(s)", got)
		}
	})
}

// TestResolve verifies that paths never change the base host.
func TestResolve(t *testing.T) {
	t.Parallel()

	client, err := New("example.com")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{path: "/", want: "https://example.com/"},
		{path: "/search?q=go", want: "https://example.com/search?q=go"},
		{path: "/a#top", want: "https://example.com/a"},
		{path: "/a%2Fb", want: "https://example.com/a%2Fb"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, err := client.resolve(tt.path)
			if err != nil {
				t.Fatalf("resolve(%q) error = %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("resolve(%q) = %q, expected %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestHeaderInjectingTransportHostScope verifies that credentials are only
// attached to requests for the configured host.
func TestHeaderInjectingTransportHostScope(t *testing.T) {
	t.Parallel()

	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		received <- r.Header.Get("Cookie") + "|" + r.Header.Get("X-Token")
	}))
	t.Cleanup(srv.Close)

	hc, err := NewHTTPClient(TransportConfig{
		Timeout: 5 * time.Second,
		Cookie:  "session=secret",
		Headers: map[string]string{"X-Token": "t"},
		Host:    "example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if got := <-received; got != "|" {
		t.Errorf("expected no credentials for another host, got %q", got)
	}
}
