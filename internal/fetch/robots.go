package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsPolicy is the parsed robots.txt policy for our user agent.
type robotsPolicy struct {
	group *robotstxt.Group
}

// allowAll is the policy used when robots.txt is ignored or unreachable.
var allowAll = &robotsPolicy{}

// Allowed reports whether path may be crawled.
func (p *robotsPolicy) Allowed(path string) bool {
	if p == nil || p.group == nil {
		return true
	}
	return p.group.Test(path)
}

// CrawlDelay returns the Crawl-delay requested for our agent, or zero.
func (p *robotsPolicy) CrawlDelay() time.Duration {
	if p == nil || p.group == nil {
		return 0
	}
	return p.group.CrawlDelay
}

// loadRobots fetches and parses /robots.txt.
// Status codes follow robotstxt.FromResponse: 4xx allows everything and
// 5xx disallows everything. Transport failures allow everything.
func (c *Client) loadRobots(ctx context.Context) *robotsPolicy {
	robotsURL := c.baseURL.JoinPath("/robots.txt").String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		c.logger.Warn("failed to build robots.txt request", "url", robotsURL, "error", err)
		return allowAll
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("robots.txt unreachable, allowing all paths", "url", robotsURL, "error", err)
		return allowAll
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		c.logger.Warn("failed to parse robots.txt, allowing all paths", "url", robotsURL, "error", err)
		return allowAll
	}

	policy := &robotsPolicy{group: data.FindGroup(robotsAgent(c.userAgent))}
	c.logger.Debug("loaded robots.txt",
		"url", robotsURL,
		"status", resp.StatusCode,
		"crawl_delay", policy.CrawlDelay(),
	)
	return policy
}

// robotsAgent extracts the product token from a User-Agent string.
// "sitecrawl/1.0 (+https://example.com)" becomes "sitecrawl".
func robotsAgent(userAgent string) string {
	token := strings.TrimSpace(userAgent)
	if i := strings.IndexAny(token, "/ "); i >= 0 {
		token = token[:i]
	}
	if token == "" {
		return "*"
	}
	return token
}
