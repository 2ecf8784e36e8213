// Package fetch retrieves HTML pages from the crawled domain.
//
// A Client turns a path into page text, or reports that the path has no
// content. "No content" covers three cases that the crawler treats
// identically:
//   - the path is disallowed by robots.txt (ErrDisallowed)
//   - the HEAD request reports a non-HTML content type (ErrNotHTML)
//   - the request failed or returned a non-2xx status (transport errors, ErrStatus)
//
// # Politeness
//
//   - robots.txt is fetched once per client and consulted for every path
//   - a Crawl-delay directive for our agent is honoured with a token bucket
//   - every request carries a fixed, identifying User-Agent header
//
// # Usage
//
//	client, err := fetch.New("example.com", fetch.WithUserAgent("sitecrawl/1.0"))
//	text, err := client.Fetch(ctx, "/about")
package fetch
