// Package parser extracts same-domain links from HTML documents.
//
// # Components
//
//   - FilterLinks: reduces raw href values to paths on the target domain
//   - Parser: walks an HTML document and collects anchor hrefs
//   - Pool: a fixed set of stateless worker goroutines running Parser
//
// The pool communicates purely by message passing: callers hand in page text
// and receive the filtered links back. Workers share no mutable state, so the
// pool can be sized freely.
//
// # Usage
//
//	pool := parser.NewPool("example.com", parser.WithWorkers(4))
//	defer pool.Close()
//	links, err := pool.Parse(ctx, html)
package parser
