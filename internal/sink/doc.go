// Package sink persists crawl records.
//
// Writers are fire-and-forget: Write never blocks on I/O and never reports
// errors to the caller. Each Async writer owns one goroutine that applies
// records in the order they were received; the first I/O error is kept and
// returned from Close. Close drains every accepted record and flushes it
// before returning.
package sink
