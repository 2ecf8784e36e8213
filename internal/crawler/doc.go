// Package crawler implements a breadth-first crawl of a single domain.
//
// # Architecture
//
// Three kinds of goroutine cooperate:
//
//   - The driver (Crawler.Run) pulls paths from the scheduler, drops those
//     already visited and dispatches the rest. It alone owns the VisitedSet.
//   - The Scheduler goroutine owns the work queue and the registry of
//     running tasks. It launches one Pipeline per dispatched path and
//     closes Done exactly once when no task is running, the queue is empty
//     and no path is in the driver's hand.
//   - Pipelines fetch a page, parse it, push every same-domain child back to
//     the scheduler and write one record.
//
// Design decision: Deduplication happens when a path is popped, not when it
// is pushed. Pipelines push every child they find, so a path can sit in the
// queue several times; the driver's visited check discards the extras. This
// keeps pipelines free of shared state.
//
// # Usage
//
//	c := crawler.New("example.com", fetcher, parser, writer)
//	summary, err := c.Run(ctx)
package crawler
