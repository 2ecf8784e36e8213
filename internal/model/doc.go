// Package model defines the data structures shared across sitecrawl.
//
// This package contains the following main types:
//   - Record: The result of crawling a single path (the path plus the
//     same-domain links found on it)
//   - Summary: Aggregated statistics for a whole crawl run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler produces records, while the sink, database, and
// report packages consume them.
package model
