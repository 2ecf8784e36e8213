package model

import (
	"sort"
	"time"
)

// Summary aggregates statistics about a crawl run.
// It is filled in by the crawler and consumed by the report and database
// packages.
type Summary struct {
	// RunID identifies the run in the database. Empty when no database is used.
	RunID string `json:"run_id,omitempty"`

	// Domain is the crawled domain.
	Domain string `json:"domain"`

	// StartedAt is when the crawl started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl reached quiescence or was cancelled.
	FinishedAt time.Time `json:"finished_at"`

	// Visited is the size of the visited set: every distinct path that was
	// dispatched or rejected by patterns.
	Visited int `json:"visited"`

	// Crawled is the number of pipelines that produced a record.
	Crawled int `json:"crawled"`

	// NoContent is the number of pipelines whose fetch came back empty
	// (non-HTML, disallowed by robots.txt, or failed).
	NoContent int `json:"no_content"`

	// Duplicates is the number of queued paths discarded because they were
	// already visited.
	Duplicates int `json:"duplicates"`

	// Filtered is the number of paths skipped by ignore/follow patterns.
	Filtered int `json:"filtered"`

	// LinksFound is the total number of links across all records.
	LinksFound int `json:"links_found"`

	// Cancelled reports whether the crawl was interrupted before completion.
	Cancelled bool `json:"cancelled"`

	// TopPages lists the pages with the most outgoing links, highest first.
	TopPages []PageLinks `json:"top_pages,omitempty"`
}

// PageLinks pairs a path with the number of links discovered on it.
type PageLinks struct {
	Path  string `json:"path"`
	Links int    `json:"links"`
}

// Elapsed returns the crawl duration.
func (s *Summary) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// AddRecord folds a record into the summary.
// maxTop bounds the length of TopPages.
func (s *Summary) AddRecord(r Record, maxTop int) {
	s.Crawled++
	s.LinksFound += len(r.Links)

	if maxTop <= 0 {
		return
	}
	s.TopPages = append(s.TopPages, PageLinks{Path: r.Path, Links: len(r.Links)})
	sort.SliceStable(s.TopPages, func(i, j int) bool {
		if s.TopPages[i].Links != s.TopPages[j].Links {
			return s.TopPages[i].Links > s.TopPages[j].Links
		}
		return s.TopPages[i].Path < s.TopPages[j].Path
	})
	if len(s.TopPages) > maxTop {
		s.TopPages = s.TopPages[:maxTop]
	}
}
