package crawler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/sitecrawl/internal/model"
	"github.com/nao1215/sitecrawl/internal/sink"
)

// DefaultTopPages is how many link-rich pages the summary keeps.
const DefaultTopPages = 10

// Crawler drives a breadth-first crawl of one domain.
//
// The driver loop runs on the goroutine that calls Run and exclusively owns
// the visited set. Each accepted path is handed to the Scheduler, which runs
// a Pipeline for it on a separate goroutine.
type Crawler struct {
	domain   string
	pipeline *Pipeline
	filter   PathFilter
	runID    string
	topPages int
	logger   *slog.Logger

	// visited is valid after Run returns.
	visited *VisitedSet

	// mu guards summary while pipelines are running.
	mu      sync.Mutex
	summary model.Summary
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPathFilter sets ignore and follow patterns applied to popped paths.
func WithPathFilter(filter PathFilter) Option {
	return func(c *Crawler) {
		c.filter = filter
	}
}

// WithRunID sets the run identifier reported in the summary.
// A random UUID is used when unset.
func WithRunID(id string) Option {
	return func(c *Crawler) {
		c.runID = id
	}
}

// WithTopPages sets how many link-rich pages the summary keeps.
func WithTopPages(n int) Option {
	return func(c *Crawler) {
		if n >= 0 {
			c.topPages = n
		}
	}
}

// New creates a Crawler for domain.
// The writer is not closed by the crawler; the caller closes it after Run.
func New(domain string, fetcher Fetcher, parser Parser, writer sink.Writer, opts ...Option) *Crawler {
	c := &Crawler{
		domain:   domain,
		topPages: DefaultTopPages,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runID == "" {
		c.runID = uuid.NewString()
	}
	c.pipeline = NewPipeline(fetcher, parser, writer, c.logger)
	return c
}

// Domain returns the crawled domain.
func (c *Crawler) Domain() string {
	return c.domain
}

// RunID returns the run identifier.
func (c *Crawler) RunID() string {
	return c.runID
}

// Visited returns the visited set. It is nil before Run.
func (c *Crawler) Visited() *VisitedSet {
	return c.visited
}

// Run crawls the domain starting at "/" until no work remains or ctx is
// cancelled. Running pipelines are joined before Run returns. On
// cancellation the partial summary is returned together with ctx's error.
func (c *Crawler) Run(ctx context.Context) (*model.Summary, error) {
	c.summary = model.Summary{
		RunID:     c.runID,
		Domain:    c.domain,
		StartedAt: time.Now(),
	}
	c.visited = NewVisitedSet()

	c.logger.Info("crawl started", "domain", c.domain, "run_id", c.runID)

	// Pipelines stop with the driver even when the parent is still live.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := NewScheduler(runCtx, []string{model.RootPath}, WithSchedulerLogger(c.logger))
	err := c.drive(runCtx, sched)

	cancel()
	sched.Wait()

	stats := sched.Stats()
	c.mu.Lock()
	summary := c.summary
	c.mu.Unlock()

	summary.Visited = c.visited.Len()
	summary.FinishedAt = time.Now()
	summary.Cancelled = err != nil

	c.logger.Info("crawl finished",
		"domain", c.domain,
		"visited", summary.Visited,
		"crawled", summary.Crawled,
		"no_content", summary.NoContent,
		"pending", stats.Pending,
		"cancelled", summary.Cancelled,
		"elapsed", summary.Elapsed().String(),
	)
	return &summary, err
}

// drive is the main loop. It returns nil on completion and ctx's error on
// cancellation.
func (c *Crawler) drive(ctx context.Context, sched *Scheduler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-sched.Done():
			// The last task may have finished because of the cancellation.
			return ctx.Err()

		case path := <-sched.Next():
			c.consider(sched, path)
		}
	}
}

// consider answers one offered path with Skip or Schedule.
func (c *Crawler) consider(sched *Scheduler, path string) {
	if c.visited.Contains(path) {
		c.mu.Lock()
		c.summary.Duplicates++
		c.mu.Unlock()
		sched.Skip()
		return
	}

	c.visited.Add(path)

	if !c.filter.Allow(path) {
		c.logger.Debug("filtered", "path", path)
		c.mu.Lock()
		c.summary.Filtered++
		c.mu.Unlock()
		sched.Skip()
		return
	}

	sched.Schedule(path, func(ctx context.Context, path string) {
		record, outcome := c.pipeline.Run(ctx, path, func(links []string) {
			sched.Push(links...)
		})
		c.record(record, outcome)
	})
}

// record folds a pipeline outcome into the summary.
func (c *Crawler) record(record model.Record, outcome Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if outcome == OutcomeCrawled {
		c.summary.AddRecord(record, c.topPages)
		return
	}
	c.summary.NoContent++
}
