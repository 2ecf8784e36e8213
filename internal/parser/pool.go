package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned by Pool.Parse after Close has been called.
var ErrPoolClosed = errors.New("parser pool is closed")

// Pool runs a fixed number of Parser workers.
// Each Parse call hands the page text to an idle worker over a channel and
// waits for the filtered links to come back.
//
// Design decision: We use long-lived workers fed by an unbuffered channel
// rather than spawning a goroutine per page because:
//  1. Parsing is CPU bound; more goroutines than cores gains nothing
//  2. The worker count is an explicit, observable bound
//  3. Workers are stateless, so any worker can serve any request
type Pool struct {
	parser  *Parser
	workers int
	logger  *slog.Logger

	jobs  chan parseJob
	quit  chan struct{}
	group *errgroup.Group
	once  sync.Once
}

// parseJob is one unit of work handed to a worker.
type parseJob struct {
	text  string
	reply chan parseResult
}

// parseResult is a worker's answer to a parseJob.
type parseResult struct {
	links []string
	err   error
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of parse workers.
// Values below 1 are ignored.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithPoolLogger sets the logger used by the pool.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool creates a Pool for domain and starts its workers.
// The default worker count is runtime.NumCPU().
func NewPool(domain string, opts ...PoolOption) *Pool {
	p := &Pool{
		parser:  NewParser(domain),
		workers: runtime.NumCPU(),
		jobs:    make(chan parseJob),
		quit:    make(chan struct{}),
		group:   &errgroup.Group{},
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	for i := 0; i < p.workers; i++ {
		p.group.Go(p.work)
	}

	p.logger.Debug("parser pool started", "workers", p.workers, "domain", domain)

	return p
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Parse hands text to a worker and returns the same-domain links it found.
// It returns ctx.Err() if the context is cancelled first, and ErrPoolClosed
// if the pool has been closed.
func (p *Pool) Parse(ctx context.Context, text string) ([]string, error) {
	job := parseJob{
		text:  text,
		reply: make(chan parseResult, 1),
	}

	select {
	case p.jobs <- job:
	case <-p.quit:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-job.reply:
		return res.links, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the workers and waits for them to exit.
// Jobs already picked up by a worker are completed first.
func (p *Pool) Close() error {
	p.once.Do(func() {
		close(p.quit)
	})
	return p.group.Wait()
}

// work is the worker loop.
func (p *Pool) work() error {
	for {
		select {
		case job := <-p.jobs:
			job.reply <- p.parse(job.text)
		case <-p.quit:
			return nil
		}
	}
}

// parse runs the parser and converts a panic into an error so one bad page
// cannot take the worker down.
func (p *Pool) parse(text string) (res parseResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("parser panicked", "panic", r)
			res = parseResult{err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	links, err := p.parser.Parse(text)
	return parseResult{links: links, err: err}
}
