package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/sitecrawl/internal/fetch"
	"github.com/nao1215/sitecrawl/internal/model"
	"github.com/nao1215/sitecrawl/internal/sink"
)

// Fetcher retrieves the text of a path. Any error means the path has no
// content.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// Parser extracts same-domain child paths from page text.
type Parser interface {
	Parse(ctx context.Context, text string) ([]string, error)
}

// Outcome is the result of one pipeline run.
type Outcome int

const (
	// OutcomeNoContent means the path produced no record.
	OutcomeNoContent Outcome = iota
	// OutcomeCrawled means a record was written.
	OutcomeCrawled
)

// String returns a human-readable outcome.
func (o Outcome) String() string {
	if o == OutcomeCrawled {
		return "crawled"
	}
	return "no content"
}

// Pipeline processes a single path: fetch, parse, enqueue children, write.
type Pipeline struct {
	fetcher Fetcher
	parser  Parser
	writer  sink.Writer
	logger  *slog.Logger
}

// NewPipeline creates a Pipeline from its three collaborators.
func NewPipeline(fetcher Fetcher, parser Parser, writer sink.Writer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher: fetcher,
		parser:  parser,
		writer:  writer,
		logger:  logger,
	}
}

// Run crawls path. Children are handed to enqueue before the record is
// written, and enqueue must have applied them when it returns.
//
// Errors and panics from collaborators never escape: they are logged and
// reported as OutcomeNoContent. The record is returned for bookkeeping.
func (p *Pipeline) Run(ctx context.Context, path string, enqueue func(paths []string)) (record model.Record, outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic", "path", path, "panic", fmt.Sprint(r))
			record, outcome = model.Record{}, OutcomeNoContent
		}
	}()

	text, err := p.fetcher.Fetch(ctx, path)
	if err != nil {
		p.logFetchError(ctx, path, err)
		return model.Record{}, OutcomeNoContent
	}

	links, err := p.parser.Parse(ctx, text)
	if err != nil {
		p.logger.Warn("parse failed", "path", path, "error", err)
		return model.Record{}, OutcomeNoContent
	}

	// Children are pushed even if already visited; the driver dedups.
	enqueue(links)

	record = model.NewRecord(path, links, text)
	p.writer.Write(record)

	p.logger.Debug("crawled", "path", path, "links", len(links))
	return record, OutcomeCrawled
}

// logFetchError logs policy outcomes and cancellations at debug level and
// failures as warnings.
func (p *Pipeline) logFetchError(ctx context.Context, path string, err error) {
	if fetch.IsPolicy(err) {
		p.logger.Debug("skipped", "path", path, "reason", err)
		return
	}
	if ctx.Err() != nil {
		p.logger.Debug("fetch cancelled", "path", path)
		return
	}
	p.logger.Warn("fetch failed", "path", path, "error", err)
}
