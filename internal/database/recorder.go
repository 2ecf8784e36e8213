package database

import (
	"context"
	"time"

	"github.com/nao1215/sitecrawl/internal/model"
)

// defaultSaveTimeout bounds a single page insert.
const defaultSaveTimeout = 10 * time.Second

// PageRecorder stores the records of one run.
// It implements sink.Handler, so it runs on the sink goroutine and never
// sees concurrent calls.
type PageRecorder struct {
	db    *CrawlDB
	runID string
	saved int
}

// Recorder returns a PageRecorder for runID.
func (cdb *CrawlDB) Recorder(runID string) *PageRecorder {
	return &PageRecorder{db: cdb, runID: runID}
}

// Handle saves one record.
func (r *PageRecorder) Handle(record model.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultSaveTimeout)
	defer cancel()

	if err := r.db.SavePage(ctx, r.runID, record); err != nil {
		return err
	}
	r.saved++
	return nil
}

// Idle is a no-op; every insert is committed immediately.
func (r *PageRecorder) Idle() error {
	return nil
}

// Finish is a no-op. The run row is closed by FinishRun once the crawl
// summary is known.
func (r *PageRecorder) Finish() error {
	return nil
}

// Saved returns the number of pages stored so far.
func (r *PageRecorder) Saved() int {
	return r.saved
}
