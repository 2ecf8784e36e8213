package sink

import (
	"errors"

	"github.com/nao1215/sitecrawl/internal/model"
)

// Writer accepts crawl records.
//
// Design decision: Write has no error return because the crawl must keep
// going when persistence fails. Errors surface once, from Close, after
// every accepted record has been handled.
type Writer interface {
	// Write hands a record to the sink. Ordering across calls from
	// different goroutines is not guaranteed.
	Write(record model.Record)

	// Close flushes every accepted record and releases resources.
	Close() error
}

// MultiWriter fans each record out to several Writers.
// This is useful for writing the output file and the database together.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
// Nil writers are skipped.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	m := &MultiWriter{writers: make([]Writer, 0, len(writers))}
	for _, w := range writers {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

// Write passes the record to every Writer.
func (m *MultiWriter) Write(record model.Record) {
	for _, w := range m.writers {
		w.Write(record)
	}
}

// Close closes every Writer, even when an earlier one fails.
func (m *MultiWriter) Close() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of Writers.
func (m *MultiWriter) Len() int {
	return len(m.writers)
}
