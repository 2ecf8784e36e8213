package report

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/sitecrawl/internal/model"
)

// Writer defines the interface for summary output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the
// same API.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// This is useful for printing to the terminal and saving a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// NewFileWriter returns the Writer matching the extension of path:
// ".json" selects JSON, ".txt" selects plain text and anything else
// selects Markdown.
func NewFileWriter(path string, output io.Writer) Writer {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONWriter(output, WithPrettyPrint())
	case ".txt":
		return NewSimpleWriter(output)
	default:
		return NewMarkdownWriter(output)
	}
}

// baseWriter provides common functionality for summary writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how the run ended.
func statusText(summary *model.Summary) string {
	if summary.Cancelled {
		return "Interrupted (partial results)"
	}
	return "Complete"
}
