package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitecrawl/internal/model"
)

// SimpleWriter outputs a short human-readable summary.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and can be piped.
type SimpleWriter struct {
	baseWriter

	// verbose adds the top pages section.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the top pages section.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in plain text.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Crawl of %s: %s\n", summary.Domain, statusText(summary))
	if summary.RunID != "" {
		fmt.Fprintf(&sb, "  Run ID:      %s\n", summary.RunID)
	}
	fmt.Fprintf(&sb, "  Elapsed:     %s\n", summary.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(&sb, "  Visited:     %d\n", summary.Visited)
	fmt.Fprintf(&sb, "  Crawled:     %d\n", summary.Crawled)
	fmt.Fprintf(&sb, "  No content:  %d\n", summary.NoContent)
	fmt.Fprintf(&sb, "  Duplicates:  %d\n", summary.Duplicates)
	if summary.Filtered > 0 {
		fmt.Fprintf(&sb, "  Filtered:    %d\n", summary.Filtered)
	}
	fmt.Fprintf(&sb, "  Links found: %d\n", summary.LinksFound)

	if w.verbose && len(summary.TopPages) > 0 {
		sb.WriteString("  Top pages:\n")
		for _, p := range summary.TopPages {
			fmt.Fprintf(&sb, "    %5d  %s\n", p.Links, p.Path)
		}
	}

	return io.WriteString(w.output, sb.String())
}
