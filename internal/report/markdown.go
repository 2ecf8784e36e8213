package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sitecrawl/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, alerts and mermaid charts
// 3. GitHub-flavored markdown output
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounters(md, summary)
	w.writeTopPages(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Crawl Summary: " + summary.Domain)
	md.PlainText("")

	rows := [][]string{
		{"Domain", "`" + summary.Domain + "`"},
		{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Elapsed", summary.Elapsed().Round(time.Millisecond).String()},
		{"Status", statusText(summary)},
	}
	if summary.RunID != "" {
		rows = append(rows, []string{"Run ID", "`" + summary.RunID + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Cancelled {
		md.Warningf("The crawl was interrupted. %d path(s) were visited before it stopped.", summary.Visited)
		md.PlainText("")
	}
}

// writeCounters writes the page counters and their distribution.
func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Pages")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Visited", strconv.Itoa(summary.Visited)},
			{"Crawled", strconv.Itoa(summary.Crawled)},
			{"No content", strconv.Itoa(summary.NoContent)},
			{"Filtered", strconv.Itoa(summary.Filtered)},
			{"Duplicates discarded", strconv.Itoa(summary.Duplicates)},
			{"Links found", strconv.Itoa(summary.LinksFound)},
		},
	})
	md.PlainText("")

	if summary.Crawled+summary.NoContent+summary.Filtered > 0 {
		w.writePieChart(md, summary)
	}

	switch {
	case summary.Crawled == 0:
		md.Cautionf("No page of %s produced content. Check the domain, robots.txt and the network.", summary.Domain)
	case summary.NoContent > summary.Crawled:
		md.Importantf("%d path(s) had no content, more than were crawled.", summary.NoContent)
	default:
		md.Tip("Crawl finished with content for most visited paths.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of path outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Path Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.Crawled > 0 {
		chart.LabelAndIntValue("Crawled", uint64(summary.Crawled))
	}
	if summary.NoContent > 0 {
		chart.LabelAndIntValue("No content", uint64(summary.NoContent))
	}
	if summary.Filtered > 0 {
		chart.LabelAndIntValue("Filtered", uint64(summary.Filtered))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeTopPages writes the pages with the most links.
func (w *MarkdownWriter) writeTopPages(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Top Pages by Links")
	md.PlainText("")

	if len(summary.TopPages) == 0 {
		md.PlainText("No pages crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.TopPages))
	for i, p := range summary.TopPages {
		rows[i] = []string{strconv.Itoa(i + 1), "`" + truncateString(p.Path, 80) + "`", strconv.Itoa(p.Links)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Path", "Links"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitecrawl](https://github.com/nao1215/sitecrawl)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
