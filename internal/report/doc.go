// Package report renders crawl summaries.
//
// Three formats are available:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: GitHub Flavored Markdown with tables and a pie chart
//   - JSONWriter: machine-readable output
//
// NewFileWriter picks the format from a file extension.
package report
