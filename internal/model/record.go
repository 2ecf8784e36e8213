package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// RootPath is the path every crawl starts from.
const RootPath = "/"

// Record is the result of crawling one path.
// It is emitted once for every path whose content was fetched and parsed.
type Record struct {
	// Path is the crawled path, always starting with "/".
	Path string `json:"path"`

	// Links are the same-domain paths discovered on the page.
	// They are already deduplicated; their order is not significant.
	Links []string `json:"links"`

	// Digest is the hex-encoded SHA3-256 hash of the page body.
	// It is empty when the body was not available.
	Digest string `json:"digest,omitempty"`
}

// NewRecord creates a Record for path with the given links and page body.
func NewRecord(path string, links []string, body string) Record {
	return Record{
		Path:   path,
		Links:  links,
		Digest: Digest(body),
	}
}

// Line formats the record as a single output line without the trailing newline.
func (r Record) Line() string {
	return FormatRecord(r.Path, r.Links)
}

// FormatRecord returns the comma separated representation of a crawl result.
// The first field is the crawled path and the remaining fields are the links
// found on the page.
func FormatRecord(path string, links []string) string {
	var sb strings.Builder
	sb.WriteString(path)
	for _, link := range links {
		sb.WriteByte(',')
		sb.WriteString(link)
	}
	return sb.String()
}

// Digest returns the hex-encoded SHA3-256 hash of body.
// An empty body produces an empty digest.
// Stored digests can be compared across runs to detect changed pages.
func Digest(body string) string {
	if body == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}
