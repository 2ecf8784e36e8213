package crawler

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nao1215/sitecrawl/internal/model"
)

var errNoContent = errors.New("no content")

// fakeFetcher serves page bodies from a map. Missing paths have no content.
type fakeFetcher struct {
	pages map[string]string

	mu      sync.Mutex
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, path)
	f.mu.Unlock()

	body, ok := f.pages[path]
	if !ok {
		return "", errNoContent
	}
	return body, nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

// fakeParser treats the body as a space separated list of links.
type fakeParser struct{}

func (fakeParser) Parse(_ context.Context, text string) ([]string, error) {
	return strings.Fields(text), nil
}

// funcParser adapts a function to Parser.
type funcParser func(ctx context.Context, text string) ([]string, error)

func (f funcParser) Parse(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

// funcFetcher adapts a function to Fetcher.
type funcFetcher func(ctx context.Context, path string) (string, error)

func (f funcFetcher) Fetch(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// memoryWriter collects records.
type memoryWriter struct {
	mu      sync.Mutex
	records []model.Record
	closed  bool
}

func (w *memoryWriter) Write(r model.Record) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, r)
}

func (w *memoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *memoryWriter) paths() map[string][]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string][]string, len(w.records))
	for _, r := range w.records {
		out[r.Path] = r.Links
	}
	return out
}

func (w *memoryWriter) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}
