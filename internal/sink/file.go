package sink

import (
	"bufio"
	"fmt"
	"os"

	"github.com/nao1215/sitecrawl/internal/model"
)

// filePerm is the permission for newly created output files.
const filePerm = 0o644

// fileHandler appends one line per record to a file.
type fileHandler struct {
	file *os.File
	buf  *bufio.Writer
}

// NewFileWriter creates (or truncates) path and returns a Writer that
// appends one line per record.
//
// Lines look like "/path,/child1,/child2\n". A page without links is
// written as its path alone.
func NewFileWriter(path string, opts ...AsyncOption) (*Async, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	h := &fileHandler{file: f, buf: bufio.NewWriter(f)}
	return NewAsync("file "+path, h, opts...), nil
}

func (h *fileHandler) Handle(record model.Record) error {
	if _, err := h.buf.WriteString(record.Line()); err != nil {
		return err
	}
	return h.buf.WriteByte('\n')
}

func (h *fileHandler) Idle() error {
	return h.buf.Flush()
}

func (h *fileHandler) Finish() error {
	flushErr := h.buf.Flush()
	syncErr := h.file.Sync()
	closeErr := h.file.Close()

	switch {
	case flushErr != nil:
		return flushErr
	case syncErr != nil:
		return syncErr
	default:
		return closeErr
	}
}
