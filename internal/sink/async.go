package sink

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nao1215/sitecrawl/internal/model"
)

// DefaultBuffer is the number of records queued before Write blocks.
const DefaultBuffer = 256

// Handler applies records on the Async goroutine.
// Handle and Finish are never called concurrently.
type Handler interface {
	// Handle persists one record.
	Handle(record model.Record) error

	// Idle is called whenever the queue runs empty. Buffered
	// handlers flush here.
	Idle() error

	// Finish is called once after the last record.
	Finish() error
}

// Async runs a Handler on a dedicated goroutine.
type Async struct {
	name    string
	handler Handler
	records chan model.Record
	done    chan struct{}
	logger  *slog.Logger

	// mu guards closed so Write never sends on a closed channel.
	mu     sync.RWMutex
	closed bool

	// err is the first handler error. Read only after done is closed.
	err error

	once     sync.Once
	closeErr error
}

// AsyncOption configures an Async writer.
type AsyncOption func(*asyncConfig)

type asyncConfig struct {
	buffer int
	logger *slog.Logger
}

// WithBuffer sets the channel capacity.
func WithBuffer(n int) AsyncOption {
	return func(c *asyncConfig) {
		if n >= 0 {
			c.buffer = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AsyncOption {
	return func(c *asyncConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAsync starts the goroutine that feeds handler.
func NewAsync(name string, handler Handler, opts ...AsyncOption) *Async {
	cfg := asyncConfig{buffer: DefaultBuffer, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &Async{
		name:    name,
		handler: handler,
		records: make(chan model.Record, cfg.buffer),
		done:    make(chan struct{}),
		logger:  cfg.logger,
	}
	go a.run()
	return a
}

// Write queues a record. Records written after Close are dropped.
func (a *Async) Write(record model.Record) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.logger.Warn("record dropped after close", "sink", a.name, "path", record.Path)
		return
	}
	a.records <- record
}

// Close stops accepting records, waits for the queue to drain and returns
// the first error seen. Calling Close more than once is safe.
func (a *Async) Close() error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.records)
		a.mu.Unlock()

		<-a.done
		a.closeErr = a.err
	})
	return a.closeErr
}

func (a *Async) run() {
	defer close(a.done)

	for record := range a.records {
		if err := a.handler.Handle(record); err != nil {
			a.fail(fmt.Errorf("%s: write %s: %w", a.name, record.Path, err))
		}
		if len(a.records) == 0 {
			if err := a.handler.Idle(); err != nil {
				a.fail(fmt.Errorf("%s: flush: %w", a.name, err))
			}
		}
	}

	if err := a.handler.Finish(); err != nil {
		a.fail(fmt.Errorf("%s: finish: %w", a.name, err))
	}
}

// fail logs err and keeps it if it is the first one.
func (a *Async) fail(err error) {
	a.logger.Error("sink error", "sink", a.name, "error", err)
	if a.err == nil {
		a.err = err
	}
}
