package crawler

import (
	"context"
	"log/slog"
	"sync"
)

// TaskFunc is the body of a scheduled task. It runs on its own goroutine.
type TaskFunc func(ctx context.Context, path string)

// eventKind identifies a message sent to the scheduler goroutine.
type eventKind int

const (
	// eventPush appends paths to the work queue.
	eventPush eventKind = iota
	// eventStart registers and launches a task for the path in hand.
	eventStart
	// eventSkip discards the path in hand.
	eventSkip
	// eventFinish removes a completed task from the registry.
	eventFinish
)

type event struct {
	kind  eventKind
	paths []string
	path  string
	fn    TaskFunc
	id    uint64
	ack   chan struct{}
}

// task is a registry entry for a running pipeline.
type task struct {
	id   uint64
	path string
}

// SchedulerStats are the scheduler counters at shutdown.
type SchedulerStats struct {
	// Started is the number of tasks launched.
	Started int

	// Finished is the number of tasks that completed.
	Finished int

	// Skipped is the number of offered paths the driver discarded.
	Skipped int

	// Pending is the number of paths left in the work queue.
	Pending int
}

// Scheduler runs crawl tasks and detects when the crawl is complete.
//
// Design decision: We use a single goroutine that exclusively owns the work
// queue and the task registry, and talk to it only through channels:
//  1. No locks guard the queue or the registry
//  2. Every state change is a message, so the completion predicate is
//     checked exactly at release events and never polled
//  3. A pipeline's pushes are synchronous messages sent before its finish
//     message, so they are always applied before its removal
//
// The driver pulls paths from Next. At most one offered path is in hand at
// a time; the driver must answer each received path with exactly one
// Schedule or Skip. Completion is signalled when the registry is empty, the
// queue is empty and no path is in hand.
type Scheduler struct {
	next    chan string
	events  chan event
	done    chan struct{}
	stopped chan struct{}

	doneOnce sync.Once
	wg       sync.WaitGroup
	logger   *slog.Logger

	// Owned by the scheduler goroutine.
	queue    workQueue
	registry map[uint64]task
	handoff  bool
	nextID   uint64
	stats    SchedulerStats
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler starts a scheduler whose queue initially holds seeds.
// The scheduler stops when the crawl completes or ctx is cancelled.
func NewScheduler(ctx context.Context, seeds []string, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		next:     make(chan string),
		events:   make(chan event),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		logger:   slog.Default(),
		registry: make(map[uint64]task),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue.push(seeds...)

	go s.loop(ctx)
	return s
}

// Next delivers queued paths to the driver. A value is only offered when no
// other path is in hand, and it is removed from the queue only when received.
func (s *Scheduler) Next() <-chan string {
	return s.next
}

// Done is closed exactly once, when the crawl has reached its fixpoint.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Stopped is closed when the scheduler goroutine has exited, either after
// completion or after cancellation.
func (s *Scheduler) Stopped() <-chan struct{} {
	return s.stopped
}

// Push appends paths to the work queue. It returns once the scheduler has
// applied the push, or false if the scheduler has stopped.
func (s *Scheduler) Push(paths ...string) bool {
	if len(paths) == 0 {
		return true
	}
	return s.send(event{kind: eventPush, paths: paths})
}

// Schedule launches fn for the path in hand.
func (s *Scheduler) Schedule(path string, fn TaskFunc) bool {
	return s.send(event{kind: eventStart, path: path, fn: fn})
}

// Skip discards the path in hand.
func (s *Scheduler) Skip() bool {
	return s.send(event{kind: eventSkip})
}

// Wait blocks until the scheduler goroutine has exited and every launched
// task has returned.
func (s *Scheduler) Wait() {
	<-s.stopped
	s.wg.Wait()
}

// Stats returns the scheduler counters. It must be called after Wait.
func (s *Scheduler) Stats() SchedulerStats {
	<-s.stopped
	return s.stats
}

// send delivers ev and waits for it to be applied.
func (s *Scheduler) send(ev event) bool {
	ev.ack = make(chan struct{})
	select {
	case s.events <- ev:
	case <-s.stopped:
		return false
	}
	select {
	case <-ev.ack:
		return true
	case <-s.stopped:
		return false
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer func() {
		s.stats.Pending = s.queue.len()
		close(s.stopped)
	}()

	// Nothing to crawl at all.
	if s.checkComplete() {
		return
	}

	for {
		// Offer the head only when nothing is in hand. A nil channel
		// disables the case, so an unanswered offer consumes nothing.
		var next chan<- string
		head, ok := s.queue.peek()
		if ok && !s.handoff {
			next = s.next
		}

		select {
		case <-ctx.Done():
			s.logger.Debug("scheduler cancelled",
				"queued", s.queue.len(),
				"running", len(s.registry),
			)
			return

		case next <- head:
			s.queue.pop()
			s.handoff = true

		case ev := <-s.events:
			finished := s.apply(ctx, ev)
			close(ev.ack)
			if finished {
				return
			}
		}
	}
}

// apply handles one event and reports whether the crawl is complete.
func (s *Scheduler) apply(ctx context.Context, ev event) bool {
	switch ev.kind {
	case eventPush:
		s.queue.push(ev.paths...)
		return false

	case eventStart:
		s.handoff = false
		s.nextID++
		t := task{id: s.nextID, path: ev.path}
		s.registry[t.id] = t
		s.stats.Started++
		s.launch(ctx, t, ev.fn)
		return false

	case eventSkip:
		s.handoff = false
		s.stats.Skipped++
		return s.checkComplete()

	case eventFinish:
		delete(s.registry, ev.id)
		s.stats.Finished++
		return s.checkComplete()
	}
	return false
}

// launch runs fn on a new goroutine and reports its removal when it returns.
func (s *Scheduler) launch(ctx context.Context, t task, fn TaskFunc) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.send(event{kind: eventFinish, id: t.id})
		fn(ctx, t.path)
	}()
}

// checkComplete evaluates the completion predicate and signals once.
func (s *Scheduler) checkComplete() bool {
	if len(s.registry) != 0 || s.queue.len() != 0 || s.handoff {
		return false
	}
	s.doneOnce.Do(func() {
		s.logger.Debug("crawl complete",
			"started", s.stats.Started,
			"skipped", s.stats.Skipped,
		)
		close(s.done)
	})
	return true
}
