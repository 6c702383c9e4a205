// Package worker drains a queue.Queue of Tasks.
//
// Two consumer styles are provided:
//   - Pool: goroutines blocked in Pop until the queue is stopped and drained
//   - Poller: a real-time consumer that only ever calls TryPop and never
//     waits on the queue lock
//
// Neither owns the queue. The owner stops the queue (directly, or by
// cancelling the context given to Pool.Run) and stops pollers itself.
package worker

import (
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"

	"github.com/randomizedcoder/workqueue/internal/diag"
	"github.com/randomizedcoder/workqueue/internal/queue"
)

// Task is a unit of work that can be linked into a queue.Blocking without
// allocation. A Task popped from a queue may be pushed again.
type Task struct {
	queue.Link[*Task]

	Name string
	fn   func()
}

// NewTask returns a detached task running fn.
func NewTask(name string, fn func()) *Task {
	return &Task{Name: name, fn: fn}
}

// Run executes the task body. A nil body is a no-op.
func (t *Task) Run() {
	if t.fn != nil {
		t.fn()
	}
}

// Stats is a snapshot of consumer counters.
type Stats struct {
	Executed uint64
	Panicked uint64
}

// Add returns the element-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Executed: s.Executed + o.Executed,
		Panicked: s.Panicked + o.Panicked,
	}
}

type counters struct {
	executed atomic.Uint64
	panicked atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Executed: c.executed.Load(),
		Panicked: c.panicked.Load(),
	}
}

// execute runs t, converting a panic into a log line and a counter bump.
func execute(t *Task, log *slog.Logger, c *counters, consumer string) {
	var pc panics.Catcher
	pc.Try(t.Run)
	c.executed.Add(1)

	if r := pc.Recovered(); r != nil {
		c.panicked.Add(1)
		log.Error("task panicked",
			"consumer", consumer,
			"task", t.Name,
			"panic", r.Value,
		)
	}
}

// Submit pushes t onto q. With try set it uses TryPush and yields the
// processor between attempts instead of waiting on the lock. It returns the
// number of attempts that found the queue contended.
func Submit(q queue.Queue[*Task], t *Task, try bool) (contended int) {
	if !try {
		q.Push(t)
		return 0
	}
	// TryPush also fails for a queued task; retrying that would spin forever.
	if t.Linked() {
		diag.Failf("worker: submit of task %q that is already queued", t.Name)
		return 0
	}
	for !q.TryPush(t) {
		contended++
		runtime.Gosched()
	}
	return contended
}

// Option configures a Pool or a Poller.
type Option func(*settings)

type settings struct {
	logger         *slog.Logger
	reportInterval int64 // nanoseconds, 0 disables
	reportEvery    int
}

func defaultSettings() settings {
	return settings{
		logger:      slog.Default(),
		reportEvery: 1024,
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
