package worker

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/randomizedcoder/workqueue/internal/queue"
)

// WithReport makes a Poller log its counters every interval. The clock is
// consulted once per every polls. A zero interval disables reporting.
func WithReport(interval time.Duration, every int) Option {
	return func(s *settings) {
		s.reportInterval = int64(interval)
		if every > 0 {
			s.reportEvery = every
		}
	}
}

// Poller is a consumer for goroutines that must never wait on the queue.
// It only uses TryPop, so a contended lock reads as "nothing to do".
//
// The stop flag is a single atomic load per iteration rather than a
// select on a context's Done channel.
type Poller struct {
	q    queue.Queue[*Task]
	name string
	log  *slog.Logger
	pace *pacer

	stop   atomic.Bool
	misses atomic.Uint64
	c      counters
}

// NewPoller creates a poller named name consuming from q.
func NewPoller(q queue.Queue[*Task], name string, opts ...Option) *Poller {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &Poller{
		q:    q,
		name: name,
		log:  s.logger,
		pace: newPacer(s.reportInterval, s.reportEvery),
	}
}

// Poll makes one non-blocking attempt to take and run a task.
// It reports whether a task ran.
func (p *Poller) Poll() bool {
	t, ok := p.q.TryPop()
	if !ok {
		p.misses.Add(1)
		return false
	}
	execute(t, p.log, &p.c, p.name)
	return true
}

// Run polls until Stop is called or ctx is done, yielding the processor
// after every miss. TryPop cannot tell a stopped queue from an empty one,
// so stopping pollers is the owner's job.
func (p *Poller) Run(ctx context.Context) Stats {
	stopOnDone := context.AfterFunc(ctx, p.Stop)
	defer stopOnDone()

	p.pace.reset()
	for !p.stop.Load() {
		if !p.Poll() {
			runtime.Gosched()
		}
		if p.pace.due() {
			p.report()
		}
	}
	p.report()
	return p.Stats()
}

// Stop asks Run to return after its current iteration.
// Safe to call multiple times and from any goroutine.
func (p *Poller) Stop() {
	p.stop.Store(true)
}

// Stats returns the counters accumulated so far.
func (p *Poller) Stats() Stats { return p.c.snapshot() }

// Misses returns how many polls found nothing to take.
func (p *Poller) Misses() uint64 { return p.misses.Load() }

func (p *Poller) report() {
	st := p.Stats()
	p.log.Debug("poller stats",
		"consumer", p.name,
		"executed", st.Executed,
		"panicked", st.Panicked,
		"misses", p.Misses(),
	)
}
