package worker

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"

	"github.com/sourcegraph/conc"

	"github.com/randomizedcoder/workqueue/internal/queue"
)

// Pool runs a fixed number of blocking consumers against one queue.
type Pool struct {
	q       queue.Queue[*Task]
	workers int
	log     *slog.Logger
	c       counters
}

// NewPool creates a pool of workers consumers. workers <= 0 means
// runtime.NumCPU().
func NewPool(q queue.Queue[*Task], workers int, opts ...Option) *Pool {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		q:       q,
		workers: workers,
		log:     s.logger,
	}
}

// Workers returns the number of consumers Run starts.
func (p *Pool) Workers() int { return p.workers }

// Run starts the consumers and blocks until all of them have seen
// end-of-stream. Cancelling ctx stops the queue; queued tasks are still
// drained before Run returns.
func (p *Pool) Run(ctx context.Context) Stats {
	stopOnDone := context.AfterFunc(ctx, p.q.Stop)
	defer stopOnDone()

	var wg conc.WaitGroup
	for id := 0; id < p.workers; id++ {
		wg.Go(func() { p.drain(id) })
	}
	wg.Wait()

	st := p.Stats()
	p.log.Debug("pool drained",
		"workers", p.workers,
		"executed", st.Executed,
		"panicked", st.Panicked,
	)
	return st
}

// Stats returns the counters accumulated so far.
func (p *Pool) Stats() Stats { return p.c.snapshot() }

func (p *Pool) drain(id int) {
	name := "pool-" + strconv.Itoa(id)
	for {
		t, ok := p.q.Pop()
		if !ok {
			p.log.Debug("worker retired", "consumer", name)
			return
		}
		execute(t, p.log, &p.c, name)
	}
}
