package worker_test

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/randomizedcoder/workqueue/internal/queue"
	"github.com/randomizedcoder/workqueue/internal/worker"
)

func TestPoller_Poll(t *testing.T) {
	q := queue.NewBlocking[*worker.Task]()
	p := worker.NewPoller(q, "rt-0", worker.WithLogger(discardLogger()))

	if p.Poll() {
		t.Error("expected Poll() = false on empty queue")
	}
	if p.Misses() != 1 {
		t.Errorf("expected 1 miss, got %d", p.Misses())
	}

	ran := false
	q.Push(worker.NewTask("x", func() { ran = true }))
	if !p.Poll() {
		t.Fatal("expected Poll() = true with a queued task")
	}
	if !ran {
		t.Error("expected task body to run")
	}
	if st := p.Stats(); st.Executed != 1 {
		t.Errorf("expected 1 executed, got %d", st.Executed)
	}
}

func TestPoller_StopEndsRun(t *testing.T) {
	q := queue.NewBlocking[*worker.Task]()
	p := worker.NewPoller(q, "rt-0",
		worker.WithLogger(discardLogger()),
		worker.WithReport(time.Millisecond, 1),
	)

	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		q.Push(worker.NewTask("inc", func() { ran.Add(1) }))
	}

	done := make(chan worker.Stats, 1)
	go func() { done <- p.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for ran.Load() < 10 {
		if time.Now().After(deadline) {
			t.Fatalf("poller ran only %d of 10 tasks", ran.Load())
		}
		time.Sleep(time.Millisecond)
	}
	p.Stop()
	p.Stop()

	select {
	case st := <-done:
		if st.Executed != 10 {
			t.Errorf("expected 10 executed, got %d", st.Executed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestPoller_ContextEndsRun(t *testing.T) {
	q := queue.NewBlocking[*worker.Task]()
	p := worker.NewPoller(q, "rt-0", worker.WithLogger(discardLogger()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}

// TestPoller_WithPoolConservation runs a poller next to blocking consumers
// while mixed try/blocking producers contend for the lock.
func TestPoller_WithPoolConservation(t *testing.T) {
	const total = 5000

	q := queue.NewBlocking[*worker.Task]()
	var ran atomic.Int64
	tasks := make([]*worker.Task, total)
	for i := range tasks {
		tasks[i] = worker.NewTask("inc", func() { ran.Add(1) })
	}

	pool := worker.NewPool(q, 2, worker.WithLogger(discardLogger()))
	poller := worker.NewPoller(q, "rt-0", worker.WithLogger(discardLogger()))

	var consumers sync.WaitGroup
	var poolStats, pollerStats worker.Stats
	consumers.Add(2)
	go func() {
		defer consumers.Done()
		poolStats = pool.Run(context.Background())
	}()
	go func() {
		defer consumers.Done()
		pollerStats = poller.Run(context.Background())
	}()

	var producers sync.WaitGroup
	for p := 0; p < 4; p++ {
		producers.Add(1)
		go func(p int) {
			defer producers.Done()
			for i := p; i < total; i += 4 {
				worker.Submit(q, tasks[i], p%2 == 0)
			}
		}(p)
	}
	producers.Wait()

	// Pool workers return once the queue is stopped and drained.
	q.Stop()
	for ran.Load() < total {
		runtime.Gosched()
	}
	poller.Stop()
	consumers.Wait()

	sum := poolStats.Add(pollerStats)
	if sum.Executed != total {
		t.Errorf("expected %d executed across consumers, got %d (pool=%d poller=%d)",
			total, sum.Executed, poolStats.Executed, pollerStats.Executed)
	}
	if ran.Load() != total {
		t.Errorf("expected %d task bodies to run, got %d", total, ran.Load())
	}
}
