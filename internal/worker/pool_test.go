package worker_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/randomizedcoder/workqueue/internal/queue"
	"github.com/randomizedcoder/workqueue/internal/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestTask_Run(t *testing.T) {
	ran := false
	tk := worker.NewTask("t", func() { ran = true })
	tk.Run()
	if !ran {
		t.Error("expected task body to run")
	}

	// nil body is a no-op
	worker.NewTask("empty", nil).Run()
}

func TestStats_Add(t *testing.T) {
	got := worker.Stats{Executed: 3, Panicked: 1}.Add(worker.Stats{Executed: 2})
	if got.Executed != 5 || got.Panicked != 1 {
		t.Errorf("unexpected sum %+v", got)
	}
}

func TestPool_DrainsThenRetires(t *testing.T) {
	q := queue.NewBlocking[*worker.Task]()
	var ran atomic.Int64
	for i := 0; i < 100; i++ {
		q.Push(worker.NewTask("inc", func() { ran.Add(1) }))
	}
	q.Stop()

	p := worker.NewPool(q, 4, worker.WithLogger(discardLogger()))
	st := p.Run(context.Background())

	if st.Executed != 100 {
		t.Errorf("expected 100 executed, got %d", st.Executed)
	}
	if ran.Load() != 100 {
		t.Errorf("expected 100 task bodies to run, got %d", ran.Load())
	}
	if st.Panicked != 0 {
		t.Errorf("expected 0 panics, got %d", st.Panicked)
	}
}

func TestPool_ContextStopsQueue(t *testing.T) {
	q := queue.NewBlocking[*worker.Task]()
	p := worker.NewPool(q, 2, worker.WithLogger(discardLogger()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan worker.Stats, 1)
	go func() { done <- p.Run(ctx) }()

	q.Push(worker.NewTask("one", nil))

	cancel()

	select {
	case st := <-done:
		if st.Executed != 1 {
			t.Errorf("expected 1 executed, got %d", st.Executed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not retire after context cancel")
	}
	if !q.Stopped() {
		t.Error("expected cancelled context to stop the queue")
	}
}

func TestPool_RecoversTaskPanics(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, nil))

	q := queue.NewBlocking[*worker.Task]()
	q.Push(worker.NewTask("bad", func() { panic("boom") }))
	q.Push(worker.NewTask("good", nil))
	q.Stop()

	st := worker.NewPool(q, 1, worker.WithLogger(logger)).Run(context.Background())

	if st.Executed != 2 || st.Panicked != 1 {
		t.Errorf("expected 2 executed / 1 panicked, got %+v", st)
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(buf.String(), "task panicked") || !strings.Contains(buf.String(), "task=bad") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}

func TestPool_DefaultWorkers(t *testing.T) {
	p := worker.NewPool(queue.NewBlocking[*worker.Task](), 0)
	if p.Workers() < 1 {
		t.Errorf("expected at least one worker, got %d", p.Workers())
	}
}

func TestPool_TasksReusable(t *testing.T) {
	q := queue.NewBlocking[*worker.Task]()
	var runs atomic.Int64
	var tk *worker.Task
	tk = worker.NewTask("again", func() {
		// A popped task is detached, so its body may queue it again.
		if runs.Add(1) < 5 {
			q.Push(tk)
			return
		}
		q.Stop()
	})
	q.Push(tk)

	st := worker.NewPool(q, 1, worker.WithLogger(discardLogger())).Run(context.Background())
	if st.Executed != 5 {
		t.Errorf("expected task to run 5 times, got %d", st.Executed)
	}
	if tk.Linked() {
		t.Error("expected task detached after the pool retired")
	}
}

func TestSubmit(t *testing.T) {
	q := queue.NewBlocking[*worker.Task]()
	a, b := worker.NewTask("a", nil), worker.NewTask("b", nil)

	if n := worker.Submit(q, a, false); n != 0 {
		t.Errorf("expected 0 contended attempts for blocking submit, got %d", n)
	}
	if n := worker.Submit(q, b, true); n != 0 {
		t.Errorf("expected 0 contended attempts on idle queue, got %d", n)
	}
	if q.Len() != 2 {
		t.Errorf("expected Len() = 2, got %d", q.Len())
	}
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
