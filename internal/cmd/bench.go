package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/randomizedcoder/workqueue/internal/queue"
	"github.com/randomizedcoder/workqueue/internal/worker"
)

func newBenchCommand() *cobra.Command {
	var iterations, size int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time push+pop on the work queue against a buffered channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if iterations < 1 {
				return fmt.Errorf("bench: -n must be >= 1")
			}
			if size < 1 {
				return fmt.Errorf("bench: --size must be >= 1")
			}
			runBench(cmd.OutOrStdout(), iterations, size)
			return nil
		},
	}
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 10_000_000, "number of iterations")
	cmd.Flags().IntVar(&size, "size", 1024, "resident tasks (channel buffer size)")
	return cmd
}

type benchResult struct {
	Channel time.Duration
	Queue   time.Duration
	TryOps  time.Duration
}

// measure runs each hand-off style iterations times with size tasks
// resident, recycling the head task to the tail on every iteration.
func measure(iterations, size int) benchResult {
	var res benchResult
	tasks := make([]*worker.Task, size)
	for i := range tasks {
		tasks[i] = worker.NewTask("bench", nil)
	}

	// Buffered channel
	ch := make(chan *worker.Task, size)
	for _, t := range tasks {
		ch <- t
	}
	start := time.Now()
	for i := 0; i < iterations; i++ {
		t := <-ch
		ch <- t
	}
	res.Channel = time.Since(start)
	for range size {
		<-ch
	}

	// Blocking queue
	q := queue.NewBlocking[*worker.Task]()
	for _, t := range tasks {
		q.Push(t)
	}
	start = time.Now()
	for i := 0; i < iterations; i++ {
		t, _ := q.Pop()
		q.Push(t)
	}
	res.Queue = time.Since(start)

	// Try operations on the same queue
	start = time.Now()
	for i := 0; i < iterations; i++ {
		t, _ := q.TryPop()
		q.TryPush(t)
	}
	res.TryOps = time.Since(start)

	return res
}

func runBench(w io.Writer, iterations, size int) {
	fmt.Fprintf(w, "Benchmarking task hand-off (%d iterations, %d resident tasks)\n", iterations, size)
	fmt.Fprintln(w, "─────────────────────────────────────────────────")

	res := measure(iterations, size)

	chPerOp := float64(res.Channel.Nanoseconds()) / float64(iterations)
	qPerOp := float64(res.Queue.Nanoseconds()) / float64(iterations)
	tryPerOp := float64(res.TryOps.Nanoseconds()) / float64(iterations)

	fmt.Fprintf(w, "\nResults (pop + push per iteration):\n")
	fmt.Fprintf(w, "  Channel:         %v (%.2f ns/op)\n", res.Channel, chPerOp)
	fmt.Fprintf(w, "  Queue Pop/Push:  %v (%.2f ns/op)\n", res.Queue, qPerOp)
	fmt.Fprintf(w, "  Queue Try ops:   %v (%.2f ns/op)\n", res.TryOps, tryPerOp)

	if qPerOp < chPerOp {
		fmt.Fprintf(w, "\n  Speedup:  %.2fx (Queue faster)\n", chPerOp/qPerOp)
	} else {
		fmt.Fprintf(w, "\n  Speedup:  %.2fx (Channel faster)\n", qPerOp/chPerOp)
	}

	// Extrapolate to ops/second
	fmt.Fprintf(w, "\nThroughput (theoretical max):\n")
	fmt.Fprintf(w, "  Channel:  %.2f M ops/sec\n", 1000/chPerOp)
	fmt.Fprintf(w, "  Queue:    %.2f M ops/sec\n", 1000/qPerOp)
}
