package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randomizedcoder/workqueue/internal/config"
	"github.com/randomizedcoder/workqueue/internal/dynlib"
	"github.com/randomizedcoder/workqueue/internal/queue"
	"github.com/randomizedcoder/workqueue/internal/worker"
)

// ErrLostTasks is returned when the executed count does not match the
// pushed count after a complete run.
var ErrLostTasks = errors.New("stress: executed count does not match pushed count")

func newStressCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run producers and consumers against one queue and verify delivery",
		Long: `stress pushes --tasks tasks from --producers goroutines into a single
queue drained by --consumers blocking workers and --pollers real-time
pollers. The queue is stopped once every producer is done; the run fails
if any task was lost or delivered twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			res, err := runStress(cmd.Context(), cfg, dynlib.Default(), slog.Default())
			printStress(cmd.OutOrStdout(), cfg, res)
			return err
		},
	}
	if err := config.AddFlags(v, cmd.Flags()); err != nil {
		panic(err)
	}
	return cmd
}

type stressResult struct {
	Pushed    uint64
	Stats     worker.Stats
	Contended uint64
	Elapsed   time.Duration
}

func runStress(ctx context.Context, cfg *config.Config, loader dynlib.Loader, logger *slog.Logger) (stressResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var res stressResult

	body, closeModule, err := taskBody(cfg.Module, loader)
	if err != nil {
		return res, err
	}
	defer closeModule()

	q := queue.NewBlocking[*worker.Task](queue.WithLogger(logger))
	tasks := make([]*worker.Task, cfg.Tasks)
	for i := range tasks {
		tasks[i] = worker.NewTask("stress", body)
	}

	var pool *worker.Pool
	if cfg.Consumers > 0 {
		pool = worker.NewPool(q, cfg.Consumers, worker.WithLogger(logger))
	}
	pollers := make([]*worker.Poller, cfg.Pollers)
	for i := range pollers {
		pollers[i] = worker.NewPoller(q, fmt.Sprintf("rt-%d", i),
			worker.WithLogger(logger),
			worker.WithReport(cfg.PollReport, 1024),
		)
	}

	executed := func() worker.Stats {
		var st worker.Stats
		if pool != nil {
			st = st.Add(pool.Stats())
		}
		for _, p := range pollers {
			st = st.Add(p.Stats())
		}
		return st
	}

	start := time.Now()

	var consumers conc.WaitGroup
	if pool != nil {
		consumers.Go(func() { pool.Run(ctx) })
	}
	for _, p := range pollers {
		consumers.Go(func() { p.Run(ctx) })
	}

	var pushed, contended atomic.Uint64
	var producers conc.WaitGroup
	for p := 0; p < cfg.Producers; p++ {
		producers.Go(func() {
			n := 0
			for i := p; i < len(tasks); i += cfg.Producers {
				if n++; n%1024 == 0 && ctx.Err() != nil {
					return
				}
				contended.Add(uint64(worker.Submit(q, tasks[i], cfg.TryPush)))
				pushed.Add(1)
			}
		})
	}
	producers.Wait()
	q.Stop()
	logger.Debug("producers done", "pushed", pushed.Load())

	// Pollers cannot observe end-of-stream; retire them once everything
	// pushed has run or the run is cancelled.
	for len(pollers) > 0 && executed().Executed < pushed.Load() && ctx.Err() == nil {
		time.Sleep(time.Millisecond)
	}
	for _, p := range pollers {
		p.Stop()
	}
	consumers.Wait()

	res.Elapsed = time.Since(start)
	res.Pushed = pushed.Load()
	res.Contended = contended.Load()
	res.Stats = executed()

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("stress: interrupted: %w", err)
	}
	if res.Stats.Executed != res.Pushed {
		return res, fmt.Errorf("%w: pushed %d, executed %d", ErrLostTasks, res.Pushed, res.Stats.Executed)
	}
	return res, nil
}

// taskBody returns the function every stress task runs: the module symbol
// when one is configured, otherwise a no-op.
func taskBody(m config.ModuleConfig, loader dynlib.Loader) (body func(), closeFn func(), err error) {
	if m.Path == "" {
		return func() {}, func() {}, nil
	}

	lib, err := loader.Load(m.Path)
	if err != nil {
		return nil, nil, err
	}
	body, err = dynlib.TaskFunc(lib, m.Symbol)
	if err != nil {
		_ = lib.Close()
		return nil, nil, err
	}
	return body, func() { _ = lib.Close() }, nil
}

func printStress(w io.Writer, cfg *config.Config, res stressResult) {
	fmt.Fprintf(w, "Stress run (%d tasks, %d producers, %d consumers, %d pollers, try-push=%v)\n",
		cfg.Tasks, cfg.Producers, cfg.Consumers, cfg.Pollers, cfg.TryPush)
	fmt.Fprintln(w, "─────────────────────────────────────────────────")

	fmt.Fprintf(w, "\nResults:\n")
	fmt.Fprintf(w, "  Pushed:    %d\n", res.Pushed)
	fmt.Fprintf(w, "  Executed:  %d (%d panicked)\n", res.Stats.Executed, res.Stats.Panicked)
	if cfg.TryPush {
		fmt.Fprintf(w, "  Contended TryPush attempts: %d\n", res.Contended)
	}
	fmt.Fprintf(w, "  Elapsed:   %v\n", res.Elapsed)

	if res.Stats.Executed == 0 || res.Elapsed <= 0 {
		return
	}
	perTask := float64(res.Elapsed.Nanoseconds()) / float64(res.Stats.Executed)
	fmt.Fprintf(w, "\nThroughput:\n")
	fmt.Fprintf(w, "  %.2f ns/task, %.2f M tasks/sec\n", perTask, 1000/perTask)
}
