// Command workqueue drives the blocking intrusive work queue.
//
// Usage:
//
//	go run ./cmd/workqueue stress -n 1000000 -p 8 -c 4 --pollers 2
//	go run ./cmd/workqueue bench -n 10000000
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/randomizedcoder/workqueue/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
