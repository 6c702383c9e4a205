// Package cmd implements the workqueue command line.
package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randomizedcoder/workqueue/internal/config"
	"github.com/randomizedcoder/workqueue/internal/logging"
)

// NewRootCommand builds the command tree around a fresh configuration.
func NewRootCommand() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:   "workqueue",
		Short: "Exercise and benchmark the blocking intrusive work queue",
		Long: `workqueue drives the blocking intrusive work queue with configurable
producers, blocking consumers and real-time pollers, and compares its
hand-off cost against a buffered channel.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (YAML)")
	pf.String("log-level", logging.LevelInfo, "log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-format", logging.FormatText, "log format (text, json)")
	_ = v.BindPFlag("config", pf.Lookup("config"))
	_ = v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log.format", pf.Lookup("log-format"))

	root.AddCommand(newStressCommand(v))
	root.AddCommand(newBenchCommand())
	return root
}

// Execute runs the root command; cancelling ctx interrupts a running stress.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	if path := v.GetString("config"); path != "" {
		if err := config.ReadFile(v, path); err != nil {
			return err
		}
	}

	logger := logging.New(cmd.ErrOrStderr(), v.GetString("log.level"), v.GetString("log.format"))
	slog.SetDefault(logger)
	return nil
}
