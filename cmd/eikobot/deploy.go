package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kazaamjt/eikobot/internal/export"
	"github.com/kazaamjt/eikobot/internal/scheduler"
	"github.com/spf13/cobra"
)

func newDeployCmd() *cobra.Command {
	var dryRun bool
	var logProgress bool
	var format string

	cmd := &cobra.Command{
		Use:   "deploy [file]",
		Short: "Compile and deploy an Eikobot model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryPoint := ""
			if len(args) == 1 {
				entryPoint = args[0]
			}
			result, err := compileModule(entryPoint)
			if err != nil {
				return err
			}

			if dryRun && format == "cbor" {
				data, err := export.EncodeCBOR(result.tasks)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			sched := scheduler.New(slog.Default())
			sched.DryRun = dryRun || result.settings.DryRun
			if logProgress {
				sched.OnProgress = func(p scheduler.Progress) {
					fmt.Fprintf(os.Stderr, "\rdeploying: %d/%d", p.Done, p.Total)
					if p.Done == p.Total {
						fmt.Fprintln(os.Stderr)
					}
				}
			}

			runResult, err := sched.Run(ctx, result.tasks)
			if err != nil {
				return err
			}
			if runResult.Failed {
				return fmt.Errorf("deployment finished with failures")
			}
			slog.Info("deployment finished successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be deployed without running any handler")
	cmd.Flags().BoolVar(&logProgress, "log-progress", false, "Print a live task-completion counter to stderr")
	cmd.Flags().StringVar(&format, "format", "text", "Dry-run output format: text or cbor")
	return cmd
}

// signalContext cancels on SIGINT/SIGTERM, letting an in-flight deploy
// unwind through context cancellation rather than an abrupt process
// kill (spec §5 "a cancelled context skips remaining tasks").
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
