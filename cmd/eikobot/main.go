// Command eikobot is the engine's entrypoint: compile, deploy and
// package subcommands over a cobra root command, grounded on the
// teacher's own cmd/devcmd and cli/main.go command trees.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/spf13/cobra"
)

func main() {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "eikobot",
		Short:         "A desired-state configuration engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newCompileCmd(), newDeployCmd(), newPackageCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(reportAndExitCode(err))
	}
}

// configureLogging installs a human-friendly text handler at the
// requested level, matching the teacher's slog-based logging setup.
func configureLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// reportAndExitCode prints err and returns the exit code spec §7
// assigns to it: 2 for an InternalError, 1 for every other error
// (structured or not).
func reportAndExitCode(err error) int {
	if e, ok := err.(*errors.Error); ok {
		fmt.Fprintln(os.Stderr, e.Error())
		printSourceExcerpt(e)
		if e.Kind == errors.KindInternal {
			return 2
		}
		return 1
	}
	fmt.Fprintln(os.Stderr, err.Error())
	return 1
}
