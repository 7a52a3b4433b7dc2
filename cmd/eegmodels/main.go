// eegmodels is the command line interface of the eeg-models toolchain.
//
// It lints and rewrites Poetry manifests (pyproject.toml), reports on
// declared dependencies, watches a manifest for changes, and applies the
// signal-processing transforms of pkg/transforms to CSV recordings.
//
// Exit codes:
//   - 0: success, no findings
//   - 1: the manifest is invalid or differs from canonical form
//   - 2: usage or internal error
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var debugLogging bool

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// exitError carries a specific process exit code out of a RunE. An empty
// message means the command already printed everything it had to say.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func usageErr(format string, args ...interface{}) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "eegmodels",
		Short: "Poetry manifest linter and EEG signal toolbox",
		Long: `eegmodels maintains the assets of an EEG deep-learning project.

It validates and canonicalizes Poetry manifests (pyproject.toml), reports
on declared dependencies and admitted CPython interpreters, and applies
band-pass filtering, decimation and epoch extraction to CSV recordings.`,
		Example: `  eegmodels check pyproject.toml
  eegmodels fmt --check pyproject.toml
  eegmodels bandpass --rate 250 --low 1 --high 40 signal.csv`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

			level := zerolog.InfoLevel
			if s := os.Getenv("LOG_LEVEL"); s != "" {
				if parsed, err := zerolog.ParseLevel(s); err == nil {
					level = parsed
				}
			}
			if debugLogging {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newCheckCmd(),
		newFmtCmd(),
		newDepsCmd(),
		newWatchCmd(),
		newBandpassCmd(),
		newEpochsCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
