package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/iparrondo/eeg-models/internal/lint"
	"github.com/iparrondo/eeg-models/internal/watch"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [pyproject.toml]",
		Short: "Re-check a manifest whenever it changes",
		Long: `watch checks the manifest once, then re-checks it after every change
until interrupted. Editor save bursts are debounced into a single pass.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "pyproject.toml"
			if len(args) == 1 {
				path = args[0]
			}
			w := watch.New(path, lint.NewRunner())
			err := w.Run(cmd.Context())
			if err != nil && !errors.Is(err, context.Canceled) {
				return usageErr("eegmodels watch: %v", err)
			}
			return nil
		},
	}
}
