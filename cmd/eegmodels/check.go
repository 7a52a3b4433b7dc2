package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/iparrondo/eeg-models/internal/cache"
	"github.com/iparrondo/eeg-models/internal/lint"
)

func newCheckCmd() *cobra.Command {
	var (
		format   string
		rules    []string
		noCache  bool
		cacheDir string
	)

	cmd := &cobra.Command{
		Use:   "check [pyproject.toml ...]",
		Short: "Lint Poetry manifests",
		Long: `check decodes each manifest and runs every lint rule against it.

Findings are reported per manifest. Unchanged manifests are served from an
on-disk cache keyed by content hash, so repeated runs are cheap.

Rules:
` + ruleList(),
		Example: `  eegmodels check pyproject.toml
  eegmodels check --format json pyproject.toml
  eegmodels check --rules EM004,EM005 projects/*/pyproject.toml`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"pyproject.toml"}
			}
			render, err := renderFunc(format)
			if err != nil {
				return usageErr("eegmodels check: %v", err)
			}

			var opts []lint.Option
			if len(rules) > 0 {
				opts = append(opts, lint.WithRules(rules...))
			}
			if !noCache {
				store, err := openCache(cacheDir)
				if err != nil {
					log.Warn().Err(err).Msg("report cache disabled")
				} else {
					defer store.Close()
					opts = append(opts, lint.WithCache(store))
				}
			}
			runner := lint.NewRunner(opts...)

			invalid := false
			for _, path := range args {
				rep, err := runner.Check(cmd.Context(), path)
				if err != nil {
					// Unreadable and unparseable manifests both count as
					// invalid, not as usage errors.
					fmt.Fprintln(os.Stderr, err)
					invalid = true
					continue
				}
				if err := render(rep, cmd.OutOrStdout()); err != nil {
					return usageErr("eegmodels check: %v", err)
				}
				if !rep.Valid() {
					invalid = true
				}
			}
			if invalid {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "report format: text, json or yaml")
	cmd.Flags().StringSliceVar(&rules, "rules", nil, "rule codes to run (default all)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the report cache")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "report cache directory (default the user cache dir)")
	return cmd
}

func ruleList() string {
	var b strings.Builder
	for _, r := range lint.Rules() {
		fmt.Fprintf(&b, "  %s  %s\n", r.Code, r.Desc)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderFunc(format string) (func(*lint.Report, io.Writer) error, error) {
	switch format {
	case "text":
		return (*lint.Report).RenderText, nil
	case "json":
		return (*lint.Report).RenderJSON, nil
	case "yaml":
		return (*lint.Report).RenderYAML, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func openCache(dir string) (*cache.Store, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolving cache directory: %w", err)
		}
		dir = filepath.Join(base, "eegmodels")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return cache.Open(filepath.Join(dir, "reports.db"))
}
