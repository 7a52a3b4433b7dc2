package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/iparrondo/eeg-models/pkg/manifest"
)

func newFmtCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "fmt [pyproject.toml ...]",
		Short: "Rewrite Poetry manifests in canonical form",
		Long: `fmt decodes each manifest and writes it back in canonical form:
tables in a fixed order, dependencies sorted by name, and consistent
quoting. Comments and tables outside the schema do not survive the
rewrite. Files are replaced atomically, so a crash never leaves a
half-written manifest behind.

With --check nothing is rewritten; files that differ from canonical form
are listed and the command exits 1.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"pyproject.toml"}
			}
			dirty := false
			broken := false
			for _, path := range args {
				orig, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					broken = true
					continue
				}
				m, err := manifest.Decode(bytes.NewReader(orig))
				if err != nil {
					var perr *manifest.ParseError
					if errors.As(err, &perr) {
						perr.Path = path
						fmt.Fprintln(os.Stderr, perr)
					} else {
						fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					}
					broken = true
					continue
				}
				formatted, err := manifest.Format(m)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					broken = true
					continue
				}
				if bytes.Equal(orig, formatted) {
					continue
				}
				dirty = true
				if check {
					fmt.Fprintln(cmd.OutOrStdout(), path)
					continue
				}
				if dropped := m.ForeignTables(); len(dropped) > 0 {
					log.Warn().Str("manifest", path).Strs("tables", dropped).
						Msg("rewrite drops tables outside the schema")
				}
				if err := manifest.WriteFile(path, m); err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					broken = true
					continue
				}
				log.Info().Str("manifest", path).Msg("rewrote manifest")
			}
			if broken || (check && dirty) {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "list files that are not canonical and exit 1 instead of rewriting")
	return cmd
}
