package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iparrondo/eeg-models/internal/lint"
	"github.com/iparrondo/eeg-models/pkg/manifest"
	"github.com/iparrondo/eeg-models/pkg/pep440"
)

type depRow struct {
	Name         string      `json:"name"`
	Normalized   string      `json:"normalized"`
	Group        string      `json:"group"`
	Constraint   string      `json:"constraint"`
	Status       string      `json:"status"`
	Interpreters *interpSpan `json:"interpreters,omitempty"`
}

// interpSpan summarizes the CPython releases a python constraint admits.
type interpSpan struct {
	Count  int    `json:"count"`
	Oldest string `json:"oldest,omitempty"`
	Newest string `json:"newest,omitempty"`
}

func newDepsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "deps [pyproject.toml]",
		Short: "List declared dependencies and their constraint health",
		Long: `deps prints every dependency of the manifest with its normalized name,
group (main or dev) and whether its version constraint is satisfiable.
For the python entry it also reports which released CPython interpreters
the constraint admits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "pyproject.toml"
			if len(args) == 1 {
				path = args[0]
			}
			m, err := manifest.Load(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return &exitError{code: 1}
			}

			rows := depRows(m)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tNORMALIZED\tGROUP\tCONSTRAINT\tSTATUS")
			for _, row := range rows {
				status := row.Status
				if row.Interpreters != nil && row.Interpreters.Count > 0 {
					status = fmt.Sprintf("%s, admits %d interpreters (%s to %s)",
						row.Status, row.Interpreters.Count, row.Interpreters.Oldest, row.Interpreters.Newest)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Name, row.Normalized, row.Group, row.Constraint, status)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	return cmd
}

func depRows(m *manifest.Manifest) []depRow {
	if m.Tool.Poetry == nil {
		return nil
	}
	groups := []struct {
		name string
		deps map[string]manifest.Dependency
	}{
		{"main", m.Tool.Poetry.Dependencies},
		{"dev", m.Tool.Poetry.DevDependencies},
	}

	var rows []depRow
	for _, g := range groups {
		names := make([]string, 0, len(g.deps))
		for name := range g.deps {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			dep := g.deps[name]
			row := depRow{
				Name:       name,
				Normalized: manifest.NormalizeName(name),
				Group:      g.name,
				Constraint: dep.Constraint,
			}
			ss, err := pep440.ParseSpecifiers(dep.Constraint)
			switch {
			case err != nil:
				row.Status = "unparseable"
			case ss.Empty():
				row.Status = "unsatisfiable"
			default:
				row.Status = "ok"
			}
			if row.Status == "ok" && row.Normalized == "python" {
				admitted := lint.AdmittedInterpreters(ss)
				span := &interpSpan{Count: len(admitted)}
				if len(admitted) > 0 {
					span.Oldest = admitted[0].String()
					span.Newest = admitted[len(admitted)-1].String()
				} else {
					row.Status = "no released interpreter"
				}
				row.Interpreters = span
			}
			rows = append(rows, row)
		}
	}
	return rows
}
