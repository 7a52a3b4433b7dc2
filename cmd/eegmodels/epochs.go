package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iparrondo/eeg-models/pkg/transforms"
)

func newEpochsCmd() *cobra.Command {
	var (
		labels     string
		factor     int
		emptyLabel float64
	)

	cmd := &cobra.Command{
		Use:   "epochs [markers.csv]",
		Short: "Map a marker stream to labeled epoch indices",
		Long: `epochs reads a single-row CSV of marker values, one per sample, and
emits a JSON array of epochs: the sample index of each non-empty marker
together with its class label. --labels maps marker values to labels.

When the signal has been decimated, pass the same factor with
--decimation so epoch indices match the downsampled signal.`,
		Example: `  eegmodels epochs --labels "5.0=1,6.0=2" markers.csv
  eegmodels epochs --labels "1=0,2=1" --decimation 4 markers.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapping, err := parseLabels(labels)
			if err != nil {
				return usageErr("eegmodels epochs: %v", err)
			}

			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return usageErr("eegmodels epochs: %v", err)
				}
				defer f.Close()
				in = f
			}
			rec, err := readRecord(in)
			if err != nil {
				return usageErr("eegmodels epochs: %v", err)
			}
			if rec.Channels() != 1 {
				return usageErr("eegmodels epochs: want one marker row, got %d rows", rec.Channels())
			}

			idx, err := transforms.NewMarkerIndex(mapping,
				transforms.WithDecimationFactor(factor),
				transforms.WithEmptyLabel(emptyLabel))
			if err != nil {
				return usageErr("eegmodels epochs: %v", err)
			}
			epochs, err := idx.Apply(rec[0])
			if err != nil {
				return usageErr("eegmodels epochs: %v", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(epochs)
		},
	}

	cmd.Flags().StringVar(&labels, "labels", "", `marker-to-label mapping, e.g. "5.0=1,6.0=2" (required)`)
	cmd.Flags().IntVar(&factor, "decimation", 1, "decimation factor the signal was downsampled by")
	cmd.Flags().Float64Var(&emptyLabel, "empty-label", 0, `marker value that means "no event"`)
	cmd.MarkFlagRequired("labels")
	return cmd
}

// parseLabels turns "5.0=1,6.0=2" into a marker-to-label map.
func parseLabels(s string) (map[float64]int, error) {
	mapping := make(map[float64]int)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		marker, label, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("label mapping %q is not marker=label", pair)
		}
		m, err := strconv.ParseFloat(strings.TrimSpace(marker), 64)
		if err != nil {
			return nil, fmt.Errorf("marker %q: %w", marker, err)
		}
		l, err := strconv.Atoi(strings.TrimSpace(label))
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", label, err)
		}
		mapping[m] = l
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("--labels must map at least one marker")
	}
	return mapping, nil
}
