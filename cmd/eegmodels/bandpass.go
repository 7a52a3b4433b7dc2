package main

import (
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/iparrondo/eeg-models/pkg/transforms"
)

func newBandpassCmd() *cobra.Command {
	var (
		rate   float64
		order  int
		low    float64
		high   float64
		factor int
		output string
	)

	cmd := &cobra.Command{
		Use:   "bandpass [signal.csv]",
		Short: "Band-pass filter a multi-channel recording",
		Long: `bandpass applies a zero-phase Butterworth band-pass filter to a CSV
recording where each row is one channel and each column one sample.
Without a file argument the recording is read from stdin.

With --decimate the filtered signal is additionally low-pass filtered and
downsampled by the given factor.`,
		Example: `  eegmodels bandpass --rate 250 --low 1 --high 40 signal.csv
  cat signal.csv | eegmodels bandpass --rate 100 --decimate 4 -o out.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return usageErr("eegmodels bandpass: %v", err)
				}
				defer f.Close()
				in = f
			}
			rec, err := readRecord(in)
			if err != nil {
				return usageErr("eegmodels bandpass: %v", err)
			}

			bp, err := transforms.NewBandpassFilter(rate, order, low, high)
			if err != nil {
				return usageErr("eegmodels bandpass: %v", err)
			}
			out, err := bp.Apply(rec)
			if err != nil {
				return usageErr("eegmodels bandpass: %v", err)
			}

			if factor > 1 {
				dec, err := transforms.NewDecimator(factor)
				if err != nil {
					return usageErr("eegmodels bandpass: %v", err)
				}
				out, err = dec.Apply(out)
				if err != nil {
					return usageErr("eegmodels bandpass: %v", err)
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return usageErr("eegmodels bandpass: %v", err)
				}
				defer f.Close()
				w = f
			}
			if err := writeRecord(w, out); err != nil {
				return usageErr("eegmodels bandpass: %v", err)
			}
			log.Debug().
				Int("channels", out.Channels()).
				Int("samples", out.Samples()).
				Msg("filtered recording")
			return nil
		},
	}

	cmd.Flags().Float64Var(&rate, "rate", 250, "sampling rate in Hz")
	cmd.Flags().IntVar(&order, "order", 4, "filter order")
	cmd.Flags().Float64Var(&low, "low", 1, "lower band edge in Hz")
	cmd.Flags().Float64Var(&high, "high", 40, "upper band edge in Hz")
	cmd.Flags().IntVar(&factor, "decimate", 1, "decimation factor applied after filtering")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result here instead of stdout")
	return cmd
}
