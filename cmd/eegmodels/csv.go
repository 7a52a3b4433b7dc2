package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iparrondo/eeg-models/pkg/transforms"
)

// readRecord reads a CSV where each row is one channel and each column one
// sample. All rows must have the same number of columns.
func readRecord(r io.Reader) (transforms.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	var rec transforms.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		samples := make([]float64, len(row))
		for i, field := range row {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", len(rec)+1, i+1, err)
			}
			samples[i] = v
		}
		rec = append(rec, samples)
	}
	if len(rec) == 0 {
		return nil, fmt.Errorf("no samples in input")
	}
	return rec, nil
}

func writeRecord(w io.Writer, rec transforms.Record) error {
	cw := csv.NewWriter(w)
	row := make([]string, 0, rec.Samples())
	for _, samples := range rec {
		row = row[:0]
		for _, v := range samples {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
