package transforms

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotFitted reports a Scale call on a channel with no accumulated
// statistics.
var ErrNotFitted = errors.New("channel has no fitted statistics")

// Scaler accumulates running statistics per channel and scales samples with
// them. Implementations are not safe for concurrent use.
type Scaler interface {
	// PartialFit folds one channel's samples into that channel's statistics.
	PartialFit(ch int, samples []float64)
	// Scale returns the scaled samples for a fitted channel.
	Scale(ch int, samples []float64) ([]float64, error)
}

// StandardScaler centers each channel on its running mean and divides by the
// running population standard deviation. A zero-variance channel divides by
// 1, so constant signals map to 0.
type StandardScaler struct {
	stats []meanVar
}

type meanVar struct {
	n    float64
	mean float64
	m2   float64
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

func (s *StandardScaler) PartialFit(ch int, samples []float64) {
	if len(samples) == 0 {
		return
	}
	for len(s.stats) <= ch {
		s.stats = append(s.stats, meanVar{})
	}

	bn := float64(len(samples))
	var sum float64
	for _, x := range samples {
		sum += x
	}
	bmean := sum / bn
	var bm2 float64
	for _, x := range samples {
		d := x - bmean
		bm2 += d * d
	}

	// Merge the batch moments into the running ones without revisiting
	// earlier samples.
	st := &s.stats[ch]
	if st.n == 0 {
		st.n, st.mean, st.m2 = bn, bmean, bm2
		return
	}
	delta := bmean - st.mean
	total := st.n + bn
	st.m2 += bm2 + delta*delta*st.n*bn/total
	st.mean += delta * bn / total
	st.n = total
}

func (s *StandardScaler) Scale(ch int, samples []float64) ([]float64, error) {
	if ch < 0 || ch >= len(s.stats) || s.stats[ch].n == 0 {
		return nil, fmt.Errorf("channel %d: %w", ch, ErrNotFitted)
	}
	st := s.stats[ch]
	div := math.Sqrt(st.m2 / st.n)
	if div == 0 {
		div = 1
	}
	out := make([]float64, len(samples))
	for i, x := range samples {
		out[i] = (x - st.mean) / div
	}
	return out, nil
}

// MinMaxScaler maps each channel's running range onto [0, 1]. A degenerate
// range maps everything to 0.
type MinMaxScaler struct {
	ranges []minMax
}

type minMax struct {
	fitted   bool
	min, max float64
}

func NewMinMaxScaler() *MinMaxScaler { return &MinMaxScaler{} }

func (s *MinMaxScaler) PartialFit(ch int, samples []float64) {
	if len(samples) == 0 {
		return
	}
	for len(s.ranges) <= ch {
		s.ranges = append(s.ranges, minMax{})
	}
	r := &s.ranges[ch]
	for _, x := range samples {
		if !r.fitted {
			r.fitted, r.min, r.max = true, x, x
			continue
		}
		if x < r.min {
			r.min = x
		}
		if x > r.max {
			r.max = x
		}
	}
}

func (s *MinMaxScaler) Scale(ch int, samples []float64) ([]float64, error) {
	if ch < 0 || ch >= len(s.ranges) || !s.ranges[ch].fitted {
		return nil, fmt.Errorf("channel %d: %w", ch, ErrNotFitted)
	}
	r := s.ranges[ch]
	div := r.max - r.min
	if div == 0 {
		div = 1
	}
	out := make([]float64, len(samples))
	for i, x := range samples {
		out[i] = (x - r.min) / div
	}
	return out, nil
}

// ChannelScaler adapts a Scaler to records: PartialFit accumulates channel
// statistics over batches, Apply scales each channel with its own.
type ChannelScaler struct {
	scaler Scaler
}

func NewChannelScaler(s Scaler) *ChannelScaler { return &ChannelScaler{scaler: s} }

// PartialFit folds one record into the statistics.
func (c *ChannelScaler) PartialFit(rec Record) {
	for ch, samples := range rec {
		c.scaler.PartialFit(ch, samples)
	}
}

// Apply scales every channel; it fails if any channel was never fitted.
func (c *ChannelScaler) Apply(rec Record) (Record, error) {
	out := make(Record, len(rec))
	for ch, samples := range rec {
		y, err := c.scaler.Scale(ch, samples)
		if err != nil {
			return nil, err
		}
		out[ch] = y
	}
	return out, nil
}
