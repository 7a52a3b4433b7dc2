package transforms

import "fmt"

const (
	decimOrder  = 8
	decimRipple = 0.05
)

// Decimator downsamples by an integer factor after a zero-phase anti-alias
// lowpass (Chebyshev type I, order 8, 0.05 dB passband ripple, cutoff at 0.8
// of the post-decimation Nyquist). Keep the factor at 13 or below; for
// stronger reduction chain several decimators.
type Decimator struct {
	factor int
	b, a   []float64
	zi     []float64
}

// NewDecimator builds a decimator for the given factor (at least 1).
func NewDecimator(factor int) (*Decimator, error) {
	if factor < 1 {
		return nil, fmt.Errorf("decimation factor must be at least 1, got %d", factor)
	}
	b, a := cheby1Lowpass(decimOrder, decimRipple, 0.8/float64(factor))
	zi, err := lfilterZi(b, a)
	if err != nil {
		return nil, err
	}
	return &Decimator{factor: factor, b: b, a: a, zi: zi}, nil
}

// Factor returns the decimation factor.
func (d *Decimator) Factor() int { return d.factor }

// Apply filters and downsamples every channel, keeping samples 0, factor,
// 2*factor and so on.
func (d *Decimator) Apply(rec Record) (Record, error) {
	out := make(Record, len(rec))
	for ch, samples := range rec {
		y, err := filtfilt(d.b, d.a, d.zi, samples)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch, err)
		}
		kept := make([]float64, 0, (len(y)+d.factor-1)/d.factor)
		for i := 0; i < len(y); i += d.factor {
			kept = append(kept, y[i])
		}
		out[ch] = kept
	}
	return out, nil
}
