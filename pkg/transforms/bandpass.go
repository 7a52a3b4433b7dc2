package transforms

import "fmt"

// BandpassFilter is a zero-phase Butterworth bandpass. The band runs from
// the highpass edge (lower cutoff) to the lowpass edge (upper cutoff); both
// are in Hz against the recording's sampling rate.
type BandpassFilter struct {
	b, a []float64
	zi   []float64
}

// NewBandpassFilter designs the filter. Edges must satisfy
// 0 < highpass < lowpass < samplingRate/2.
func NewBandpassFilter(samplingRate float64, order int, highpass, lowpass float64) (*BandpassFilter, error) {
	if samplingRate <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %v", samplingRate)
	}
	if order < 1 {
		return nil, fmt.Errorf("filter order must be at least 1, got %d", order)
	}
	nyq := samplingRate / 2
	if highpass <= 0 || lowpass >= nyq || highpass >= lowpass {
		return nil, fmt.Errorf("band edges must satisfy 0 < highpass < lowpass < %v Hz, got [%v, %v]",
			nyq, highpass, lowpass)
	}

	b, a := butterBandpass(order, highpass/nyq, lowpass/nyq)
	zi, err := lfilterZi(b, a)
	if err != nil {
		return nil, err
	}
	return &BandpassFilter{b: b, a: a, zi: zi}, nil
}

// Coefficients returns copies of the transfer-function coefficients.
func (f *BandpassFilter) Coefficients() (b, a []float64) {
	return append([]float64(nil), f.b...), append([]float64(nil), f.a...)
}

// PadLen is the number of samples a channel must exceed to be filterable:
// the forward-backward pass extends each end by this much.
func (f *BandpassFilter) PadLen() int { return padLen(f.b, f.a) }

// Apply filters every channel forward and backward.
func (f *BandpassFilter) Apply(rec Record) (Record, error) {
	out := make(Record, len(rec))
	for ch, samples := range rec {
		y, err := filtfilt(f.b, f.a, f.zi, samples)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch, err)
		}
		out[ch] = y
	}
	return out, nil
}
