// Package transforms implements the EEG preprocessing chain: zero-phase
// Butterworth bandpass filtering, anti-aliased decimation, channelwise
// scaling with running statistics, and marker-to-epoch extraction. A Record
// is one recording laid out channels by samples; every transform treats
// channels independently and works along the sample axis.
package transforms

// Record is one recording: Record[ch][i] is sample i of channel ch.
type Record [][]float64

// Channels returns the channel count.
func (r Record) Channels() int { return len(r) }

// Samples returns the per-channel sample count, 0 for an empty record.
func (r Record) Samples() int {
	if len(r) == 0 {
		return 0
	}
	return len(r[0])
}

// Transform maps a record to a new record, leaving the input untouched.
type Transform interface {
	Apply(rec Record) (Record, error)
}
