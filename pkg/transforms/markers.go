package transforms

import (
	"errors"
	"fmt"
)

// ErrUnknownLabel reports a non-empty marker value missing from the mapping.
var ErrUnknownLabel = errors.New("marker is not in the label mapping")

// Epoch is one labeled event: the sample index in the (possibly decimated)
// timeline and the mapped class label.
type Epoch struct {
	Index int `json:"index"`
	Label int `json:"label"`
}

// MarkerIndex turns a marker channel into labeled epochs. Samples equal to
// the empty label are skipped; every other marker value must appear in the
// mapping. Indexes are divided by the decimation factor so epochs line up
// with signals that went through a Decimator.
type MarkerIndex struct {
	mapping    map[float64]int
	factor     int
	emptyLabel float64
}

// MarkerOption adjusts a MarkerIndex.
type MarkerOption func(*MarkerIndex)

// WithDecimationFactor aligns epoch indexes with signals decimated by factor.
func WithDecimationFactor(factor int) MarkerOption {
	return func(m *MarkerIndex) { m.factor = factor }
}

// WithEmptyLabel sets the marker value that means "no event". Default 0.
func WithEmptyLabel(v float64) MarkerOption {
	return func(m *MarkerIndex) { m.emptyLabel = v }
}

// NewMarkerIndex builds the extractor for a label mapping.
func NewMarkerIndex(mapping map[float64]int, opts ...MarkerOption) (*MarkerIndex, error) {
	if len(mapping) == 0 {
		return nil, fmt.Errorf("label mapping is empty")
	}
	m := &MarkerIndex{mapping: mapping, factor: 1}
	for _, opt := range opts {
		opt(m)
	}
	if m.factor < 1 {
		return nil, fmt.Errorf("decimation factor must be at least 1, got %d", m.factor)
	}
	return m, nil
}

// Apply extracts the epochs from one marker channel.
func (m *MarkerIndex) Apply(markers []float64) ([]Epoch, error) {
	var epochs []Epoch
	for i, label := range markers {
		if label == m.emptyLabel {
			continue
		}
		mapped, ok := m.mapping[label]
		if !ok {
			return nil, fmt.Errorf("marker %v at sample %d: %w", label, i, ErrUnknownLabel)
		}
		epochs = append(epochs, Epoch{Index: i / m.factor, Label: mapped})
	}
	return epochs, nil
}
