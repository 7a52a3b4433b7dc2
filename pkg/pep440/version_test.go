package pep440

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Canonical(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		release    []int
		epoch      int
		pre        *Pre
		post       *int
		dev        *int
		normalized string
	}{
		{
			name:       "plain release",
			input:      "1.21.4",
			release:    []int{1, 21, 4},
			normalized: "1.21.4",
		},
		{
			name:       "two component",
			input:      "3.8",
			release:    []int{3, 8},
			normalized: "3.8",
		},
		{
			name:       "beta tag",
			input:      "21.9b0",
			release:    []int{21, 9},
			pre:        &Pre{Phase: PhaseBeta, N: 0},
			normalized: "21.9b0",
		},
		{
			name:       "release candidate",
			input:      "2.0rc1",
			release:    []int{2, 0},
			pre:        &Pre{Phase: PhaseRC, N: 1},
			normalized: "2.0rc1",
		},
		{
			name:       "spelled alpha with separator",
			input:      "1.0.alpha2",
			release:    []int{1, 0},
			pre:        &Pre{Phase: PhaseAlpha, N: 2},
			normalized: "1.0a2",
		},
		{
			name:       "post release",
			input:      "1.0.post2",
			release:    []int{1, 0},
			post:       intPtr(2),
			normalized: "1.0.post2",
		},
		{
			name:       "dev release",
			input:      "1.0.dev3",
			release:    []int{1, 0},
			dev:        intPtr(3),
			normalized: "1.0.dev3",
		},
		{
			name:       "epoch",
			input:      "1!2.0",
			release:    []int{2, 0},
			epoch:      1,
			normalized: "1!2.0",
		},
		{
			name:       "v prefix",
			input:      "v1.2",
			release:    []int{1, 2},
			normalized: "1.2",
		},
		{
			name:       "pre with post and dev",
			input:      "1.0a1.post1.dev1",
			release:    []int{1, 0},
			pre:        &Pre{Phase: PhaseAlpha, N: 1},
			post:       intPtr(1),
			dev:        intPtr(1),
			normalized: "1.0a1.post1.dev1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.epoch, v.Epoch)
			assert.Equal(t, tt.release, v.Release)
			assert.Equal(t, tt.pre, v.Pre)
			assert.Equal(t, tt.post, v.Post)
			assert.Equal(t, tt.dev, v.Dev)
			assert.Equal(t, tt.normalized, v.String())
			assert.Equal(t, tt.input, v.Original())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"abc",
		"1.0+local",
		"1.0 2.0",
		"1..2",
		"1.0.whatever",
		"-1.0",
		"!2.0",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestCompare_Ordering(t *testing.T) {
	// Strictly ascending per PEP 440.
	ordered := []string{
		"0.1",
		"1.0.dev1",
		"1.0a1.dev1",
		"1.0a1",
		"1.0a2",
		"1.0b1",
		"1.0rc1",
		"1.0",
		"1.0.post1",
		"1.0.1",
		"1.9",
		"1.10",
		"1.21.4",
		"2.0",
		"1!0.5",
	}
	for i := 1; i < len(ordered); i++ {
		lo := MustParse(ordered[i-1])
		hi := MustParse(ordered[i])
		assert.True(t, lo.Less(hi), "%s < %s", ordered[i-1], ordered[i])
		assert.True(t, hi.Compare(lo) > 0, "%s > %s", ordered[i], ordered[i-1])
	}
}

func TestCompare_TrailingZeros(t *testing.T) {
	assert.True(t, MustParse("1.0").Equal(MustParse("1.0.0")))
	assert.True(t, MustParse("3.8").Equal(MustParse("3.8.0.0")))
	assert.False(t, MustParse("1.0").Equal(MustParse("1.0.1")))
}

func TestIsPrerelease(t *testing.T) {
	assert.True(t, MustParse("21.9b0").IsPrerelease())
	assert.True(t, MustParse("1.0.dev1").IsPrerelease())
	assert.False(t, MustParse("1.0").IsPrerelease())
	assert.False(t, MustParse("1.0.post1").IsPrerelease())
}

func intPtr(n int) *int { return &n }
