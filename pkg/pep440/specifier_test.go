package pep440

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecifiers_Valid(t *testing.T) {
	tests := []struct {
		input       string
		clauses     int
		firstOp     Operator
		firstVer    string
		hasWildcard bool
	}{
		{input: ">=1.21.4,<2.0.0", clauses: 2, firstOp: OpGte, firstVer: "1.21.4"},
		{input: ">= 3.8, < 3.11", clauses: 2, firstOp: OpGte, firstVer: "3.8"},
		{input: "^5.9.3", clauses: 1, firstOp: OpCaret, firstVer: "5.9.3"},
		{input: "~1.2", clauses: 1, firstOp: OpTilde, firstVer: "1.2"},
		{input: "~=2.26.0", clauses: 1, firstOp: OpCompatible, firstVer: "2.26.0"},
		{input: "==1.*", clauses: 1, firstOp: OpEq, firstVer: "1", hasWildcard: true},
		{input: "1.*", clauses: 1, firstOp: OpEq, firstVer: "1", hasWildcard: true},
		{input: "!=1.5.*", clauses: 1, firstOp: OpNe, firstVer: "1.5", hasWildcard: true},
		{input: "1.11.0", clauses: 1, firstOp: OpEq, firstVer: "1.11.0"},
		{input: "^21.9b0", clauses: 1, firstOp: OpCaret, firstVer: "21.9b0"},
		{input: "*", clauses: 1, firstOp: OpAny},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			set, err := ParseSpecifiers(tt.input)
			require.NoError(t, err)
			require.Len(t, set.branches, 1)
			require.Len(t, set.branches[0], tt.clauses)
			first := set.branches[0][0]
			assert.Equal(t, tt.firstOp, first.Op)
			assert.Equal(t, tt.hasWildcard, first.Wildcard)
			if tt.firstVer != "" {
				assert.Equal(t, tt.firstVer, first.Version.String())
			}
			assert.Equal(t, tt.input, set.String())
		})
	}
}

func TestParseSpecifiers_OrBranches(t *testing.T) {
	set, err := ParseSpecifiers(">=2.0 || >=1.8,<1.9")
	require.NoError(t, err)
	require.Len(t, set.branches, 2)
	assert.Len(t, set.branches[0], 1)
	assert.Len(t, set.branches[1], 2)
}

func TestParseSpecifiers_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"  ",
		">=",
		">=,<2.0",
		"~=1",
		">=1.0 <2.0",
		"nonsense",
		">=1.*",
		"!=*",
		"==1.5b1.*",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSpecifiers(input)
			assert.Error(t, err)
		})
	}
}

func TestSpecifierSet_Match(t *testing.T) {
	tests := []struct {
		set     string
		version string
		want    bool
	}{
		{">=1.21.4,<2.0.0", "1.21.4", true},
		{">=1.21.4,<2.0.0", "1.26.3", true},
		{">=1.21.4,<2.0.0", "2.0.0", false},
		{">=1.21.4,<2.0.0", "1.21.3", false},
		{">=1.21.4,<2.0.0", "1.22.0b1", false}, // pre-release gated out
		{"^21.9b0", "21.9b0", true},            // names a pre-release, so admits it
		{"^21.9b0", "21.12.0", true},
		{"^21.9b0", "22.0.0", false},
		{"^0.2.3", "0.2.9", true},
		{"^0.2.3", "0.3.0", false},
		{"~1.2", "1.2.9", true},
		{"~1.2", "1.3.0", false},
		{"~=2.26.0", "2.26.5", true},
		{"~=2.26.0", "2.27.0", false},
		{"==1.*", "1.9.9", true},
		{"==1.*", "2.0.0", false},
		{"!=1.5.*", "1.5.2", false},
		{"!=1.5.*", "1.6.0", true},
		{"*", "4.63.1", true},
		{">=2.0 || >=1.8,<1.9", "1.8.5", true},
		{">=2.0 || >=1.8,<1.9", "1.9.5", false},
		{">=2.0 || >=1.8,<1.9", "2.4.0", true},
		{"==3.8", "3.8.0", true}, // trailing zeros insignificant
	}

	for _, tt := range tests {
		t.Run(tt.set+" vs "+tt.version, func(t *testing.T) {
			set := MustParseSpecifiers(tt.set)
			got := set.Match(MustParse(tt.version))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpecifierSet_Empty(t *testing.T) {
	tests := []struct {
		set  string
		want bool
	}{
		{">=1.21.4,<2.0.0", false},
		{">=2.0,<1.0", true},
		{">=1.0,<1.0", true},
		{">=1.0,<=1.0", false},
		{">1.0,<=1.0", true},
		{"==1.5,!=1.5", true},
		{"==1.5,==1.6", true},
		{"==1.5,==1.5.0", false},
		{">=1.0,<2.0,!=1.5", false},
		{"^1.2,>=2.0", true},
		{"^1.2,>=1.9", false},
		{"==1.*,>=2.0", true},
		{"==1.*,<1.4", false},
		{">=1.0,!=1.*,<2.0.dev0", true},
		{">=2.0,<1.0 || >=3.0", false}, // second branch rescues the set
		{">=2.0,<1.0 || ==4.0,!=4.0", true},
		{"*", false},
	}

	for _, tt := range tests {
		t.Run(tt.set, func(t *testing.T) {
			set := MustParseSpecifiers(tt.set)
			assert.Equal(t, tt.want, set.Empty())
		})
	}
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		a, b      string
		wantEmpty bool
	}{
		{">=1.21.4,<2.0.0", "^1.26", false},
		{">=2.0", "<2.0", true},
		{"^1.2", "~1.2", false},
		{"==5.9.3", ">=6.0", true},
		{">=1.8,<1.9 || >=2.0", "<1.0", true},
		{">=1.8,<1.9 || >=2.0", "<1.85", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+" with "+tt.b, func(t *testing.T) {
			merged := Intersect(MustParseSpecifiers(tt.a), MustParseSpecifiers(tt.b))
			assert.Equal(t, tt.wantEmpty, merged.Empty())
		})
	}
}
