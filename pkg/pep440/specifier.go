package pep440

import (
	"fmt"
	"strings"
)

// Operator identifies a single constraint clause kind.
type Operator string

const (
	OpEq         Operator = "=="
	OpNe         Operator = "!="
	OpGte        Operator = ">="
	OpGt         Operator = ">"
	OpLte        Operator = "<="
	OpLt         Operator = "<"
	OpCompatible Operator = "~=" // PEP 440 compatible release
	OpCaret      Operator = "^"  // Poetry caret
	OpTilde      Operator = "~"  // Poetry tilde
	OpAny        Operator = "*"  // bare "*"
)

// Specifier is one parsed constraint clause, e.g. ">=1.21.4" or "==1.*".
// Wildcard clauses (==X.* / !=X.*) keep the release prefix in Version.
type Specifier struct {
	Op       Operator
	Version  Version
	Wildcard bool
}

func (s Specifier) String() string {
	if s.Op == OpAny {
		return "*"
	}
	v := s.Version.String()
	if s.Wildcard {
		v += ".*"
	}
	return string(s.Op) + v
}

// SpecifierSet is a parsed constraint expression: comma-separated clauses
// form a conjunction, "||" separates alternative branches (Poetry syntax).
type SpecifierSet struct {
	branches [][]Specifier
	raw      string
}

// ParseSpecifiers parses a constraint expression such as ">=1.21.4,<2.0.0",
// "^5.9.3", "~1.2", "==21.9b0", "1.*" or ">=2.0 || >=1.8,<1.9".
func ParseSpecifiers(raw string) (SpecifierSet, error) {
	set := SpecifierSet{raw: raw}
	if strings.TrimSpace(raw) == "" {
		return set, fmt.Errorf("empty constraint")
	}
	for _, branch := range strings.Split(raw, "||") {
		var clauses []Specifier
		for _, clause := range strings.Split(branch, ",") {
			spec, err := parseClause(clause)
			if err != nil {
				return set, err
			}
			clauses = append(clauses, spec)
		}
		set.branches = append(set.branches, clauses)
	}
	return set, nil
}

// MustParseSpecifiers is ParseSpecifiers for known-good literals.
func MustParseSpecifiers(raw string) SpecifierSet {
	set, err := ParseSpecifiers(raw)
	if err != nil {
		panic(err)
	}
	return set
}

func parseClause(clause string) (Specifier, error) {
	text := strings.TrimSpace(clause)
	if text == "" {
		return Specifier{}, fmt.Errorf("empty constraint clause in %q", clause)
	}
	if text == "*" {
		return Specifier{Op: OpAny}, nil
	}

	op := Operator("")
	for _, candidate := range []Operator{OpEq, OpNe, OpGte, OpLte, OpCompatible, OpGt, OpLt, OpCaret, OpTilde} {
		if strings.HasPrefix(text, string(candidate)) {
			op = candidate
			text = strings.TrimSpace(text[len(candidate):])
			break
		}
	}
	if op == "" {
		// Bare version: Poetry treats it as an exact pin.
		op = OpEq
	}
	if text == "" {
		return Specifier{}, fmt.Errorf("constraint %q is missing a version", clause)
	}

	wildcard := false
	if strings.HasSuffix(text, ".*") || text == "*" {
		wildcard = true
		text = strings.TrimSuffix(strings.TrimSuffix(text, ".*"), "*")
		if op != OpEq && op != OpNe {
			return Specifier{}, fmt.Errorf("wildcard requires == or != in %q", clause)
		}
		if text == "" {
			if op == OpNe {
				return Specifier{}, fmt.Errorf("%q excludes every version", clause)
			}
			return Specifier{Op: OpAny}, nil
		}
	}

	v, err := Parse(text)
	if err != nil {
		return Specifier{}, fmt.Errorf("constraint %q: %w", clause, err)
	}
	if wildcard && v.IsPrerelease() {
		return Specifier{}, fmt.Errorf("wildcard over a pre-release in %q", clause)
	}
	if wildcard && v.Post != nil {
		return Specifier{}, fmt.Errorf("wildcard over a post-release in %q", clause)
	}
	if op == OpCompatible && len(v.Release) < 2 {
		return Specifier{}, fmt.Errorf("~= requires at least two release components in %q", clause)
	}
	return Specifier{Op: op, Version: v, Wildcard: wildcard}, nil
}

// String reconstructs the expression the set was parsed from.
func (s SpecifierSet) String() string { return s.raw }

// Match reports whether v satisfies the constraint. Pre-release and dev
// versions are only admitted by branches that themselves name a pre-release
// (pip's default gating).
func (s SpecifierSet) Match(v Version) bool {
	for _, branch := range s.branches {
		if branchMatch(branch, v) {
			return true
		}
	}
	return false
}

func branchMatch(branch []Specifier, v Version) bool {
	if v.IsPrerelease() && !branchAllowsPrerelease(branch) {
		return false
	}
	for _, spec := range branch {
		if !spec.match(v) {
			return false
		}
	}
	return true
}

func branchAllowsPrerelease(branch []Specifier) bool {
	for _, spec := range branch {
		if spec.Version.IsPrerelease() {
			return true
		}
	}
	return false
}

func (s Specifier) match(v Version) bool {
	switch s.Op {
	case OpAny:
		return true
	case OpEq:
		if s.Wildcard {
			return prefixMatch(v, s.Version)
		}
		return v.Compare(s.Version) == 0
	case OpNe:
		if s.Wildcard {
			return !prefixMatch(v, s.Version)
		}
		return v.Compare(s.Version) != 0
	case OpGte:
		return v.Compare(s.Version) >= 0
	case OpGt:
		return v.Compare(s.Version) > 0
	case OpLte:
		return v.Compare(s.Version) <= 0
	case OpLt:
		return v.Compare(s.Version) < 0
	case OpCompatible:
		prefix := Version{Epoch: s.Version.Epoch, Release: s.Version.Release[:len(s.Version.Release)-1]}
		return v.Compare(s.Version) >= 0 && prefixMatch(v, prefix)
	case OpCaret:
		upper := Version{Epoch: s.Version.Epoch, Release: caretUpper(s.Version.Release)}
		return v.Compare(s.Version) >= 0 && v.Compare(upper) < 0
	case OpTilde:
		upper := Version{Epoch: s.Version.Epoch, Release: tildeUpper(s.Version.Release)}
		return v.Compare(s.Version) >= 0 && v.Compare(upper) < 0
	default:
		return false
	}
}

// prefixMatch reports whether v's release starts with prefix's release
// (zero-padded), at equal epoch. Pre/post/dev segments are ignored, matching
// the PEP 440 prefix-match rule.
func prefixMatch(v Version, prefix Version) bool {
	if v.Epoch != prefix.Epoch {
		return false
	}
	for i, want := range prefix.Release {
		got := 0
		if i < len(v.Release) {
			got = v.Release[i]
		}
		if got != want {
			return false
		}
	}
	return true
}

// caretUpper is the exclusive upper bound of a caret constraint: the first
// non-zero release component is bumped ("^1.2.3" < 2.0, "^0.2.3" < 0.3,
// "^0.0.3" < 0.0.4).
func caretUpper(release []int) []int {
	for i, n := range release {
		if n != 0 {
			upper := make([]int, i+1)
			copy(upper, release[:i])
			upper[i] = n + 1
			return upper
		}
	}
	upper := make([]int, len(release))
	copy(upper, release)
	upper[len(upper)-1]++
	return upper
}

// tildeUpper is the exclusive upper bound of a tilde constraint: "~1" < 2,
// "~1.2" and "~1.2.3" < 1.3.
func tildeUpper(release []int) []int {
	if len(release) == 1 {
		return []int{release[0] + 1}
	}
	return []int{release[0], release[1] + 1}
}
