// Package pep440 implements PEP 440 style version numbers and the specifier
// dialect used by Poetry manifests (comparison clauses plus caret, tilde and
// wildcard shorthands). It is a pure value package: no registry access, no I/O.
package pep440

import (
	"fmt"
	"strconv"
	"strings"
)

// Pre-release phase tags, ordered a < b < rc.
const (
	PhaseAlpha = "a"
	PhaseBeta  = "b"
	PhaseRC    = "rc"
)

// Pre is a pre-release segment such as the "b0" in "21.9b0".
type Pre struct {
	Phase string
	N     int
}

// Version is a parsed PEP 440 version. The zero value is not a valid version;
// use Parse or MustParse.
type Version struct {
	Epoch   int
	Release []int
	Pre     *Pre
	Post    *int
	Dev     *int

	orig string
}

// Parse parses a version string. Accepted grammar is the PEP 440 public
// version: [v][N!]N(.N)* with optional pre ("a"/"b"/"rc", also "alpha",
// "beta", "c"), ".postN" and ".devN" segments. Local version labels
// ("+something") are not supported.
func Parse(s string) (Version, error) {
	v := Version{orig: s}
	rest := strings.ToLower(strings.TrimSpace(s))
	rest = strings.TrimPrefix(rest, "v")
	if rest == "" {
		return v, fmt.Errorf("empty version")
	}
	if strings.ContainsAny(rest, "+ ") {
		return v, fmt.Errorf("unsupported version %q", s)
	}

	if i := strings.IndexByte(rest, '!'); i >= 0 {
		epoch, err := strconv.Atoi(rest[:i])
		if err != nil || epoch < 0 {
			return v, fmt.Errorf("invalid epoch in %q", s)
		}
		v.Epoch = epoch
		rest = rest[i+1:]
	}

	// Release segment: dotted run of digits.
	j := 0
	for j < len(rest) {
		start := j
		for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
			j++
		}
		if j == start {
			return v, fmt.Errorf("invalid release segment in %q", s)
		}
		n, err := strconv.Atoi(rest[start:j])
		if err != nil {
			return v, fmt.Errorf("invalid release segment in %q", s)
		}
		v.Release = append(v.Release, n)
		if j < len(rest) && rest[j] == '.' && j+1 < len(rest) && rest[j+1] >= '0' && rest[j+1] <= '9' {
			j++
			continue
		}
		break
	}
	if len(v.Release) == 0 {
		return v, fmt.Errorf("missing release segment in %q", s)
	}
	rest = rest[j:]

	v.Pre, rest = parsePre(rest)
	v.Post, rest = parseTail(rest, "post", "rev", "r")
	v.Dev, rest = parseTail(rest, "dev")
	if rest != "" {
		return v, fmt.Errorf("trailing %q in version %q", rest, s)
	}
	return v, nil
}

// MustParse is Parse for known-good literals; it panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parsePre(rest string) (*Pre, string) {
	rest0 := strings.TrimLeft(rest, "._-")
	for _, tag := range []struct{ spelled, phase string }{
		{"alpha", PhaseAlpha}, {"beta", PhaseBeta}, {"rc", PhaseRC},
		{"a", PhaseAlpha}, {"b", PhaseBeta}, {"c", PhaseRC},
	} {
		if !strings.HasPrefix(rest0, tag.spelled) {
			continue
		}
		tail := rest0[len(tag.spelled):]
		// "post"/"dev" also start with letters; only accept a pre tag when a
		// number (or nothing numeric-ish) follows, not a longer word.
		if len(tail) > 0 && tail[0] >= 'a' && tail[0] <= 'z' {
			continue
		}
		n, tail2 := takeNumber(tail)
		return &Pre{Phase: tag.phase, N: n}, tail2
	}
	return nil, rest
}

func parseTail(rest string, tags ...string) (*int, string) {
	rest0 := strings.TrimLeft(rest, "._-")
	for _, tag := range tags {
		if !strings.HasPrefix(rest0, tag) {
			continue
		}
		tail := rest0[len(tag):]
		if len(tail) > 0 && tail[0] >= 'a' && tail[0] <= 'z' {
			continue
		}
		n, tail2 := takeNumber(tail)
		return &n, tail2
	}
	return nil, rest
}

func takeNumber(s string) (int, string) {
	s = strings.TrimLeft(s, "._-")
	j := 0
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == 0 {
		return 0, s
	}
	n, _ := strconv.Atoi(s[:j])
	return n, s[j:]
}

// IsPrerelease reports whether v carries a pre-release or dev segment.
func (v Version) IsPrerelease() bool {
	return v.Pre != nil || v.Dev != nil
}

// String returns the normalized form (epoch!release[pre][.post][.dev]).
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%d", n)
	}
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Phase, v.Pre.N)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	return b.String()
}

// Original returns the string the version was parsed from.
func (v Version) Original() string { return v.orig }

// Compare returns -1, 0 or 1 ordering v against w per PEP 440:
// epoch, then release (trailing zeros insignificant), then
// dev < alpha < beta < rc < final < post at equal release.
func (v Version) Compare(w Version) int {
	if v.Epoch != w.Epoch {
		return cmpInt(v.Epoch, w.Epoch)
	}
	if c := cmpRelease(v.Release, w.Release); c != 0 {
		return c
	}
	if c := cmpInt(preRank(v), preRank(w)); c != 0 {
		return c
	}
	if v.Pre != nil && w.Pre != nil {
		if c := cmpInt(phaseRank(v.Pre.Phase), phaseRank(w.Pre.Phase)); c != 0 {
			return c
		}
		if c := cmpInt(v.Pre.N, w.Pre.N); c != 0 {
			return c
		}
	}
	if c := cmpOpt(v.Post, w.Post, -1); c != 0 {
		return c
	}
	return cmpOpt(v.Dev, w.Dev, 1)
}

// Equal reports Compare == 0 (so "1.0" equals "1.0.0").
func (v Version) Equal(w Version) bool { return v.Compare(w) == 0 }

// Less reports Compare < 0.
func (v Version) Less(w Version) bool { return v.Compare(w) < 0 }

func cmpRelease(a, b []int) int {
	a = trimZeros(a)
	b = trimZeros(b)
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmpInt(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

func trimZeros(r []int) []int {
	n := len(r)
	for n > 1 && r[n-1] == 0 {
		n--
	}
	return r[:n]
}

// preRank buckets a version for ordering at equal release:
// dev-only sorts before any pre-release, which sorts before final/post.
func preRank(v Version) int {
	switch {
	case v.Pre == nil && v.Post == nil && v.Dev != nil:
		return -1
	case v.Pre == nil:
		return 1
	default:
		return 0
	}
}

func phaseRank(phase string) int {
	switch phase {
	case PhaseAlpha:
		return 0
	case PhaseBeta:
		return 1
	default:
		return 2
	}
}

// cmpOpt orders optional segments; missing sorts as missingSign relative to
// present (post: absent < present; dev: absent > present).
func cmpOpt(a, b *int, missingSign int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return missingSign
	case b == nil:
		return -missingSign
	default:
		return cmpInt(*a, *b)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
