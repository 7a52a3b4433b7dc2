package pep440

// Satisfiability analysis. A branch is reduced to an interval with optional
// inclusive/exclusive endpoints plus point pins and wildcard exclusions; the
// version order is dense between distinct points, so finitely many "!="
// exclusions never empty a non-degenerate interval.

type bound struct {
	v    Version
	incl bool
}

type interval struct {
	lower *bound // nil = unbounded below
	upper *bound // nil = unbounded above
}

// Empty reports whether no version at all can satisfy the set.
func (s SpecifierSet) Empty() bool {
	if len(s.branches) == 0 {
		return true
	}
	for _, branch := range s.branches {
		if !branchEmpty(branch) {
			return false
		}
	}
	return true
}

// Intersect combines two sets into one requiring both. Branches multiply out
// (OR of ANDs), so Empty() on the result answers whether the two constraints
// are mutually satisfiable.
func Intersect(a, b SpecifierSet) SpecifierSet {
	out := SpecifierSet{raw: a.raw + " , " + b.raw}
	for _, ba := range a.branches {
		for _, bb := range b.branches {
			merged := make([]Specifier, 0, len(ba)+len(bb))
			merged = append(merged, ba...)
			merged = append(merged, bb...)
			out.branches = append(out.branches, merged)
		}
	}
	return out
}

func branchEmpty(branch []Specifier) bool {
	var (
		iv       interval
		pins     []Version
		excluded []Version
		exIvals  []interval
	)

	for _, spec := range branch {
		switch spec.Op {
		case OpAny:
			// no constraint
		case OpEq:
			if spec.Wildcard {
				wiv := wildcardInterval(spec.Version)
				iv.tightenLower(*wiv.lower)
				iv.tightenUpper(*wiv.upper)
			} else {
				pins = append(pins, spec.Version)
			}
		case OpNe:
			if spec.Wildcard {
				exIvals = append(exIvals, wildcardInterval(spec.Version))
			} else {
				excluded = append(excluded, spec.Version)
			}
		case OpGte:
			iv.tightenLower(bound{v: spec.Version, incl: true})
		case OpGt:
			iv.tightenLower(bound{v: spec.Version, incl: false})
		case OpLte:
			iv.tightenUpper(bound{v: spec.Version, incl: true})
		case OpLt:
			iv.tightenUpper(bound{v: spec.Version, incl: false})
		case OpCompatible:
			iv.tightenLower(bound{v: spec.Version, incl: true})
			prefix := Version{Epoch: spec.Version.Epoch, Release: spec.Version.Release[:len(spec.Version.Release)-1]}
			wiv := wildcardInterval(prefix)
			iv.tightenUpper(*wiv.upper)
		case OpCaret:
			iv.tightenLower(bound{v: spec.Version, incl: true})
			iv.tightenUpper(bound{v: Version{Epoch: spec.Version.Epoch, Release: caretUpper(spec.Version.Release)}, incl: false})
		case OpTilde:
			iv.tightenLower(bound{v: spec.Version, incl: true})
			iv.tightenUpper(bound{v: Version{Epoch: spec.Version.Epoch, Release: tildeUpper(spec.Version.Release)}, incl: false})
		}
	}

	// Distinct pins contradict each other; a single pin must fit everything else.
	if len(pins) > 0 {
		pin := pins[0]
		for _, p := range pins[1:] {
			if p.Compare(pin) != 0 {
				return true
			}
		}
		if !iv.contains(pin) {
			return true
		}
		for _, ex := range excluded {
			if ex.Compare(pin) == 0 {
				return true
			}
		}
		for _, wiv := range exIvals {
			if wiv.contains(pin) {
				return true
			}
		}
		return false
	}

	// Wildcard exclusions can eat the interval from either end. Iterate to a
	// fixpoint: a bound only ever moves inward, so this terminates.
	for changed := true; changed; {
		changed = false
		if iv.degenerate(excluded) {
			return true
		}
		for _, wiv := range exIvals {
			if iv.lower != nil && wiv.contains(iv.lower.v) {
				if iv.tightenLower(bound{v: wiv.upper.v, incl: true}) {
					changed = true
				}
			}
			if iv.upper != nil && wiv.contains(iv.upper.v) {
				if iv.tightenUpper(bound{v: wiv.lower.v, incl: false}) {
					changed = true
				}
			}
		}
	}
	return iv.degenerate(excluded)
}

// degenerate reports whether the interval admits no version, treating the
// order as dense and point exclusions as only able to kill a single-point
// interval.
func (iv interval) degenerate(excluded []Version) bool {
	if iv.lower == nil || iv.upper == nil {
		return false
	}
	c := iv.lower.v.Compare(iv.upper.v)
	if c > 0 {
		return true
	}
	if c < 0 {
		return false
	}
	if !iv.lower.incl || !iv.upper.incl {
		return true
	}
	for _, ex := range excluded {
		if ex.Compare(iv.lower.v) == 0 {
			return true
		}
	}
	return false
}

func (iv interval) contains(v Version) bool {
	if iv.lower != nil {
		c := v.Compare(iv.lower.v)
		if c < 0 || (c == 0 && !iv.lower.incl) {
			return false
		}
	}
	if iv.upper != nil {
		c := v.Compare(iv.upper.v)
		if c > 0 || (c == 0 && !iv.upper.incl) {
			return false
		}
	}
	return true
}

// tightenLower raises the lower bound, reporting whether it moved.
func (iv *interval) tightenLower(b bound) bool {
	if iv.lower == nil {
		iv.lower = &b
		return true
	}
	c := b.v.Compare(iv.lower.v)
	if c > 0 || (c == 0 && !b.incl && iv.lower.incl) {
		iv.lower = &b
		return true
	}
	return false
}

// tightenUpper lowers the upper bound, reporting whether it moved.
func (iv *interval) tightenUpper(b bound) bool {
	if iv.upper == nil {
		iv.upper = &b
		return true
	}
	c := b.v.Compare(iv.upper.v)
	if c < 0 || (c == 0 && !b.incl && iv.upper.incl) {
		iv.upper = &b
		return true
	}
	return false
}

// wildcardInterval is the span covered by a release prefix: every version
// whose padded release starts with it, from the prefix's dev0 up to (not
// including) the dev0 of the bumped prefix.
func wildcardInterval(prefix Version) interval {
	zero := 0
	lower := Version{Epoch: prefix.Epoch, Release: prefix.Release, Dev: &zero}
	upper := Version{Epoch: prefix.Epoch, Release: bumpLast(prefix.Release), Dev: &zero}
	return interval{
		lower: &bound{v: lower, incl: true},
		upper: &bound{v: upper, incl: false},
	}
}

func bumpLast(release []int) []int {
	out := make([]int, len(release))
	copy(out, release)
	out[len(out)-1]++
	return out
}
